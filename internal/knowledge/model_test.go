package knowledge

import (
	"strings"
	"testing"
)

func TestRenderContext_Products(t *testing.T) {
	items := []Item{
		Product{Name: "Gold Pack", Description: "premium tier", Price: 99.5, Unit: "month"},
		Product{Name: "Silver Pack", Description: "entry tier", Price: 49, Unit: "month"},
	}

	got := RenderContext(items)
	if !strings.HasPrefix(got, "Relevant Products: \n") {
		t.Errorf("missing product header: %q", got)
	}
	if !strings.Contains(got, "- Gold Pack: premium tier 99.5 month") {
		t.Errorf("missing first product line: %q", got)
	}
	if !strings.Contains(got, "- Silver Pack: entry tier 49 month") {
		t.Errorf("missing second product line: %q", got)
	}
}

func TestRenderContext_Services(t *testing.T) {
	got := RenderContext([]Item{
		Service{Name: "SEO Boost", Description: "monthly audit", Price: 300, Periode: "monthly"},
	})
	if !strings.HasPrefix(got, "Relevant Services: \n") {
		t.Errorf("missing service header: %q", got)
	}
	if !strings.Contains(got, "- SEO Boost: monthly audit 300 DH monthly") {
		t.Errorf("missing service line: %q", got)
	}
}

func TestRenderContext_TenantProfile(t *testing.T) {
	got := RenderContext([]Item{
		TenantProfile{Name: "Atlas Digital", Email: "contact@atlas.ma", PhoneNumber: "+212520000000", Address: "12 Rue Hassan II ", City: "Casablanca"},
	})
	if !strings.HasPrefix(got, "Tenant Information: \n") {
		t.Errorf("missing tenant header: %q", got)
	}
	if !strings.Contains(got, "Atlas Digital") || !strings.Contains(got, "Casablanca") {
		t.Errorf("missing business details: %q", got)
	}
}

func TestRenderContext_Empty(t *testing.T) {
	if got := RenderContext(nil); got != "" {
		t.Errorf("RenderContext(nil) = %q, want empty", got)
	}
}

func TestEmbeddingText_StableShape(t *testing.T) {
	p := Product{Name: "Gold Pack", Description: "premium", Price: 99, Unit: "month"}
	if got := p.EmbeddingText(); got != "Offer: Gold Pack premium 99 month" {
		t.Errorf("product embedding text = %q", got)
	}
	s := Service{Name: "SEO Boost", Description: "audit", Price: 300, Periode: "monthly"}
	if got := s.EmbeddingText(); got != "Offer: SEO Boost audit 300 monthly" {
		t.Errorf("service embedding text = %q", got)
	}
}
