package knowledge

import (
	"context"
	"testing"

	"github.com/yassineboubkeur/Chatbot-AI-Whatsapp/pkg/logging"
)

// fakeSearcher records which corpus was queried.
type fakeSearcher struct {
	corpus   string
	gotTopK  int
	gotTenID int64
}

func (f *fakeSearcher) SearchProducts(_ context.Context, tenantID int64, _ []float32, topK int) ([]Item, error) {
	f.corpus, f.gotTopK, f.gotTenID = "products", topK, tenantID
	return []Item{Product{Name: "Gold Pack"}}, nil
}

func (f *fakeSearcher) SearchServices(_ context.Context, tenantID int64, _ []float32, topK int) ([]Item, error) {
	f.corpus, f.gotTopK, f.gotTenID = "services", topK, tenantID
	return []Item{Service{Name: "SEO Boost"}}, nil
}

func (f *fakeSearcher) SearchTenantProfiles(_ context.Context, tenantID int64, _ []float32, topK int) ([]Item, error) {
	f.corpus, f.gotTopK, f.gotTenID = "tenant_info", topK, tenantID
	return []Item{TenantProfile{Name: "Atlas Digital"}}, nil
}

func TestRouter_DispatchesByIntent(t *testing.T) {
	cases := []struct {
		intent     string
		wantCorpus string
	}{
		{"product", "products"},
		{"service", "services"},
		{"general", "tenant_info"},
	}

	for _, tc := range cases {
		repo := &fakeSearcher{}
		r := NewRouter(repo, 3, logging.Default())
		items, err := r.Route(context.Background(), tc.intent, []float32{0.1}, 7)
		if err != nil {
			t.Fatalf("Route(%q): %v", tc.intent, err)
		}
		if repo.corpus != tc.wantCorpus {
			t.Errorf("Route(%q) hit %q, want %q", tc.intent, repo.corpus, tc.wantCorpus)
		}
		if repo.gotTopK != 3 || repo.gotTenID != 7 {
			t.Errorf("Route(%q) forwarded topK=%d tenant=%d", tc.intent, repo.gotTopK, repo.gotTenID)
		}
		if len(items) != 1 {
			t.Errorf("Route(%q) returned %d items", tc.intent, len(items))
		}
	}
}

func TestRouter_UnrecognizedIntentReturnsEmpty(t *testing.T) {
	repo := &fakeSearcher{}
	r := NewRouter(repo, 3, logging.Default())

	items, err := r.Route(context.Background(), "unknown", []float32{0.1}, 7)
	if err != nil || items != nil {
		t.Errorf("Route(unknown) = %v, %v; want nil, nil", items, err)
	}
	if repo.corpus != "" {
		t.Errorf("unrecognized intent must not query any corpus, hit %q", repo.corpus)
	}
}

func TestRouter_MissingEmbeddingOrTenantReturnsEmpty(t *testing.T) {
	repo := &fakeSearcher{}
	r := NewRouter(repo, 3, logging.Default())

	if items, err := r.Route(context.Background(), "product", nil, 7); err != nil || items != nil {
		t.Errorf("Route without embedding = %v, %v; want nil, nil", items, err)
	}
	if items, err := r.Route(context.Background(), "product", []float32{0.1}, 0); err != nil || items != nil {
		t.Errorf("Route without tenant = %v, %v; want nil, nil", items, err)
	}
	if repo.corpus != "" {
		t.Errorf("guard clauses must not query any corpus, hit %q", repo.corpus)
	}
}
