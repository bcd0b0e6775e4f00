package knowledge

import (
	"fmt"
	"strings"
)

// EmbeddingDim is the fixed dimension of every stored vector.
const EmbeddingDim = 1536

// Item is a tenant-scoped knowledge record that can render itself into the
// out-of-band context block.
type Item interface {
	ContextLine() string
}

// Product is a sellable good with a price and unit.
type Product struct {
	ID          int64
	TenantID    int64
	Name        string
	Description string
	Price       float64
	Unit        string
}

func (p Product) ContextLine() string {
	return fmt.Sprintf("- %s: %s %v %s", p.Name, p.Description, p.Price, p.Unit)
}

// EmbeddingText is the canonical rendering embedded at write time. The
// shape is stable so previously stored vectors remain comparable.
func (p Product) EmbeddingText() string {
	return fmt.Sprintf("Offer: %s %s %v %s", p.Name, p.Description, p.Price, p.Unit)
}

// Service is a recurring offer with a billing period.
type Service struct {
	ID          int64
	TenantID    int64
	Name        string
	Description string
	Price       float64
	Periode     string
}

func (s Service) ContextLine() string {
	return fmt.Sprintf("- %s: %s %v DH %s", s.Name, s.Description, s.Price, s.Periode)
}

func (s Service) EmbeddingText() string {
	return fmt.Sprintf("Offer: %s %s %v %s", s.Name, s.Description, s.Price, s.Periode)
}

// TenantProfile carries the business contact card served for general
// questions.
type TenantProfile struct {
	ID          int64
	TenantID    int64
	Name        string
	Email       string
	PhoneNumber string
	Address     string
	City        string
}

func (t TenantProfile) ContextLine() string {
	return fmt.Sprintf("- we are %s, we are in %s%s, this Our mail address %s if you want to call us this is our phone %s",
		t.Name, t.Address, t.City, t.Email, t.PhoneNumber)
}

func (t TenantProfile) EmbeddingText() string {
	return fmt.Sprintf("Business: %s %s %s %s %s", t.Name, t.Address, t.City, t.Email, t.PhoneNumber)
}

// RenderContext turns ranked items into a single human-readable block.
// Items in one result set always come from a single corpus, so the header
// follows the first item's variant. Empty input renders to "".
func RenderContext(items []Item) string {
	if len(items) == 0 {
		return ""
	}

	var header string
	switch items[0].(type) {
	case Product:
		header = "Relevant Products: \n"
	case Service:
		header = "Relevant Services: \n"
	case TenantProfile:
		header = "Tenant Information: \n"
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.ContextLine())
	}
	return header + strings.Join(lines, "\n")
}
