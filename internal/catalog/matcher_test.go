package catalog

import (
	"testing"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

func testItems() []internal.CatalogItem {
	return []internal.CatalogItem{
		{ID: 1, Name: "Centrifugal Pump A", Code: "CP-100A", UnitPrice: 10.00, Unit: "pcs"},
		{ID: 2, Name: "Butterfly Valve DN50", Code: "BV-DN50", UnitPrice: 25.50, Unit: "pcs"},
		{ID: 3, Name: "Butterfly Valve DN80", Code: "BV-DN80", UnitPrice: 31.00, Unit: "pcs"},
	}
}

func TestMatchExactCaseWhitespaceInsensitive(t *testing.T) {
	m := NewPriceMatcher(0.90, 0.08, testItems())

	a := m.Match("  Centrifugal Pump A ", "")
	b := m.Match("centrifugal pump a", "")
	if a != b {
		t.Fatalf("case/whitespace variants disagree: %v vs %v", a, b)
	}
	if a != 10.00 {
		t.Fatalf("price = %v, want 10.00", a)
	}
}

func TestMatchByCode(t *testing.T) {
	m := NewPriceMatcher(0.90, 0.08, testItems())
	if got := m.Match("BV-DN50", ""); got != 25.50 {
		t.Fatalf("code match price = %v, want 25.50", got)
	}
}

func TestMatchUnmatchedReturnsZero(t *testing.T) {
	m := NewPriceMatcher(0.90, 0.08, testItems())
	if got := m.Match("Submersible Dredger XXL", ""); got != 0 {
		t.Fatalf("unmatched price = %v, want 0", got)
	}
	if got := m.Match("", ""); got != 0 {
		t.Fatalf("empty name price = %v, want 0", got)
	}
}

func TestMatchDescriptionFallback(t *testing.T) {
	m := NewPriceMatcher(0.90, 0.08, testItems())
	if got := m.Match("Item 7", "Centrifugal Pump A"); got != 10.00 {
		t.Fatalf("description fallback price = %v, want 10.00", got)
	}
}

func TestMatchAmbiguousFuzzyRejected(t *testing.T) {
	// DN50 vs DN80 differ by one token; a query matching both about equally
	// must not pick one silently.
	m := NewPriceMatcher(0.90, 0.08, testItems())
	if got := m.Match("Butterfly Valve", ""); got != 0 {
		t.Fatalf("ambiguous match price = %v, want 0", got)
	}
}
