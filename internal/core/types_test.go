package core

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"89.90", 89.90, true},
		{" 100 ", 100, true},
		{"100 ₪", 100, true},
		{"₪59.90", 59.90, true},
		{"", 0, false},
		{"לא זמין", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrice(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParsePrice(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEffectivePrice(t *testing.T) {
	p := ProductRecord{RegularPrice: "100", SalePrice: "80"}
	if got := p.EffectivePrice(); got != "80" {
		t.Errorf("EffectivePrice() = %q, want sale price", got)
	}
	p.SalePrice = ""
	if got := p.EffectivePrice(); got != "100" {
		t.Errorf("EffectivePrice() = %q, want regular price", got)
	}
}

func TestInStock(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"", true}, // unmanaged stock counts as available
		{"instock", true},
		{"outofstock", false},
	}
	for _, tt := range tests {
		p := ProductRecord{StockStatus: tt.status}
		if got := p.InStock(); got != tt.want {
			t.Errorf("InStock() with status %q = %v, want %v", tt.status, got, tt.want)
		}
	}
}
