package models

import (
	"errors"
	"math"
	"testing"
)

func validListing() *Listing {
	return &Listing{
		Marketplace:  Ebay,
		URL:          "https://www.ebay.com/itm/123456789",
		Title:        "Nike Tech Fleece Hoodie Size L Black",
		Price:        65,
		ShippingCost: 8.5,
	}
}

func TestListingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *Listing)
		wantErr bool
	}{
		{"valid", func(l *Listing) {}, false},
		{"zero price is allowed", func(l *Listing) { l.Price = 0 }, false},
		{"empty title", func(l *Listing) { l.Title = "  " }, true},
		{"empty url", func(l *Listing) { l.URL = "" }, true},
		{"negative price", func(l *Listing) { l.Price = -1 }, true},
		{"NaN price", func(l *Listing) { l.Price = math.NaN() }, true},
		{"negative shipping", func(l *Listing) { l.ShippingCost = -0.01 }, true},
		{"negative original price", func(l *Listing) { l.OriginalPrice = Float64(-3) }, true},
		{"unknown marketplace", func(l *Listing) { l.Marketplace = "depop" }, true},
		{"score above one", func(l *Listing) { l.SimilarityScore = Float64(1.2) }, true},
		{"score below zero", func(l *Listing) { l.SimilarityScore = Float64(-0.1) }, true},
		{"score at bounds", func(l *Listing) { l.SimilarityScore = Float64(1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(l)
			err := l.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidListing) {
				t.Errorf("Validate() = %v; want ErrInvalidListing", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}

func TestParseMarketplace(t *testing.T) {
	tests := []struct {
		in      string
		want    Marketplace
		wantErr bool
	}{
		{"ebay", Ebay, false},
		{" Poshmark ", Poshmark, false},
		{"MERCARI", Mercari, false},
		{"all", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMarketplace(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMarketplace(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMarketplace(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeaturesString(t *testing.T) {
	f := Features{"category": " hoodie ", "condition_rating": float64(8), "gender": nil}

	if got := f.String("category"); got != "hoodie" {
		t.Errorf("String(category) = %q; want %q", got, "hoodie")
	}
	if got := f.String("condition_rating"); got != "8" {
		t.Errorf("String(condition_rating) = %q; want %q", got, "8")
	}
	if got := f.String("gender"); got != "" {
		t.Errorf("String(gender) = %q; want empty", got)
	}
	if f.Empty() {
		t.Error("Empty() = true for populated features")
	}
	if !(Features{}).Empty() || !Features(nil).Empty() {
		t.Error("Empty() = false for empty features")
	}
}
