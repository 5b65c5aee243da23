package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidListing is returned by Validate when a listing cannot be persisted.
var ErrInvalidListing = errors.New("invalid listing")

// Marketplace identifies the platform a comp was scraped from.
type Marketplace string

const (
	Ebay     Marketplace = "ebay"
	Poshmark Marketplace = "poshmark"
	Mercari  Marketplace = "mercari"
)

// Marketplaces lists every supported marketplace in crawl order.
var Marketplaces = []Marketplace{Ebay, Poshmark, Mercari}

// ParseMarketplace maps a CLI/spider name onto a Marketplace.
func ParseMarketplace(s string) (Marketplace, error) {
	m := Marketplace(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown marketplace %q", s)
	}
	return m, nil
}

// Valid reports whether m is one of the supported marketplaces.
func (m Marketplace) Valid() bool {
	for _, known := range Marketplaces {
		if m == known {
			return true
		}
	}
	return false
}

func (m Marketplace) String() string { return string(m) }

// Features holds the attributes a language model extracted from listing text.
// An empty map means "unknown".
type Features map[string]any

// Empty reports whether no attributes are known.
func (f Features) Empty() bool { return len(f) == 0 }

// String returns the trimmed string value stored under key, or "".
func (f Features) String(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Listing is one comparable sold listing, built from a scraped row, enriched
// by the agent and handed once to storage.
type Listing struct {
	ID int64 `json:"id,omitempty"`

	Marketplace Marketplace `json:"source_marketplace"`
	ListingID   string      `json:"listing_id,omitempty"`
	URL         string      `json:"url"`

	Title       string `json:"title"`
	Brand       string `json:"brand,omitempty"`
	Size        string `json:"size,omitempty"`
	Category    string `json:"category,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Description string `json:"description,omitempty"`

	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price,omitempty"`
	ShippingCost  float64  `json:"shipping_cost"`

	ImageURLs []string `json:"image_urls"`
	SoldDate  *string  `json:"sold_date,omitempty"`

	AIFeatures      Features `json:"ai_features,omitempty"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
	SearchQuery     string   `json:"search_query,omitempty"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// Validate checks the invariants a listing must satisfy before it is persisted.
func (l *Listing) Validate() error {
	var problems []string

	if strings.TrimSpace(l.Title) == "" {
		problems = append(problems, "title is empty")
	}
	if strings.TrimSpace(l.URL) == "" {
		problems = append(problems, "url is empty")
	}
	if !l.Marketplace.Valid() {
		problems = append(problems, fmt.Sprintf("marketplace %q is not supported", l.Marketplace))
	}
	if !validAmount(l.Price) {
		problems = append(problems, fmt.Sprintf("price %v is not a non-negative amount", l.Price))
	}
	if !validAmount(l.ShippingCost) {
		problems = append(problems, fmt.Sprintf("shipping cost %v is not a non-negative amount", l.ShippingCost))
	}
	if l.OriginalPrice != nil && !validAmount(*l.OriginalPrice) {
		problems = append(problems, fmt.Sprintf("original price %v is not a non-negative amount", *l.OriginalPrice))
	}
	if s := l.SimilarityScore; s != nil && (math.IsNaN(*s) || *s < 0 || *s > 1) {
		problems = append(problems, fmt.Sprintf("similarity score %v outside [0,1]", *s))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidListing, strings.Join(problems, "; "))
	}
	return nil
}

// Score returns the similarity score, or 0 when it has not been computed.
func (l *Listing) Score() float64 {
	if l.SimilarityScore == nil {
		return 0
	}
	return *l.SimilarityScore
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Float64 returns a pointer to v, for optional numeric fields.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s, for optional text fields.
func String(s string) *string { return &s }

// SummaryReport holds end-of-crawl figures over the emitted listings.
type SummaryReport struct {
	Marketplace        Marketplace
	TotalListings      int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	AverageSimilarity  float64
	MostExpensive      *Listing
	TopMatches         []*Listing
	ListingsByCategory map[string]int
}
