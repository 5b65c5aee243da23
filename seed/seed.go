// Package seed holds fixed comp sets for populating an empty comps table.
package seed

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"comps-scraper/models"
)

//go:embed fixtures/*.yaml
var fixtures embed.FS

// record mirrors one fixture entry.
type record struct {
	Marketplace     string   `yaml:"source_marketplace"`
	ListingID       string   `yaml:"listing_id"`
	URL             string   `yaml:"url"`
	Title           string   `yaml:"title"`
	Brand           string   `yaml:"brand"`
	Size            string   `yaml:"size"`
	Category        string   `yaml:"category"`
	Condition       string   `yaml:"condition"`
	Price           float64  `yaml:"price"`
	ShippingCost    float64  `yaml:"shipping_cost"`
	ImageURLs       []string `yaml:"image_urls"`
	SimilarityScore *float64 `yaml:"similarity_score"`
}

// Sets lists the available fixture set names.
func Sets() []string {
	entries, err := fixtures.ReadDir("fixtures")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Load decodes the named set. Scored sets are stamped with the current time,
// matching how they were first written.
func Load(set string) ([]*models.Listing, error) {
	data, err := fixtures.ReadFile("fixtures/" + set + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("seed: unknown set %q (have %s)", set, strings.Join(Sets(), ", "))
	}

	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("seed: decode %s: %w", set, err)
	}

	now := time.Now().UTC()
	listings := make([]*models.Listing, 0, len(records))
	for _, r := range records {
		m, err := models.ParseMarketplace(r.Marketplace)
		if err != nil {
			return nil, fmt.Errorf("seed: %s/%s: %w", set, r.ListingID, err)
		}
		images := r.ImageURLs
		if images == nil {
			images = []string{}
		}
		l := &models.Listing{
			Marketplace:     m,
			ListingID:       r.ListingID,
			URL:             r.URL,
			Title:           r.Title,
			Brand:           r.Brand,
			Size:            r.Size,
			Category:        r.Category,
			Condition:       r.Condition,
			Price:           r.Price,
			ShippingCost:    r.ShippingCost,
			ImageURLs:       images,
			SimilarityScore: r.SimilarityScore,
		}
		if l.SimilarityScore != nil {
			l.ScrapedAt = now
		}
		listings = append(listings, l)
	}
	return listings, nil
}
