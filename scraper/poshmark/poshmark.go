// Package poshmark parses Poshmark sold-listing search results.
package poshmark

import (
	"github.com/PuerkitoBio/goquery"

	"comps-scraper/models"
	"comps-scraper/scraper"
)

const (
	baseURL = "https://poshmark.com"

	// Poshmark's flat-rate label.
	shippingCost = 7.97
)

type Site struct{}

func New() *Site { return &Site{} }

func (*Site) Marketplace() models.Marketplace { return models.Poshmark }

func (*Site) SearchURL(query string) string {
	return scraper.SearchURL(baseURL+"/search", "query", query, [][2]string{
		{"availability", "sold"},
		{"sort_by", "added_desc"},
	})
}

func (*Site) WaitSelector() string { return ".tile" }

func (*Site) ParseRows(doc *goquery.Document, query string) []scraper.RowResult {
	return scraper.Rows(doc, ".tile", func(s *goquery.Selection) scraper.RowResult {
		raw := scraper.RawRow{
			Title:    scraper.Text(s, ".tile__title"),
			Price:    scraper.Text(s, ".tile__price"),
			URL:      scraper.AbsoluteURL(baseURL, scraper.Attr(s, "a[href]", "href")),
			Image:    scraper.Attr(s, "img[src]", "src"),
			Shipping: shippingCost,
		}
		l, err := raw.Build(models.Poshmark, query)
		return scraper.RowResult{Listing: l, Err: err}
	})
}
