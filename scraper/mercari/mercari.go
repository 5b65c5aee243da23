// Package mercari parses Mercari sold-listing search results.
package mercari

import (
	"github.com/PuerkitoBio/goquery"

	"comps-scraper/models"
	"comps-scraper/scraper"
)

const (
	baseURL         = "https://www.mercari.com"
	resultsSelector = `[data-testid="SearchResults"]`
)

type Site struct{}

func New() *Site { return &Site{} }

func (*Site) Marketplace() models.Marketplace { return models.Mercari }

func (*Site) SearchURL(query string) string {
	return scraper.SearchURL(baseURL+"/search/", "keyword", query, [][2]string{
		{"status", "sold_out"},
		{"sort", "created_time"},
		{"order", "desc"},
	})
}

func (*Site) WaitSelector() string { return resultsSelector }

// ParseRows reads the direct children of the results grid. Shipping is not
// shown on result cards and is recorded as 0.
func (*Site) ParseRows(doc *goquery.Document, query string) []scraper.RowResult {
	return scraper.Rows(doc, resultsSelector+" > div", func(s *goquery.Selection) scraper.RowResult {
		raw := scraper.RawRow{
			Title: scraper.Text(s, `span[data-testid="ItemName"]`),
			Price: scraper.Text(s, `span[data-testid="ItemPrice"]`),
			URL:   scraper.AbsoluteURL(baseURL, scraper.Attr(s, "a[href]", "href")),
			Image: scraper.Attr(s, "img[src]", "src"),
		}
		l, err := raw.Build(models.Mercari, query)
		return scraper.RowResult{Listing: l, Err: err}
	})
}
