// Package ebay parses eBay sold-listing search results.
package ebay

import (
	"github.com/PuerkitoBio/goquery"

	"comps-scraper/models"
	"comps-scraper/scraper"
	"comps-scraper/services"
)

const searchBase = "https://www.ebay.com/sch/i.html"

type Site struct{}

func New() *Site { return &Site{} }

func (*Site) Marketplace() models.Marketplace { return models.Ebay }

// SearchURL asks for sold, completed listings, newest first.
func (*Site) SearchURL(query string) string {
	return scraper.SearchURL(searchBase, "_nkw", query, [][2]string{
		{"LH_Sold", "1"},
		{"LH_Complete", "1"},
		{"_sop", "13"},
	})
}

// eBay renders results server-side, so there is nothing to wait for.
func (*Site) WaitSelector() string { return "" }

func (*Site) ParseRows(doc *goquery.Document, query string) []scraper.RowResult {
	return scraper.Rows(doc, ".s-item", func(s *goquery.Selection) scraper.RowResult {
		raw := scraper.RawRow{
			Title:     scraper.Text(s, ".s-item__title"),
			Price:     scraper.Text(s, ".s-item__price"),
			URL:       scraper.Attr(s, ".s-item__link", "href"),
			Image:     scraper.Attr(s, ".s-item__image-img", "src"),
			SoldDate:  scraper.Text(s, ".s-item__title--tag"),
			Shipping:  services.ParseShipping(scraper.Text(s, ".s-item__shipping")),
			Condition: scraper.Text(s, ".SECONDARY_INFO"),
		}
		l, err := raw.Build(models.Ebay, query)
		return scraper.RowResult{Listing: l, Err: err}
	})
}
