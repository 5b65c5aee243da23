// Package scraper drives one marketplace search crawl: render each query's
// results page, parse its rows, enrich and filter them, then hand survivors
// to a sink.
package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"comps-scraper/models"
	"comps-scraper/services"
)

// MaxRows caps the rows parsed from one results page.
const MaxRows = 20

var (
	ErrMissingField = errors.New("missing required field")
	ErrBadPrice     = errors.New("unparseable price")
)

// Site holds the marketplace-specific parts of a crawl.
type Site interface {
	Marketplace() models.Marketplace
	SearchURL(query string) string
	// WaitSelector is the element to wait for after load, or "" to skip waiting.
	WaitSelector() string
	ParseRows(doc *goquery.Document, query string) []RowResult
}

// RowResult is one parsed row: a listing, or the reason it was skipped.
type RowResult struct {
	Listing *models.Listing
	Err     error
}

// RawRow is the text pulled from one result row before cleaning.
type RawRow struct {
	Title     string
	Price     string
	URL       string
	Image     string
	Shipping  float64
	SoldDate  string
	Condition string
}

// Build validates the raw fields and converts them into a Listing.
func (r RawRow) Build(m models.Marketplace, query string) (*models.Listing, error) {
	title := services.NormaliseText(r.Title)
	switch {
	case title == "":
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	case strings.TrimSpace(r.Price) == "":
		return nil, fmt.Errorf("%w: price", ErrMissingField)
	case strings.TrimSpace(r.URL) == "":
		return nil, fmt.Errorf("%w: url", ErrMissingField)
	}

	price, err := services.ParsePrice(r.Price)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPrice, r.Price, err)
	}

	l := &models.Listing{
		Marketplace:  m,
		ListingID:    ListingIDFromURL(r.URL),
		URL:          r.URL,
		Title:        title,
		Condition:    services.NormaliseText(r.Condition),
		Price:        price,
		ShippingCost: r.Shipping,
		ImageURLs:    []string{},
		SearchQuery:  query,
	}
	if r.Image != "" {
		l.ImageURLs = append(l.ImageURLs, r.Image)
	}
	if d := services.NormaliseText(r.SoldDate); d != "" {
		l.SoldDate = models.String(d)
	}
	return l, nil
}

// Text returns the trimmed text of the first match of selector under s.
func Text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// Attr returns the trimmed attribute of the first match of selector under s.
func Attr(s *goquery.Selection, selector, attr string) string {
	v, _ := s.Find(selector).First().Attr(attr)
	return strings.TrimSpace(v)
}

// AbsoluteURL prefixes base onto site-relative links.
func AbsoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimRight(base, "/") + href
}

// ListingIDFromURL returns the last path segment of a listing url, without
// query string or fragment.
func ListingIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else {
		p, _, _ = strings.Cut(raw, "?")
	}
	id := path.Base(strings.TrimRight(p, "/"))
	if id == "." || id == "/" {
		return ""
	}
	return id
}

// SearchURL joins base and the encoded params, query parameter first.
func SearchURL(base, queryKey, query string, extra [][2]string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?")
	b.WriteString(url.Values{queryKey: {query}}.Encode())
	for _, kv := range extra {
		b.WriteString("&")
		b.WriteString(url.QueryEscape(kv[0]))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(kv[1]))
	}
	return b.String()
}

// Rows applies each parse to at most MaxRows matches of selector.
func Rows(doc *goquery.Document, selector string, parse func(*goquery.Selection) RowResult) []RowResult {
	var results []RowResult
	doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= MaxRows {
			return false
		}
		results = append(results, parse(s))
		return true
	})
	return results
}
