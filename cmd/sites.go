package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"comps-scraper/models"
	"comps-scraper/scraper"
	"comps-scraper/scraper/ebay"
	"comps-scraper/scraper/mercari"
	"comps-scraper/scraper/poshmark"
)

const spiderAll = "all"

var errInvalidFeatures = errors.New("Invalid JSON in --features")

func siteFor(m models.Marketplace) (scraper.Site, error) {
	switch m {
	case models.Ebay:
		return ebay.New(), nil
	case models.Poshmark:
		return poshmark.New(), nil
	case models.Mercari:
		return mercari.New(), nil
	default:
		return nil, fmt.Errorf("no spider for marketplace %q", m)
	}
}

func spiderNames() []string {
	names := make([]string, 0, len(models.Marketplaces)+1)
	for _, m := range models.Marketplaces {
		names = append(names, m.String())
	}
	return append(names, spiderAll)
}

// parseFeatures decodes a --features value. An empty value or JSON null means
// no reference item; any other value that is not a JSON object is rejected.
func parseFeatures(raw string) (models.Features, error) {
	if raw == "" {
		return nil, nil
	}
	var f models.Features
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, errInvalidFeatures
	}
	return f, nil
}
