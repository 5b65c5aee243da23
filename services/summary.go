package services

import (
	"sort"
	"strings"

	"comps-scraper/models"
	"comps-scraper/utils"
)

const topMatches = 5

// SummaryService condenses the listings one crawl emitted into log lines.
type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

func (s *SummaryService) Generate(m models.Marketplace, listings []*models.Listing) *models.SummaryReport {
	report := &models.SummaryReport{
		Marketplace:        m,
		ListingsByCategory: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var priced, scored []*models.Listing
	var totalScore float64

	for _, l := range listings {
		if l.Price > 0 {
			priced = append(priced, l)
		}
		if l.SimilarityScore != nil {
			scored = append(scored, l)
			totalScore += *l.SimilarityScore
		}
		category := l.Category
		if category == "" {
			category = l.AIFeatures.String("category")
		}
		if category != "" {
			report.ListingsByCategory[strings.ToLower(category)]++
		}
	}

	if len(priced) > 0 {
		report.MinPrice = priced[0].Price
		report.MaxPrice = priced[0].Price
		report.MostExpensive = priced[0]
		var total float64
		for _, l := range priced {
			total += l.Price
			if l.Price < report.MinPrice {
				report.MinPrice = l.Price
			}
			if l.Price > report.MaxPrice {
				report.MaxPrice = l.Price
				report.MostExpensive = l
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	if len(scored) > 0 {
		report.AverageSimilarity = round2(totalScore / float64(len(scored)))
	}

	// Best matches first; equal scores keep crawl order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})
	if len(scored) > topMatches {
		report.TopMatches = scored[:topMatches]
	} else {
		report.TopMatches = scored
	}

	return report
}

// Log writes the report as the final lines of a crawl.
func (s *SummaryService) Log(r *models.SummaryReport) {
	s.logger.Info("[summary] %s: %d comps stored", r.Marketplace, r.TotalListings)
	if r.TotalListings == 0 {
		return
	}

	if r.AveragePrice > 0 {
		s.logger.Info("[summary] Price avg $%.2f | min $%.2f | max $%.2f",
			r.AveragePrice, r.MinPrice, r.MaxPrice)
	}
	if r.MostExpensive != nil {
		s.logger.Info("[summary] Most expensive: %s ($%.2f)", truncate(r.MostExpensive.Title, 50), r.MostExpensive.Price)
	}
	if len(r.TopMatches) > 0 {
		s.logger.Info("[summary] Average similarity %.2f", r.AverageSimilarity)
		for i, l := range r.TopMatches {
			s.logger.Info("[summary] %d. %-40s %.2f", i+1, truncate(l.Title, 38), l.Score())
		}
	}

	type catCount struct {
		cat   string
		count int
	}
	var cats []catCount
	for cat, cnt := range r.ListingsByCategory {
		cats = append(cats, catCount{cat, cnt})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].cat < cats[j].cat
	})
	for _, c := range cats {
		s.logger.Info("[summary] %-20s %d", truncate(c.cat, 18), c.count)
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
