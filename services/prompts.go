package services

import (
	"encoding/json"
	"fmt"

	"comps-scraper/models"
)

const (
	extractSystem    = "You are a clothing product analyzer. Always respond with valid JSON only."
	similaritySystem = "You are a clothing similarity analyzer. Always respond with valid JSON only."
	querySystem      = "You are a marketplace search query optimizer. Always respond with valid JSON only."

	extractTemperature    = 0.3
	similarityTemperature = 0.2
	queryTemperature      = 0.5

	maxDescriptionChars = 500
)

func extractPrompt(title, description, brand string) string {
	if brand == "" {
		brand = "Unknown"
	}
	if description == "" {
		description = "N/A"
	} else if r := []rune(description); len(r) > maxDescriptionChars {
		description = string(r[:maxDescriptionChars])
	}

	return fmt.Sprintf(`Extract structured features from this clothing listing:

Title: %s
Brand: %s
Description: %s

Return a JSON object with these fields:
- category: clothing category (hoodie, jersey, polo, pants, etc.)
- brand_clean: normalized brand name
- size_normalized: normalized size (S, M, L, XL, etc.)
- color: primary color
- material: fabric/material type
- condition_rating: 1-10 scale
- style_tags: list of style descriptors
- gender: men, women, or unisex

Return ONLY valid JSON, no other text.`, title, brand, description)
}

func similarityPrompt(query, listing models.Features) string {
	return fmt.Sprintf(`Compare these two clothing items and return a similarity score from 0.0 to 1.0:

Query Item: %s
Listing Item: %s

Consider:
- Category match (highest weight)
- Brand match
- Size similarity
- Color/style similarity
- Condition proximity

Return a JSON object with:
- similarity_score: float 0.0-1.0
- reasoning: brief explanation

Return ONLY valid JSON.`, mustJSON(query), mustJSON(listing))
}

func queryPrompt(item models.Features) string {
	return fmt.Sprintf(`Generate 3 optimized search queries for finding comparable sold listings for this item:

Item: %s

Generate queries that will find similar items that have sold. Include:
- Brand and category
- Size if relevant
- Key style descriptors

Return a JSON object with:
- queries: array of 3 search query strings

Return ONLY valid JSON.`, mustJSON(item))
}

func mustJSON(f models.Features) string {
	if f == nil {
		return "{}"
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(b)
}
