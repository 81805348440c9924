// Package newswatch implements the news-keyword override: a weighted
// keyword scan over recent article text that can replace the numeric
// engine's label outright when the evidence is strong enough.
package newswatch

import (
	"sort"
	"strings"

	"StockPulse/internal/domain/models"
)

type match struct {
	keyword string
	weight  float64
	hits    int
}

// scanArticles counts keyword presence per article over lowercased
// title+description. Keyword iteration is sorted so two runs over the same
// inputs always produce the same matches in the same order.
func scanArticles(articles []models.NewsArticle, table map[string]float64) []match {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = strings.ToLower(a.Title + " " + a.Description)
	}

	var out []match
	for _, k := range keys {
		hits := 0
		for _, t := range texts {
			if strings.Contains(t, k) {
				hits++
			}
		}
		if hits > 0 {
			out = append(out, match{keyword: k, weight: table[k], hits: hits})
		}
	}
	return out
}

func sumMatches(ms []match) (score float64, hits int) {
	for _, m := range ms {
		score += m.weight * float64(m.hits)
		hits += m.hits
	}
	return score, hits
}
