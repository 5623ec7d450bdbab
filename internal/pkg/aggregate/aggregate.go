// Package aggregate agrupa registos para os gráficos do dashboard.
package aggregate

import (
	"sort"
	"strings"

	"gosigo/internal/domain"
)

// CountBy conta os registos pelo valor textual do campo. Valores vazios ou
// ausentes não entram. Os grupos vêm por contagem decrescente e, em empate, por nome.
func CountBy(records []domain.Record, field string) []domain.Bucket {
	counts := make(map[string]int)
	for _, rec := range records {
		name := strings.TrimSpace(rec.String(field))
		if name == "" {
			continue
		}
		counts[name]++
	}

	buckets := make([]domain.Bucket, 0, len(counts))
	for name, n := range counts {
		buckets = append(buckets, domain.Bucket{Name: name, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// Totals conta os registos de cada categoria.
func Totals(collections map[domain.Category][]domain.Record) map[domain.Category]int {
	out := make(map[domain.Category]int, len(collections))
	for c, records := range collections {
		out[c] = len(records)
	}
	return out
}
