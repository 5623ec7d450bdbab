package domain

import "time"

// Bucket é uma contagem agrupada pelo valor de um campo.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary são os totais por categoria mostrados no dashboard.
type Summary struct {
	Totals      map[Category]int `json:"totals"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
