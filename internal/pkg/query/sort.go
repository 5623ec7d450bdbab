package query

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"gosigo/internal/domain"
)

// SortState é a coluna ordenada e o sentido.
type SortState struct {
	Column     string
	Descending bool
}

// Toggle devolve o estado depois de um clique na coluna: a mesma coluna inverte
// o sentido, outra coluna começa ascendente.
func (s SortState) Toggle(column string) SortState {
	if s.Column == column {
		return SortState{Column: column, Descending: !s.Descending}
	}
	return SortState{Column: column}
}

// Sort ordena os registos no lugar. A ordenação é estável e sem critério de desempate.
// Sem coluna a ordem fica como está.
func Sort(records []domain.Record, s SortState) {
	if s.Column == "" {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i].Get(s.Column)
		b, _ := records[j].Get(s.Column)
		if s.Descending {
			return Compare(b, a) < 0
		}
		return Compare(a, b) < 0
	})
}

// Compare compara dois valores brutos: números numericamente, datas
// cronologicamente, o resto como texto. Valores ausentes vêm primeiro.
func Compare(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		}
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(domain.FormatValue(a), domain.FormatValue(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
