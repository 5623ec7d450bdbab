// Package query filtra, ordena e pagina listas de registos sem tocar no armazenamento.
package query

import (
	"fmt"
	"strings"
	"time"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
)

// DefaultPageSize é o tamanho de página das tabelas.
const DefaultPageSize = 10

// searchFields são os campos onde a pesquisa livre procura, por categoria.
var searchFields = map[domain.Category][]string{
	domain.CategoryCriminalidade:   {"municipio", "crime", "vitimaNome", "arguidoNome", "familiaCrime"},
	domain.CategorySinistralidade:  {"municipio", "local", "tipoAcidente", "causa"},
	domain.CategoryResultados:      {"municipio", "tipoResultado", "operacao", "unidade"},
	domain.CategoryTransportes:     {"viatura", "matricula", "motorista", "tipoMovimento", "origem", "destino"},
	domain.CategoryLogistica:       {"tipo", "item", "numeroSerie", "efectivoNip", "efectivoNome", "unidade"},
	domain.CategoryAutosExpediente: {"numeroAuto", "municipio", "tipo", "participante", "visado"},
	domain.CategoryProcessos:       {"numeroProcesso", "municipio", "crime", "arguidoNome", "instrutor"},
	domain.CategoryUsers:           {"name", "role"},
}

// SearchFields devolve os campos pesquisáveis da categoria.
func SearchFields(c domain.Category) []string {
	return searchFields[c]
}

// DateField devolve o campo de data de domínio da categoria ("" para users).
func DateField(c domain.Category) string {
	switch c {
	case domain.CategoryUsers:
		return ""
	case domain.CategoryAutosExpediente:
		return "dataAuto"
	}
	return "data"
}

// Params reúne os filtros de uma listagem, tal como chegam do cliente.
type Params struct {
	Search   string
	DateFrom string
	DateTo   string
	Sort     SortState
	Page     int
	PageSize int
}

// Range é um intervalo de datas inclusivo nos dois extremos. Extremos nulos não limitam.
type Range struct {
	From time.Time
	To   time.Time
}

// Bounded indica se pelo menos um dos extremos foi indicado.
func (r Range) Bounded() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

// Contains aplica os dois extremos, inclusivos.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ParseRange converte dateFrom/dateTo no intervalo efectivo: meia-noite local
// de dateFrom até 23:59:59.999 local de dateTo.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	var r Range
	if strings.TrimSpace(from) != "" {
		t, ok := domain.ParseDate(from, loc)
		if !ok {
			return Range{}, apperror.NewValidationError(fmt.Sprintf("dateFrom inválido: %q", from))
		}
		r.From = startOfDay(t, loc)
	}
	if strings.TrimSpace(to) != "" {
		t, ok := domain.ParseDate(to, loc)
		if !ok {
			return Range{}, apperror.NewValidationError(fmt.Sprintf("dateTo inválido: %q", to))
		}
		r.To = startOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return r, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EffectiveDate devolve a data usada no filtro: o campo de data da categoria
// quando interpretável, senão createdAt.
func EffectiveDate(c domain.Category, rec domain.Record, loc *time.Location) (time.Time, bool) {
	if field := DateField(c); field != "" {
		switch v := rec.Fields[field].(type) {
		case string:
			if t, ok := domain.ParseDate(v, loc); ok {
				return t, true
			}
		case time.Time:
			return v, true
		}
	}
	if !rec.CreatedAt.IsZero() {
		return rec.CreatedAt, true
	}
	return time.Time{}, false
}

// MatchesSearch indica se algum campo pesquisável contém o termo, sem distinguir maiúsculas.
// Um termo vazio aceita tudo.
func MatchesSearch(c domain.Category, rec domain.Record, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range SearchFields(c) {
		if strings.Contains(strings.ToLower(rec.String(field)), term) {
			return true
		}
	}
	return false
}

// Filter devolve os registos que passam a pesquisa e o intervalo, pela ordem original.
// Com intervalo definido, um registo sem data interpretável é excluído.
func Filter(c domain.Category, records []domain.Record, search string, r Range, loc *time.Location) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if !MatchesSearch(c, rec, search) {
			continue
		}
		if r.Bounded() {
			t, ok := EffectiveDate(c, rec, loc)
			if !ok || !r.Contains(t) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// Apply filtra, ordena e pagina.
func Apply(c domain.Category, records []domain.Record, p Params, loc *time.Location) (Page, error) {
	r, err := ParseRange(p.DateFrom, p.DateTo, loc)
	if err != nil {
		return Page{}, err
	}
	filtered := Filter(c, records, p.Search, r, loc)
	Sort(filtered, p.Sort)
	return Paginate(filtered, p.Page, p.PageSize), nil
}
