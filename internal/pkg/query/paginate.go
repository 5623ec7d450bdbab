package query

import "gosigo/internal/domain"

// AllRecords como tamanho de página devolve tudo numa só página.
const AllRecords = -1

// Page é uma página de resultados com os metadados da tabela.
type Page struct {
	Items      []domain.Record
	Total      int
	TotalPages int
	Page       int
	PageSize   int
}

// Paginate corta a página pedida (1-indexada). Uma página fora do intervalo vem vazia.
func Paginate(records []domain.Record, page, pageSize int) Page {
	if pageSize == AllRecords {
		pageSize = len(records)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(records)
	p := Page{
		Items:      []domain.Record{},
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
		Page:       page,
		PageSize:   pageSize,
	}

	start := (page - 1) * pageSize
	if start >= total {
		return p
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	p.Items = records[start:end]
	return p
}
