package domain

import "strings"

// Category identifica uma coleção independente de registos.
type Category string

const (
	CategoryCriminalidade   Category = "criminalidade"
	CategorySinistralidade  Category = "sinistralidade"
	CategoryResultados      Category = "resultados"
	CategoryTransportes     Category = "transportes"
	CategoryLogistica       Category = "logistica"
	CategoryUsers           Category = "users"
	CategoryAutosExpediente Category = "autosExpediente"
	CategoryProcessos       Category = "processos"
)

// Categories é a enumeração fixa, na ordem em que o dashboard as apresenta.
var Categories = []Category{
	CategoryCriminalidade,
	CategorySinistralidade,
	CategoryResultados,
	CategoryTransportes,
	CategoryLogistica,
	CategoryUsers,
	CategoryAutosExpediente,
	CategoryProcessos,
}

// OperationalCategories são as categorias de ocorrências (todas excepto users).
func OperationalCategories() []Category {
	out := make([]Category, 0, len(Categories)-1)
	for _, c := range Categories {
		if c != CategoryUsers {
			out = append(out, c)
		}
	}
	return out
}

// ParseCategory valida a chave recebida contra a enumeração fixa.
// A comparação é exacta: "Criminalidade" não é uma categoria.
func ParseCategory(key string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == key {
			return c, true
		}
	}
	return "", false
}

// View é o nome de um ecrã do dashboard, tal como guardado na lista de permissões.
type View string

const (
	ViewDashboard       View = "Dashboard"
	ViewCriminalidade   View = "Criminalidade"
	ViewSinistralidade  View = "Sinistralidade"
	ViewResultados      View = "Resultados"
	ViewTransportes     View = "Transportes"
	ViewLogistica       View = "Logistica"
	ViewAutosExpediente View = "AutosExpediente"
	ViewProcessos       View = "Processos"
	ViewUtilizadores    View = "Utilizadores"
)

// Views lista todos os ecrãs conhecidos.
var Views = []View{
	ViewDashboard,
	ViewCriminalidade,
	ViewSinistralidade,
	ViewResultados,
	ViewTransportes,
	ViewLogistica,
	ViewAutosExpediente,
	ViewProcessos,
	ViewUtilizadores,
}

var categoryViews = map[Category]View{
	CategoryCriminalidade:   ViewCriminalidade,
	CategorySinistralidade:  ViewSinistralidade,
	CategoryResultados:      ViewResultados,
	CategoryTransportes:     ViewTransportes,
	CategoryLogistica:       ViewLogistica,
	CategoryUsers:           ViewUtilizadores,
	CategoryAutosExpediente: ViewAutosExpediente,
	CategoryProcessos:       ViewProcessos,
}

// ViewFor devolve o ecrã que expõe a categoria.
func ViewFor(c Category) View {
	return categoryViews[c]
}

// ParseView aceita o nome do ecrã sem distinguir maiúsculas.
func ParseView(name string) (View, bool) {
	name = strings.TrimSpace(name)
	for _, v := range Views {
		if strings.EqualFold(string(v), name) {
			return v, true
		}
	}
	return "", false
}
