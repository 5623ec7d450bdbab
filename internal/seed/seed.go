// Package seed produz o conjunto de demonstração: três utilizadores e alguns
// registos por categoria.
package seed

import (
	"time"

	"gosigo/internal/domain"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/repository/recordrepo"
)

// PasswordHasher é o contrato do bcrypt (internal/pkg/password).
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// DemoUser é uma conta de demonstração com a senha em claro.
type DemoUser struct {
	ID          int64
	Name        string
	Password    string
	Role        domain.UserRole
	Permissions []string
}

// DemoAccounts são as contas semeadas. As senhas são públicas: só para demonstração.
var DemoAccounts = []DemoUser{
	{ID: 1, Name: "admin", Password: "admin123", Role: domain.RoleAdmin, Permissions: []string{}},
	{ID: 2, Name: "supervisor", Password: "super123", Role: domain.RoleSupervisor, Permissions: []string{}},
	{ID: 3, Name: "operador", Password: "operador123", Role: domain.RolePadrao, Permissions: []string{string(domain.ViewDashboard), string(domain.ViewCriminalidade)}},
}

var seededAt = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// Seeder monta os registos de demonstração.
type Seeder struct {
	Hasher PasswordHasher
	logger logger.Logger
}

// NewSeeder cria o Seeder.
func NewSeeder(hasher PasswordHasher, logger logger.Logger) *Seeder {
	return &Seeder{Hasher: hasher, logger: logger}
}

// Users devolve as contas de demonstração como registos da categoria users.
// Uma conta cujo hash falhe é omitida.
func (s *Seeder) Users() []domain.Record {
	out := make([]domain.Record, 0, len(DemoAccounts))
	for _, acc := range DemoAccounts {
		hash, err := s.Hasher.Hash(acc.Password)
		if err != nil {
			s.logger.Error("Falha ao gerar hash do utilizador de demonstração "+acc.Name, err)
			continue
		}
		u := domain.User{
			ID:           acc.ID,
			Name:         acc.Name,
			Role:         acc.Role,
			PasswordHash: hash,
			Permissions:  append([]string{}, acc.Permissions...),
			CreatedAt:    seededAt,
		}
		out = append(out, u.ToRecord())
	}
	return out
}

// Snapshot devolve o conjunto completo: utilizadores mais os registos de exemplo.
func (s *Seeder) Snapshot() recordrepo.Snapshot {
	snap := Records()
	snap[domain.CategoryUsers] = s.Users()
	return snap
}

// Records devolve os registos de exemplo das categorias operacionais.
func Records() recordrepo.Snapshot {
	return recordrepo.Snapshot{
		domain.CategoryCriminalidade: {
			rec(1001, 0, map[string]interface{}{"municipio": "Luanda", "bairro": "Maianga", "crime": "Roubo", "familiaCrime": "Contra o património", "data": "2024-01-10T09:30", "vitimaNome": "João Manuel", "vitimaIdade": 34, "estado": "Em investigação"}),
			rec(1002, 1, map[string]interface{}{"municipio": "Viana", "bairro": "Zango", "crime": "Furto", "familiaCrime": "Contra o património", "data": "2024-01-12", "estado": "Arquivado"}),
			rec(1003, 2, map[string]interface{}{"municipio": "Luanda", "bairro": "Rangel", "crime": "Ofensa corporal", "familiaCrime": "Contra as pessoas", "data": "2024-01-15T22:10", "arguidoNome": "Pedro Domingos", "arguidoIdade": 27, "estado": "Em investigação"}),
		},
		domain.CategorySinistralidade: {
			rec(2001, 0, map[string]interface{}{"municipio": "Cacuaco", "local": "Via expressa", "tipoAcidente": "Colisão", "causa": "Excesso de velocidade", "data": "2024-01-11T17:45", "viaturas": 2, "mortos": 0, "feridos": 3}),
			rec(2002, 1, map[string]interface{}{"municipio": "Belas", "local": "Estrada de Catete", "tipoAcidente": "Atropelamento", "causa": "Distracção", "data": "2024-01-14", "viaturas": 1, "mortos": 1, "feridos": 0}),
		},
		domain.CategoryResultados: {
			rec(3001, 0, map[string]interface{}{"municipio": "Luanda", "tipoResultado": "Detenção", "operacao": "Operação Resgate", "unidade": "1ª Esquadra", "quantidade": 4, "data": "2024-01-13"}),
			rec(3002, 1, map[string]interface{}{"municipio": "Viana", "tipoResultado": "Apreensão de armas", "unidade": "Comando Municipal", "quantidade": 2, "data": "2024-01-16"}),
		},
		domain.CategoryTransportes: {
			rec(4001, 0, map[string]interface{}{"viatura": "Toyota Land Cruiser", "matricula": "LD-23-45-AB", "motorista": "Carlos Neto", "tipoMovimento": "Abastecimento", "combustivel": "Gasóleo", "litros": 80, "quilometragem": 152340, "data": "2024-01-10"}),
			rec(4002, 1, map[string]interface{}{"viatura": "Nissan Patrol", "matricula": "LD-11-02-CC", "motorista": "Ana Paulo", "tipoMovimento": "Patrulha", "origem": "Comando Provincial", "destino": "Cacuaco", "data": "2024-01-17T06:00"}),
		},
		domain.CategoryLogistica: {
			rec(5001, 0, map[string]interface{}{"tipo": "armamento", "item": "Pistola", "numeroSerie": "PX-88213", "quantidade": 1, "efectivoNip": "NIP-10233", "efectivoNome": "Mateus Kiala", "unidade": "1ª Esquadra", "data": "2024-01-09"}),
			rec(5002, 1, map[string]interface{}{"tipo": "fardamento", "item": "Farda de serviço", "quantidade": 2, "efectivoNip": "NIP-10561", "efectivoNome": "Rosa Fernandes", "unidade": "Comando Municipal", "data": "2024-01-18"}),
		},
		domain.CategoryAutosExpediente: {
			rec(6001, 0, map[string]interface{}{"numeroAuto": "AE-001/2024", "dataAuto": "2024-01-08", "municipio": "Luanda", "tipo": "Queixa", "participante": "Maria Lopes", "visado": "Desconhecido", "estado": "Aberto"}),
		},
		domain.CategoryProcessos: {
			rec(7001, 0, map[string]interface{}{"numeroProcesso": "PC-045/2024", "data": "2024-01-19", "municipio": "Luanda", "crime": "Roubo", "arguidoNome": "Pedro Domingos", "instrutor": "Inspector Silva", "estado": "Em instrução"}),
		},
	}
}

func rec(id int64, offset int, fields map[string]interface{}) domain.Record {
	return domain.Record{
		ID:        id,
		CreatedAt: seededAt.Add(time.Duration(offset) * time.Hour),
		Fields:    normalize(fields),
	}
}

// normalize converte os inteiros literais para float64, como após um JSON decode.
func normalize(fields map[string]interface{}) map[string]interface{} {
	for k, v := range fields {
		if n, ok := v.(int); ok {
			fields[k] = float64(n)
		}
	}
	return fields
}
