package idgen

import (
	"sync"
	"time"
)

// Generator produz ids numéricos a partir do relógio em milissegundos.
// Cada id é max(agora, último+1): estritamente crescente dentro do processo e
// ordenável pela hora de criação, que é o que as tabelas usam para "mais recente".
// Dois processos a escrever no mesmo armazenamento ainda podem colidir.
type Generator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New cria um gerador com o relógio do sistema.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock cria um gerador com relógio injectado (testes).
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next devolve o próximo id.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe avança o gerador para lá de um id já existente, para que ids
// carregados de um snapshot não sejam reutilizados após reinício com relógio atrasado.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
