package dashboardservice

import (
	"context"
	"encoding/json"
	"time"

	"gosigo/internal/domain"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/cache"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/ws"
)

// SummaryCacheKey guarda no Redis o último resumo calculado.
const SummaryCacheKey = "dashboard:summary"

// Broadcaster envia mensagens aos clientes websocket.
type Broadcaster interface {
	Broadcast(build func(p access.Principal) (ws.Message, bool))
}

// Poller recalcula os totais a intervalos fixos e publica-os.
// Uma falha é registada e ignorada; o próximo ciclo tenta de novo.
type Poller struct {
	svc      *Service
	hub      Broadcaster
	cache    cache.Client // opcional
	interval time.Duration
	logger   logger.Logger
}

// NewPoller cria o poller. hub e c podem ser nil.
func NewPoller(svc *Service, hub Broadcaster, c cache.Client, interval time.Duration, logger logger.Logger) *Poller {
	return &Poller{
		svc:      svc,
		hub:      hub,
		cache:    c,
		interval: interval,
		logger:   logger,
	}
}

// Run corre um ciclo imediato e depois um por intervalo, até o contexto terminar.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick executa um ciclo: calcula, guarda e difunde.
func (p *Poller) Tick(ctx context.Context) {
	sum, err := p.svc.Totals(ctx)
	if err != nil {
		p.logger.Warn("Falha ao actualizar os totais do dashboard.", map[string]interface{}{"error": err.Error()})
		return
	}

	if p.cache != nil {
		if data, err := json.Marshal(sum); err == nil {
			if err := p.cache.Set(ctx, SummaryCacheKey, data, 2*p.interval); err != nil {
				p.logger.Warn("Falha ao gravar o resumo na cache.", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if p.hub != nil {
		p.hub.Broadcast(func(pr access.Principal) (ws.Message, bool) {
			if !access.CanView(pr, domain.ViewDashboard) {
				return ws.Message{}, false
			}
			return ws.Message{Type: "summary", Data: ForPrincipal(sum, pr)}, true
		})
	}
}

