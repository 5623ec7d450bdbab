// Package ws mantém as ligações websocket do dashboard e distribui as actualizações.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

// Message é o envelope enviado aos clientes.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client é uma ligação aberta de um utilizador autenticado.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	Principal access.Principal
}

// Hub regista os clientes e envia-lhes mensagens.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     logger.Logger
}

// NewHub cria o hub. Run tem de estar a correr para aceitar clientes.
func NewHub(logger logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// O token já foi validado pelo middleware; a origem não acrescenta nada.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Run processa registos até o contexto terminar; nessa altura fecha todas as ligações.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Cliente websocket ligado.", map[string]interface{}{"user": client.Principal.Name, "clients": total})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Cliente websocket desligado.", map[string]interface{}{"user": client.Principal.Name, "clients": total})

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Count devolve o número de clientes ligados.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast envia a cada cliente a mensagem construída para o seu principal.
// build devolve false para não enviar nada a esse cliente. Um cliente com o
// buffer cheio é desligado.
func (h *Hub) Broadcast(build func(p access.Principal) (Message, bool)) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		msg, ok := build(client.Principal)
		if !ok {
			continue
		}
		data, err := json.Marshal(msg)
		if err != nil {
			h.logger.Error("Falha ao serializar mensagem websocket.", err)
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Cliente websocket lento; a desligar.", map[string]interface{}{"user": client.Principal.Name})
			go h.drop(client)
		}
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeWs promove o pedido a websocket e regista o cliente.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, p access.Principal) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade já respondeu ao cliente.
		h.logger.Warn("Falha no upgrade websocket.", map[string]interface{}{"error": err.Error()})
		return
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		Principal: p,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump apenas lê para detectar a desconexão e responder aos pongs.
func (h *Hub) readPump(c *Client) {
	defer h.drop(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
