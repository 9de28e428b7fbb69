package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrHubClosed is returned when a client arrives after the hub stopped.
var ErrHubClosed = errors.New("websocket hub is closed")

type directMessage struct {
	userID uint64
	data   []byte
}

// Hub owns every connected client. All map access happens inside Run.
type Hub struct {
	clients     map[*Client]struct{}
	userClients map[uint64]map[*Client]struct{}
	broadcast   chan []byte
	direct      chan directMessage
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		userClients: make(map[uint64]map[*Client]struct{}),
		broadcast:   make(chan []byte, 256),
		direct:      make(chan directMessage, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		logger:      logger.Named("ws-hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
			if h.userClients[client.UserID] == nil {
				h.userClients[client.UserID] = make(map[*Client]struct{})
			}
			h.userClients[client.UserID][client] = struct{}{}
			h.logger.Debug("client registered", zap.Uint64("userID", client.UserID))
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		case msg := <-h.direct:
			for client := range h.userClients[msg.userID] {
				h.deliver(client, msg.data)
			}
		}
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("dropping slow client", zap.Uint64("userID", client.UserID))
		h.remove(client)
	}
}

// RegisterClient hands the client to Run. It fails with ErrHubClosed once Run
// has returned instead of blocking.
func (h *Hub) RegisterClient(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// Unregister is safe to call after Run has returned.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	if set := h.userClients[client.UserID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
}

func encode(messageType string, payload interface{}) ([]byte, error) {
	b, err := json.Marshal(Envelope{Type: messageType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal websocket envelope: %w", err)
	}
	return b, nil
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, payload interface{}) error {
	b, err := encode(messageType, payload)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- b:
		return nil
	default:
		return fmt.Errorf("broadcast queue full, %s dropped", messageType)
	}
}

// SendMessageToUser queues a message for every connection of one user.
func (h *Hub) SendMessageToUser(userID uint64, payload interface{}, messageType string) error {
	b, err := encode(messageType, payload)
	if err != nil {
		return err
	}
	select {
	case h.direct <- directMessage{userID: userID, data: b}:
		return nil
	default:
		return fmt.Errorf("direct queue full, %s for user %d dropped", messageType, userID)
	}
}
