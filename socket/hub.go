package socket

import (
	"context"
	"encoding/json"
	"sync"

	"summarymaker/internal/document/model"
	"summarymaker/pkg/logger"
	"summarymaker/pkg/metrics"
)

const (
	SubscribedType      = "SUBSCRIBED"       // Sent once the client has joined a document room
	DocumentUpdatedType = "DOCUMENT_UPDATED" // A PATCH was persisted
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans document update events out to the clients subscribed to each document.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	mu   sync.Mutex
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns room membership until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for docID, clients := range h.Rooms {
				for client := range clients {
					close(client.Send)
					metrics.Subscribers.Dec()
				}
				delete(h.Rooms, docID)
			}
			h.mu.Unlock()
			logger.Sugar.Info("Websocket hub stopped")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.DocID] == nil {
				h.Rooms[client.DocID] = make(map[*Client]bool)
			}
			h.Rooms[client.DocID][client] = true
			h.mu.Unlock()
			metrics.Subscribers.Inc()

			ack, _ := json.Marshal(WSMessage{Type: SubscribedType, DocID: client.DocID, UserID: client.UserID})
			client.Send <- ack

		case client := <-h.Unregister:
			h.remove(client)

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[msg.DocID]))
			for client := range h.Rooms[msg.DocID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// The client is lagging; drop it rather than block the hub.
					logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
					h.remove(client)
				}
			}
		}
	}
}

// DocumentUpdated queues an update event for the document's subscribers.
// It never blocks; events are dropped when the hub is saturated.
func (h *Hub) DocumentUpdated(view model.DocumentView) {
	payload, err := json.Marshal(view)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling update for doc %s: %v", view.ID, err)
		return
	}
	msg := WSMessage{Type: DocumentUpdatedType, DocID: view.ID, UserID: view.CreatedBy, Payload: payload}
	select {
	case h.Broadcast <- msg:
	default:
		logger.Sugar.Warnf("Hub broadcast queue full, dropping update for doc %s", view.ID)
	}
}

// Subscribers returns the number of clients following docID.
func (h *Hub) Subscribers(docID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[docID])
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Rooms[client.DocID][client]; !ok {
		return
	}
	delete(h.Rooms[client.DocID], client)
	close(client.Send)
	metrics.Subscribers.Dec()
	if len(h.Rooms[client.DocID]) == 0 {
		delete(h.Rooms, client.DocID)
		logger.Sugar.Debugf("Closed empty room: %s", client.DocID)
	}
}
