package preview

import (
	"encoding/json"
	"log/slog"
	"sync"
)

type room struct {
	projectID string
	clients   map[string]*Client // clientID -> client

	// lastDoc replays the most recent sync to late joiners.
	lastDoc json.RawMessage
}

func newRoom(projectID string) *room {
	return &room{
		projectID: projectID,
		clients:   make(map[string]*Client),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[client.ProjectID]
	if !ok {
		rm = newRoom(client.ProjectID)
		h.rooms[client.ProjectID] = rm
	}
	rm.clients[client.ClientID] = client
	lastDoc := rm.lastDoc
	count := len(rm.clients)
	h.mu.Unlock()

	// Late joiners catch up on the current document immediately.
	if lastDoc != nil && !client.Host {
		client.Send(&Message{Type: TypeDocSync, ProjectID: client.ProjectID, Payload: lastDoc})
	}
	h.broadcastWatchers(client.ProjectID, count)

	slog.Info("preview client joined", "project", client.ProjectID, "host", client.Host)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(rm.clients, client.ClientID)
	client.shutdown()
	count := len(rm.clients)
	if count == 0 {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	if count > 0 {
		h.broadcastWatchers(client.ProjectID, count)
	}
	slog.Info("preview client left", "project", client.ProjectID)
}

// handleMessage routes host messages to watchers. Messages from non-host
// clients are dropped; watching is read-only.
func (h *Hub) handleMessage(sender *Client, msg *Message) {
	if !sender.Host {
		slog.Warn("watcher attempted to publish", "project", sender.ProjectID, "type", msg.Type)
		return
	}

	switch msg.Type {
	case TypeDocSync:
		h.mu.Lock()
		if rm, ok := h.rooms[sender.ProjectID]; ok {
			rm.lastDoc = msg.Payload
		}
		h.mu.Unlock()
		h.broadcastToRoom(sender.ProjectID, msg, sender.ClientID)
	case TypeSlideChange:
		h.broadcastToRoom(sender.ProjectID, msg, sender.ClientID)
	default:
		slog.Warn("unknown preview message type", "type", msg.Type)
	}
}

func (h *Hub) broadcastWatchers(projectID string, count int) {
	payload, _ := json.Marshal(WatchersPayload{Count: count})
	h.broadcastToRoom(projectID, &Message{
		Type:      TypeWatchers,
		ProjectID: projectID,
		Payload:   payload,
	}, "")
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	rm, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(rm.clients))
	for _, c := range rm.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
