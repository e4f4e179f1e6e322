// Package websocket pushes live updates to connected portal clients. Clients
// subscribe to topics (a user's feed or an appointment room) and receive the
// events published to them; appointment rooms also relay consultation chat.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/swasthya/setu/internal/platform/auth"
)

const (
	userTopicPrefix        = "user/"
	appointmentTopicPrefix = "appointment/"

	// EventChatMessage is the event type for relayed consultation chat.
	EventChatMessage = "chat.message"

	maxChatLength  = 2000
	maxMessageSize = 8 << 10
	sendBuffer     = 256
)

// UserTopic is the personal feed of a user.
func UserTopic(userID string) string { return userTopicPrefix + userID }

// AppointmentTopic is the room shared by the two parties of an appointment.
func AppointmentTopic(appointmentID string) string { return appointmentTopicPrefix + appointmentID }

// Event is a message pushed to subscribers of a topic.
type Event struct {
	Type       string          `json:"type"`
	Topic      string          `json:"topic"`
	Resource   string          `json:"resource,omitempty"`
	ResourceID string          `json:"resourceId,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event, encoding payload as its data.
func NewEvent(topic, eventType, resource, resourceID string, payload interface{}) Event {
	ev := Event{
		Type:       eventType,
		Topic:      topic,
		Resource:   resource,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Data = data
		} else {
			log.Warn().Err(err).Str("type", eventType).Msg("websocket: failed to encode event payload")
		}
	}
	return ev
}

// ClientMessage is an inbound message from a client. Subscribe and
// unsubscribe use Topics; chat uses Topic and Text.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics,omitempty"`
	Topic  string   `json:"topic,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type chatPayload struct {
	From string `json:"from"`
	Role string `json:"role"`
	Text string `json:"text"`
}

// EventPublisher is implemented by anything that can fan events out.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TopicGuard decides whether a user may join a topic.
type TopicGuard func(ctx context.Context, userID, role, topic string) bool

// AppointmentMembership reports whether a user is a party to an appointment.
type AppointmentMembership func(ctx context.Context, userID, role, appointmentID string) bool

// NewTopicGuard allows users their own feed and the rooms of appointments
// they take part in. Admins may join anything.
func NewTopicGuard(member AppointmentMembership) TopicGuard {
	return func(ctx context.Context, userID, role, topic string) bool {
		if role == auth.RoleAdmin {
			return true
		}
		switch {
		case strings.HasPrefix(topic, userTopicPrefix):
			return userID != "" && topic == UserTopic(userID)
		case strings.HasPrefix(topic, appointmentTopicPrefix):
			id := strings.TrimPrefix(topic, appointmentTopicPrefix)
			return id != "" && member != nil && member(ctx, userID, role, id)
		}
		return false
	}
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single connection.
type Client struct {
	ID     string
	UserID string
	Role   string
	Topics []string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub tracks clients and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> subscribers
	all     map[*Client]struct{}
	guard   TopicGuard
}

// NewHub creates a hub. A nil guard admits every subscription.
func NewHub(guard TopicGuard) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		guard:   guard,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addLocked(client, topic)
	}
}

func (h *Hub) addLocked(client *Client, topic string) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(client *Client, topic string) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(client, topic)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds the topics the guard admits and returns the ones refused.
func (h *Hub) Subscribe(ctx context.Context, client *Client, topics []string) []string {
	var allowed, denied []string
	for _, topic := range topics {
		if h.guard != nil && !h.guard(ctx, client.UserID, client.Role, topic) {
			denied = append(denied, topic)
			continue
		}
		allowed = append(allowed, topic)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range allowed {
		if _, already := h.clients[topic][client]; already {
			continue
		}
		h.addLocked(client, topic)
		client.Topics = append(client.Topics, topic)
	}
	return denied
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		drop[t] = struct{}{}
		h.removeLocked(client, t)
	}

	remaining := client.Topics[:0]
	for _, t := range client.Topics {
		if _, rm := drop[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) subscribed(client *Client, topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[topic][client]
	return ok
}

// ProcessMessage dispatches an inbound client message.
func (h *Hub) ProcessMessage(ctx context.Context, client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if denied := h.Subscribe(ctx, client, msg.Topics); len(denied) > 0 {
			h.sendTo(client, NewEvent("", "subscribe.denied", "", "", map[string][]string{"topics": denied}))
		}
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	case "chat":
		h.relayChat(client, msg)
	}
}

// relayChat forwards a chat line to an appointment room the sender has
// joined. Messages are not stored.
func (h *Hub) relayChat(client *Client, msg ClientMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" || len(text) > maxChatLength {
		return
	}
	if !strings.HasPrefix(msg.Topic, appointmentTopicPrefix) || !h.subscribed(client, msg.Topic) {
		return
	}
	id := strings.TrimPrefix(msg.Topic, appointmentTopicPrefix)
	h.Broadcast(msg.Topic, NewEvent(msg.Topic, EventChatMessage, "appointment", id,
		chatPayload{From: client.UserID, Role: client.Role, Text: text}))
}

func (h *Hub) sendTo(client *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.all[client]; !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// Broadcast sends an event to every subscriber of topic. Slow clients whose
// buffer is full miss the event.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("websocket: failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
		default:
			log.Debug().Str("client", client.ID).Str("topic", topic).Msg("websocket: send buffer full, dropping event")
		}
	}
}

// Publish broadcasts the event to its own topic.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event.Topic, event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// HTTP upgrade handler
// ---------------------------------------------------------------------------

// WebSocketHandler upgrades authenticated requests and pumps messages.
type WebSocketHandler struct {
	hub      *Hub
	upgrader gorillawebsocket.Upgrader
}

// NewWebSocketHandler binds a handler to hub. With no origins every origin
// is accepted.
func NewWebSocketHandler(hub *Hub, origins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

func (wsh *WebSocketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades the connection and subscribes the client to its
// own feed.
func (wsh *WebSocketHandler) HandleConnect(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	ws.SetReadLimit(maxMessageSize)

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Role:   auth.RoleFromContext(ctx),
		Topics: []string{UserTopic(userID)},
		Send:   make(chan []byte, sendBuffer),
		hub:    wsh.hub,
		conn:   ws,
	}
	wsh.hub.Register(client)
	log.Debug().Str("client", client.ID).Str("user_id", userID).Msg("websocket: client connected")

	go wsh.writePump(client)
	go wsh.readPump(client)
	return nil
}

func (wsh *WebSocketHandler) readPump(client *Client) {
	defer func() {
		wsh.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		wsh.hub.ProcessMessage(context.Background(), client, msg)
	}
}

func (wsh *WebSocketHandler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}
