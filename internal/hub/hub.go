package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/healthtracker/healthtracker/internal/middleware"
	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	TargetSendMessageToUser = "SendMessageToUser"
	TargetReceiveMessage    = "ReceiveMessage"

	maxFrameSize = 16 * 1024
)

// Frame is the envelope for both directions on the chat socket.
type Frame struct {
	Target    string            `json:"target"`
	Arguments []json.RawMessage `json:"arguments"`
}

// MessageCreator persists chat messages; *services.ChatService implements it.
type MessageCreator interface {
	CreateMessage(ctx context.Context, req *services.CreateMessageRequest) (*models.Message, error)
}

type Options struct {
	SendBuffer   int
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Client is one live connection. A user may hold several.
type Client struct {
	userID uint
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks live connections per user and pushes chat frames to them.
// Delivery is best effort: a client whose buffer is full misses the frame.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*Client]struct{}
	messages MessageCreator
	logger   *logger.Logger
	opts     Options
	upgrader websocket.Upgrader
}

func NewHub(messages MessageCreator, logger *logger.Logger, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	return &Hub{
		clients:  make(map[uint]map[*Client]struct{}),
		messages: messages,
		logger:   logger,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) newClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, h.opts.SendBuffer),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

// Unregister is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser queues payload on every connection of userID without blocking
// and returns how many connections accepted it.
func (h *Hub) SendToUser(userID uint, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
			delivered++
		default:
			h.logger.WithField("user_id", userID).Warn("Chat client buffer full, dropping frame")
		}
	}
	return delivered
}

// SendMessageToUser persists the message, then pushes ReceiveMessage to both
// participants. Failures are logged and swallowed; the caller gets no reply.
func (h *Hub) SendMessageToUser(ctx context.Context, callerID, fromID, toID uint, text string) {
	log := h.logger.WithFields(logrus.Fields{
		"caller_id": callerID,
		"from":      fromID,
		"to":        toID,
	})

	if callerID != fromID {
		log.Warn("Rejected chat message sent on behalf of another user")
		return
	}

	message, err := h.messages.CreateMessage(ctx, &services.CreateMessageRequest{
		UserIDFrom: fromID,
		UserIDTo:   toID,
		Text:       text,
	})
	if err != nil {
		log.WithError(err).Error("Failed to persist chat message")
		return
	}

	h.PushMessage(message)
}

// PushMessage delivers ReceiveMessage for a stored message to every live
// connection of sender and recipient.
func (h *Hub) PushMessage(message *models.Message) {
	payload, err := EncodeFrame(TargetReceiveMessage, message.ID, message.UserIDFrom, message.UserIDTo, message.Text)
	if err != nil {
		h.logger.WithError(err).WithField("message_id", message.ID).Error("Failed to encode chat frame")
		return
	}

	h.SendToUser(message.UserIDTo, payload)
	if message.UserIDFrom != message.UserIDTo {
		h.SendToUser(message.UserIDFrom, payload)
	}
}

// HandleFrame dispatches one inbound frame from an authenticated client.
func (h *Hub) HandleFrame(ctx context.Context, callerID uint, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.WithError(err).WithField("user_id", callerID).Warn("Malformed chat frame")
		return
	}

	switch frame.Target {
	case TargetSendMessageToUser:
		fromID, toID, text, err := decodeSendArgs(frame.Arguments)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", callerID).Warn("Invalid SendMessageToUser arguments")
			return
		}
		h.SendMessageToUser(ctx, callerID, fromID, toID, text)
	default:
		h.logger.WithFields(logrus.Fields{
			"user_id": callerID,
			"target":  frame.Target,
		}).Warn("Unknown chat target")
	}
}

// ServeWS upgrades an authenticated request and runs the connection until it closes.
func (h *Hub) ServeWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := h.newClient(userID, conn)
	h.Register(client)
	h.logger.WithField("user_id", userID).Debug("Chat client connected")

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) readPump(c *Client) {
	defer func() {
		h.Unregister(c)
		h.logger.WithField("user_id", c.userID).Debug("Chat client disconnected")
	}()

	c.conn.SetReadLimit(maxFrameSize)
	pongWait := h.opts.PingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.HandleFrame(context.Background(), c.userID, data)
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.Unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(c)
				return
			}
		}
	}
}

func EncodeFrame(target string, args ...interface{}) ([]byte, error) {
	raw := make([]json.RawMessage, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal argument %d: %w", i, err)
		}
		raw[i] = b
	}
	return json.Marshal(Frame{Target: target, Arguments: raw})
}

func decodeSendArgs(args []json.RawMessage) (uint, uint, string, error) {
	if len(args) != 3 {
		return 0, 0, "", errors.New("expected 3 arguments")
	}
	var fromID, toID uint
	var text string
	if err := json.Unmarshal(args[0], &fromID); err != nil {
		return 0, 0, "", fmt.Errorf("invalid fromId: %w", err)
	}
	if err := json.Unmarshal(args[1], &toID); err != nil {
		return 0, 0, "", fmt.Errorf("invalid toId: %w", err)
	}
	if err := json.Unmarshal(args[2], &text); err != nil {
		return 0, 0, "", fmt.Errorf("invalid text: %w", err)
	}
	return fromID, toID, text, nil
}
