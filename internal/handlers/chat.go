package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"solcases-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	maxChatMessageLen = 100
	chatCooldown      = time.Second
	chatReplayCount   = 20

	// clientSendBuffer bounds the per-connection outbound queue; a
	// client that cannot keep up loses messages rather than blocking
	// the hub.
	clientSendBuffer = 32
)

type ChatHandler struct {
	redisService *services.RedisService
	hub          *ChatHub
}

type ChatHub struct {
	clients    map[*ChatClient]bool
	register   chan *ChatClient
	unregister chan *ChatClient
	broadcast  chan *ChatMessage
}

type ChatClient struct {
	UserID   string
	Username string
	Level    int

	conn *websocket.Conn

	// send is the only path to the connection; the write pump is the
	// single writer, as gorilla connections forbid concurrent writes.
	send chan interface{}

	lastMessageTime time.Time
}

type ChatMessage struct {
	Type      string `json:"type"`
	Username  string `json:"username,omitempty"`
	Content   string `json:"content,omitempty"`
	Level     int    `json:"level,omitempty"`
	Count     int    `json:"count,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func newChatHub() *ChatHub {
	return &ChatHub{
		clients:    make(map[*ChatClient]bool),
		register:   make(chan *ChatClient),
		unregister: make(chan *ChatClient),
		broadcast:  make(chan *ChatMessage, 100),
	}
}

func NewChatHandler(redisService *services.RedisService) *ChatHandler {
	hub := newChatHub()
	go hub.run()

	return &ChatHandler{
		redisService: redisService,
		hub:          hub,
	}
}

func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &ChatClient{
		UserID:   userID,
		Username: fmt.Sprintf("Player%d", time.Now().UnixNano()%9999+1),
		Level:    1,
		conn:     conn,
		send:     make(chan interface{}, clientSendBuffer),
	}

	go client.writePump()

	if wallet, err := h.redisService.GetWallet(userID); err == nil && wallet.Username != "" {
		client.Username = wallet.Username
		client.enqueue(ChatMessage{Type: "username_loaded", Username: wallet.Username})
	}
	if state, err := h.redisService.GetProgress(userID); err == nil {
		client.Level = state.Level
	}

	h.hub.register <- client

	// The hub owns the send channel from here; it is closed on
	// unregister, which ends the write pump.
	defer func() {
		h.hub.unregister <- client
	}()

	h.sendHistory(client)

	for {
		var msg struct {
			Type     string `json:"type"`
			Content  string `json:"content"`
			Username string `json:"username"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		switch msg.Type {
		case "chat_message":
			h.handleChatMessage(client, msg.Content)
		case "username_update":
			h.handleUsernameUpdate(client, msg.Username)
		}
	}
}

// writePump drains the send channel onto the connection. It is the
// connection's sole writer and exits when the hub closes the channel.
func (c *ChatClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// enqueue queues a message for the client, dropping it if the client's
// buffer is full.
func (c *ChatClient) enqueue(msg interface{}) {
	select {
	case c.send <- msg:
	default:
	}
}

func (h *ChatHandler) sendHistory(client *ChatClient) {
	raw, err := h.redisService.RecentChatMessages(chatReplayCount)
	if err != nil {
		return
	}

	messages := make([]ChatMessage, 0, len(raw))
	for _, r := range raw {
		var m ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err == nil {
			messages = append(messages, m)
		}
	}

	client.enqueue(gin.H{
		"type":     "chat_history",
		"messages": messages,
	})
}

func (h *ChatHandler) handleChatMessage(client *ChatClient, content string) {
	if content == "" || len(content) > maxChatMessageLen {
		client.enqueue(ChatMessage{
			Type:    "system",
			Content: fmt.Sprintf("Message too long! Maximum %d characters allowed.", maxChatMessageLen),
		})
		return
	}

	now := time.Now()
	if !client.lastMessageTime.IsZero() && now.Sub(client.lastMessageTime) < chatCooldown {
		client.enqueue(ChatMessage{
			Type:    "system",
			Content: "Please wait 1 second between messages.",
		})
		return
	}
	client.lastMessageTime = now

	msg := &ChatMessage{
		Type:      "user",
		Username:  client.Username,
		Content:   filterChatMessage(content),
		Level:     client.Level,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	if data, err := json.Marshal(msg); err == nil {
		h.redisService.AppendChatMessage(data)
	}

	h.hub.broadcast <- msg
}

func (h *ChatHandler) handleUsernameUpdate(client *ChatClient, username string) {
	if username == "" || len(username) > 20 {
		return
	}

	oldUsername := client.Username
	client.Username = username

	if wallet, err := h.redisService.GetWallet(client.UserID); err == nil {
		wallet.Username = username
		h.redisService.SaveWallet(wallet)
	}

	h.hub.broadcast <- &ChatMessage{
		Type:      "system",
		Content:   fmt.Sprintf("%s is now known as %s", oldUsername, username),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (hub *ChatHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true
			hub.broadcastOnlineCount()

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				hub.broadcastOnlineCount()
			}

		case message := <-hub.broadcast:
			for client := range hub.clients {
				client.enqueue(message)
			}
		}
	}
}

func (hub *ChatHub) broadcastOnlineCount() {
	msg := &ChatMessage{Type: "online_count", Count: len(hub.clients)}
	for client := range hub.clients {
		client.enqueue(msg)
	}
}

// blockedWords are masked in chat; matching is case-insensitive on word
// boundaries. The list is deliberately short, moderation happens upstream.
var blockedWords = []string{"scam", "phishing", "seedphrase", "privatekey"}

var blockedPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(blockedWords))
	for _, w := range blockedWords {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return patterns
}()

func filterChatMessage(content string) string {
	filtered := strings.ToLower(content)
	replaced := false
	for _, p := range blockedPatterns {
		if p.MatchString(filtered) {
			filtered = p.ReplaceAllString(filtered, "***")
			replaced = true
		}
	}
	if replaced {
		return filtered
	}
	return content
}
