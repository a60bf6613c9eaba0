package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"parking_finder/internal/domain"
	"parking_finder/internal/logger"
	"parking_finder/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Cho phép kết nối từ mọi nguồn
	},
}

const (
	MessageFrame        = "frame"
	MessageNotification = "notification"
	MessageIntent       = "intent"
	MessageIntentResult = "intent_result"
	MessageError        = "error"
)

// Envelope is every message exchanged over the socket.
type Envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// IntentDispatcher handles selections sent by clients.
type IntentDispatcher interface {
	Dispatch(ctx context.Context, in domain.Intent) (domain.IntentResult, error)
}

type wsClient struct {
	id   string
	conn *websocket.Conn
}

type directMessage struct {
	client  *wsClient
	payload []byte
}

const writeWait = 10 * time.Second

// WebSocketManager is a presentation target: every frame and notification is pushed to all
// connected clients. All writes happen on the Start goroutine.
//
// Frames are coalesced: SetData only replaces lastFrame and raises frameReady, so a busy hub
// skips intermediate frames but always delivers the newest one.
type WebSocketManager struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	frameReady chan struct{}
	direct     chan directMessage
	done       chan struct{}
	mutex      sync.RWMutex
	lastFrame  []byte
	writeWait  time.Duration
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		frameReady: make(chan struct{}, 1),
		direct:     make(chan directMessage, 64),
		done:       make(chan struct{}),
		writeWait:  writeWait,
	}
}

func (wsm *WebSocketManager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(wsm.done)
			wsm.mutex.Lock()
			for client := range wsm.clients {
				client.conn.Close()
				delete(wsm.clients, client)
			}
			wsm.mutex.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			total := len(wsm.clients)
			last := wsm.lastFrame
			wsm.mutex.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			logger.L().Info("ws_client_connected", "client", client.id, "total", total)
			// a new client starts from the current frame
			if last != nil {
				wsm.write(client, last)
			}

		case client := <-wsm.unregister:
			wsm.drop(client)

		case <-wsm.frameReady:
			wsm.mutex.RLock()
			last := wsm.lastFrame
			wsm.mutex.RUnlock()
			wsm.writeAll(last)

		case message := <-wsm.broadcast:
			wsm.writeAll(message)

		case m := <-wsm.direct:
			wsm.mutex.RLock()
			_, ok := wsm.clients[m.client]
			wsm.mutex.RUnlock()
			if ok {
				wsm.write(m.client, m.payload)
			}
		}
	}
}

func (wsm *WebSocketManager) writeAll(message []byte) {
	wsm.mutex.RLock()
	targets := make([]*wsClient, 0, len(wsm.clients))
	for client := range wsm.clients {
		targets = append(targets, client)
	}
	wsm.mutex.RUnlock()
	for _, client := range targets {
		wsm.write(client, message)
	}
}

// write drops the client when it cannot take the message within writeWait.
func (wsm *WebSocketManager) write(client *wsClient, message []byte) {
	err := client.conn.SetWriteDeadline(time.Now().Add(wsm.writeWait))
	if err == nil {
		err = client.conn.WriteMessage(websocket.TextMessage, message)
	}
	if err != nil {
		logger.L().Warn("ws_write_failed", "client", client.id, "err", err)
		wsm.drop(client)
	}
}

func (wsm *WebSocketManager) drop(client *wsClient) {
	wsm.mutex.Lock()
	_, ok := wsm.clients[client]
	if ok {
		delete(wsm.clients, client)
		client.conn.Close()
	}
	total := len(wsm.clients)
	wsm.mutex.Unlock()
	if ok {
		metrics.WebSocketClients.Set(float64(total))
		logger.L().Info("ws_client_disconnected", "client", client.id, "total", total)
	}
}

// SetData publishes a frame. It never blocks and never loses the newest frame.
func (wsm *WebSocketManager) SetData(frame domain.Frame) {
	message, err := encode(MessageFrame, frame)
	if err != nil {
		logger.L().Error("ws_encode_failed", "type", MessageFrame, "err", err)
		return
	}
	wsm.mutex.Lock()
	wsm.lastFrame = message
	wsm.mutex.Unlock()
	select {
	case wsm.frameReady <- struct{}{}:
	default:
		// a signal is already pending; it will pick up this frame
	}
}

func (wsm *WebSocketManager) Notify(n domain.Notification) {
	message, err := encode(MessageNotification, n)
	if err != nil {
		logger.L().Error("ws_encode_failed", "type", MessageNotification, "err", err)
		return
	}
	wsm.send(message)
}

func (wsm *WebSocketManager) ClientCount() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.clients)
}

func (wsm *WebSocketManager) send(message []byte) {
	select {
	case wsm.broadcast <- message:
	default:
		logger.L().Warn("ws_broadcast_full", "dropped_bytes", len(message))
	}
}

func (wsm *WebSocketManager) reply(client *wsClient, message []byte) {
	select {
	case wsm.direct <- directMessage{client: client, payload: message}:
	default:
		logger.L().Warn("ws_direct_full", "client", client.id)
	}
}

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Data: data})
}

type WebSocketHandler struct {
	wsManager  *WebSocketManager
	dispatcher IntentDispatcher
}

func NewWebSocketHandler(wsManager *WebSocketManager, dispatcher IntentDispatcher) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager, dispatcher: dispatcher}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Warn("ws_upgrade_failed", "err", err)
		return
	}
	client := &wsClient{id: uuid.NewString(), conn: conn}
	select {
	case h.wsManager.register <- client:
	case <-h.wsManager.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.wsManager.unregister <- client:
			case <-h.wsManager.done:
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.L().Warn("ws_read_failed", "client", client.id, "err", err)
				}
				return
			}
			h.handleMessage(client, data)
		}
	}()
}

func (h *WebSocketHandler) handleMessage(client *wsClient, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != MessageIntent {
		h.replyError(client, "unsupported message")
		return
	}
	var in domain.Intent
	if err := json.Unmarshal(env.Data, &in); err != nil || in.ID == 0 || in.Action == "" {
		h.replyError(client, "invalid intent")
		return
	}
	res, err := h.dispatcher.Dispatch(context.Background(), in)
	if err != nil {
		h.replyError(client, err.Error())
		return
	}
	message, err := encode(MessageIntentResult, res)
	if err != nil {
		logger.L().Error("ws_encode_failed", "type", MessageIntentResult, "err", err)
		return
	}
	h.wsManager.reply(client, message)
}

func (h *WebSocketHandler) replyError(client *wsClient, msg string) {
	message, err := json.Marshal(Envelope{Type: MessageError, Error: msg})
	if err != nil {
		return
	}
	h.wsManager.reply(client, message)
}
