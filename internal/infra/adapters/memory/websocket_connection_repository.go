package memory

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/application/metric"
)

const (
	writeWait = 10 * time.Second

	// SendQueueSize сообщений в очереди одного соединения до отключения
	SendQueueSize = 256
)

var (
	errConnClosed   = errors.New("connection closed")
	errBackpressure = errors.New("send queue is full")
)

// WebsocketConnectionRepository интерфейс для работы с активными соединениями в памяти.
// Запись не блокирует вызывающего: у каждого соединения своя очередь и writePump.
type WebsocketConnectionRepository interface {
	Add(connID string, conn *websocket.Conn)
	Remove(connID string)

	Write(connID string, payload any)
	WriteMany(connIDs []string, payload any)
	Broadcast(payload any, exceptConnIDs ...string)
	GetAllConnected() []string
}

// wsClient сокет и его очередь. Пишет в сокет только writePump.
type wsClient struct {
	connID string
	conn   *websocket.Conn
	send   chan *websocket.PreparedMessage

	mu     sync.RWMutex
	closed bool
}

func newWSClient(connID string, conn *websocket.Conn) *wsClient {
	return &wsClient{
		connID: connID,
		conn:   conn,
		send:   make(chan *websocket.PreparedMessage, SendQueueSize),
	}
}

func (c *wsClient) trySend(msg *websocket.PreparedMessage) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errConnClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errBackpressure
	}
}

// close закрывает очередь и сокет, цикл чтения соединения завершится с ошибкой
func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

func (c *wsClient) writePump() {
	for msg := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			c.close()
			return
		}

		if err := c.conn.WritePreparedMessage(msg); err != nil {
			slog.Debug(
				"write to websocket",
				slog.Any(constant.Error, err),
				slog.String(constant.ConnID, c.connID),
			)
			c.close()
			return
		}
	}
}

type wsConnectionRepository struct {
	// wsConns хранит map[conn_id]*wsClient
	wsConns map[string]*wsClient

	mu sync.RWMutex
}

func NewWSConnectionRepository() WebsocketConnectionRepository {
	return &wsConnectionRepository{
		wsConns: make(map[string]*wsClient, 10),
	}
}

func (w *wsConnectionRepository) Add(connID string, conn *websocket.Conn) {
	client := newWSClient(connID, conn)

	w.mu.Lock()
	old, replaced := w.wsConns[connID]
	w.wsConns[connID] = client
	w.mu.Unlock()

	if replaced {
		old.close()
	} else {
		metric.IncrementWSActiveConnections()
	}

	go client.writePump()
}

func (w *wsConnectionRepository) Remove(connID string) {
	w.mu.Lock()
	client, exists := w.wsConns[connID]
	delete(w.wsConns, connID)
	w.mu.Unlock()

	if exists {
		client.close()

		metric.DecrementWSActiveConnections()
	}
}

func (w *wsConnectionRepository) Write(connID string, payload any) {
	w.WriteMany([]string{connID}, payload)
}

// WriteMany сериализует payload один раз. Неизвестные соединения пропускаются,
// соединение с переполненной очередью закрывается.
func (w *wsConnectionRepository) WriteMany(connIDs []string, payload any) {
	if len(connIDs) == 0 {
		return
	}

	msg, err := prepare(payload)
	if err != nil {
		slog.Error("prepare websocket message", slog.Any(constant.Error, err))
		return
	}

	for _, connID := range connIDs {
		client, ok := w.getClient(connID)
		if !ok {
			continue
		}

		err = client.trySend(msg)

		switch {
		case err == nil, errors.Is(err, errConnClosed):
		case errors.Is(err, errBackpressure):
			slog.Warn("slow websocket consumer, closing", slog.String(constant.ConnID, connID))
			metric.IncrementWSSlowConsumers()
			client.close()
		}
	}
}

func (w *wsConnectionRepository) Broadcast(payload any, exceptConnIDs ...string) {
	all := w.GetAllConnected()

	targets := all[:0]

outer:
	for _, id := range all {
		for _, ex := range exceptConnIDs {
			if id == ex {
				continue outer
			}
		}
		targets = append(targets, id)
	}

	w.WriteMany(targets, payload)
}

func (w *wsConnectionRepository) getClient(connID string) (*wsClient, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	client, ok := w.wsConns[connID]
	return client, ok
}

func (w *wsConnectionRepository) GetAllConnected() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	connIDs := make([]string, 0, len(w.wsConns))

	for connID := range w.wsConns {
		connIDs = append(connIDs, connID)
	}

	return connIDs
}

func prepare(payload any) (*websocket.PreparedMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return websocket.NewPreparedMessage(websocket.TextMessage, data)
}
