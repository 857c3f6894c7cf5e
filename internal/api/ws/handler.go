package ws

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/api/middleware"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Message is what the server sends.
type Message struct {
	Type         string          `json:"type"`
	Message      string          `json:"message,omitempty"`
	SubscriberID id.SubscriberID `json:"subscriber_id,omitempty"`
	Serials      []string        `json:"serials,omitempty"`
	Event        *events.Event   `json:"event,omitempty"`
	Timestamp    int64           `json:"timestamp"`
}

// ClientMessage is what clients send.
type ClientMessage struct {
	Type    string   `json:"type"`
	Serials []string `json:"serials,omitempty"`
}

// Handler streams lifecycle events over WebSocket connections.
type Handler struct {
	bus      *events.Bus
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a handler. Browser connections are accepted from
// loopback origins only; clients that send no Origin are accepted.
func NewHandler(bus *events.Bus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bus:    bus,
		logger: logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.IsLocalOrigin(origin)
			},
		},
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// filter limits delivery to a set of serials; nil means everything.
type filter struct {
	serials atomic.Pointer[map[string]struct{}]
}

func (f *filter) set(serials []string) {
	if len(serials) == 0 {
		f.serials.Store(nil)
		return
	}
	m := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		m[s] = struct{}{}
	}
	f.serials.Store(&m)
}

// wants reports whether e should be delivered. Events without a serial,
// such as global policy changes, always are.
func (f *filter) wants(e events.Event) bool {
	m := f.serials.Load()
	if m == nil || e.Serial == "" {
		return true
	}
	_, ok := (*m)[e.Serial]
	return ok
}

// HandleConnection upgrades the request and streams events until the
// client goes away or the bus closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	subID, stream, cancel := h.bus.Subscribe()
	defer cancel()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	log := h.logger.With(zap.String("subscriber_id", subID.String()))
	log.Debug("stream client connected", zap.String("remote", c.ClientIP()))

	var (
		f       filter
		out     = make(chan Message, 8)
		done    = make(chan struct{})
		written = make(chan struct{})
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(written)
		h.writeLoop(conn, stream, out, done, &f, log)
	}()

	send := func(m Message) {
		select {
		case out <- m:
		case <-written:
		}
	}
	send(Message{Type: "system", Message: "connected", SubscriberID: subID})

	h.readLoop(conn, &f, send, log)
	close(done)
	wg.Wait()
	log.Debug("stream client disconnected")
}

func (h *Handler) readLoop(conn *websocket.Conn, f *filter, send func(Message), log *zap.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "ping":
			send(Message{Type: "pong"})
		case "subscribe":
			f.set(msg.Serials)
			send(Message{Type: "subscribed", Serials: msg.Serials})
		default:
			send(Message{Type: "error", Message: "unknown message type"})
		}
	}
}

// writeLoop owns every write to conn.
func (h *Handler) writeLoop(conn *websocket.Conn, stream <-chan events.Event, out <-chan Message, done <-chan struct{}, f *filter, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(m Message) bool {
		m.Timestamp = time.Now().Unix()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			// Unblock the reader.
			conn.Close()
			return false
		}
		return true
	}
	closeWith := func(code int, text string) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	}

	for {
		select {
		case <-done:
			return
		case m := <-out:
			if !write(m) {
				return
			}
		case e, ok := <-stream:
			if !ok {
				closeWith(websocket.CloseGoingAway, "server shutting down")
				conn.Close()
				return
			}
			if !f.wants(e) {
				continue
			}
			if !write(Message{Type: "event", Event: &e}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
