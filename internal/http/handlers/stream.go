package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/core/session"
	"github.com/steveyiyo/livebridge/pkg/ws"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler serves the session event stream.
type StreamHandler struct {
	Hub      *ws.Hub
	Sess     *session.Service
	Logger   *zap.Logger
	Upgrader websocket.Upgrader
}

func NewStreamHandler(h *ws.Hub, s *session.Service, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		Hub:    h,
		Sess:   s,
		Logger: logger,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) WS(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	id := "sub_" + uuid.NewString()
	h.Hub.Add(id, conn)
	h.Logger.Debug("event subscriber joined", zap.String("subscriber", id), zap.Int("subscribers", h.Hub.Len()))
	defer func() {
		h.Hub.Remove(id)
		conn.Close()
	}()

	conn.SetReadLimit(4 << 10)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	st := h.Sess.Status()
	if err := h.Hub.Send(id, gin.H{
		"type":        "hello",
		"ts":          time.Now().UnixMilli(),
		"session_id":  st.SessionID,
		"state":       st.State,
		"connected":   st.Connected,
		"subscribers": h.Hub.Len(),
	}); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go h.ping(conn, done)

	// Subscribers only listen; reading drives pong handling and close detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
