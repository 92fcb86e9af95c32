package handler

import (
	"Vitrin/internal/pkg/consts"
	"Vitrin/internal/pkg/redis"
	log "log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// WsHandler 向在线管理员推送新留言
type WsHandler struct {
	upgrader websocket.Upgrader
}

func NewWsHandler(allowedOrigins []string) *WsHandler {
	return &WsHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Connect 鉴权由 AuthMiddleware 完成
func (s *WsHandler) Connect(c *gin.Context) {
	adminID := c.GetUint64("admin_id")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "websocket upgrade failed", "admin_id", adminID, "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx := c.Request.Context()
	pubsub := redis.Subscribe(ctx, consts.ContactEventChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	log.InfoContext(ctx, "admin websocket connected", "admin_id", adminID)

	stopChan := make(chan struct{})

	// 读循环：监听客户端断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	redisCh := pubsub.Channel()
	for {
		select {
		case msg, ok := <-redisCh:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.WarnContext(ctx, "websocket push failed", "admin_id", adminID, "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-stopChan:
			log.InfoContext(ctx, "admin websocket closed", "admin_id", adminID)
			return
		case <-ctx.Done():
			return
		}
	}
}
