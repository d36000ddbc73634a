package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"civic-pulse/internal/transport/httpdto"
	"civic-pulse/pkg/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SnapshotSource produces the event sent to a client right after it connects.
type SnapshotSource interface {
	TallySnapshot(ctx context.Context, pollID string) (events.Event, error)
}

type Handler struct {
	hub        *Hub
	authorizer *WatchAuthorizer
	snapshots  SnapshotSource
	log        *zap.Logger
	upgrader   websocket.Upgrader
}

func NewHandler(hub *Hub, authorizer *WatchAuthorizer, snapshots SnapshotSource, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		hub:        hub,
		authorizer: authorizer,
		snapshots:  snapshots,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Live upgrades GET /v1/polls/:id/live and streams that poll's events.
func (h *Handler) Live(c *gin.Context) {
	pollID := c.Param("id")
	ok, err := h.authorizer.CanWatch(c.Request.Context(), pollID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "internal-error"))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("poll not found", "poll-not-found"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := events.PollChannel(pollID)
	h.hub.Register(client)
	h.hub.Subscribe(client, channel)
	go client.WriteLoop(ctx)

	if h.snapshots != nil {
		if snap, err := h.snapshots.TallySnapshot(ctx, pollID); err == nil {
			if data, err := json.Marshal(snap); err == nil {
				client.SendMessage(data)
			}
		}
	}

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}

	h.hub.Unregister(client)
}
