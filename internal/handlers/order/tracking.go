package order

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Feed streams the events of one order. events.RedisFeed implements it.
type Feed interface {
	Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan events.OrderEvent, func() error)
}

var upgrader = websocket.Upgrader{
	// Browsers connect from the storefront origin; tokens guard access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type trackMessage struct {
	Type  string             `json:"type"`
	Order any                `json:"order,omitempty"`
	Event *events.OrderEvent `json:"event,omitempty"`
}

// GET /orders/:id/track upgrades to a websocket that pushes the order's
// status changes.
func (h *OrderHandler) Track(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("order_id", id.String()).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, stop := h.feed.Subscribe(ctx, id)
	defer func() {
		if err := stop(); err != nil {
			log.Debug().Err(err).Msg("Closing order subscription")
		}
	}()

	// The read loop only notices the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, trackMessage{Type: "snapshot", Order: order}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			if err := writeJSON(conn, trackMessage{Type: "event", Event: &event}); err != nil {
				log.Debug().Err(err).Str("order_id", id.String()).Msg("Tracker write failed")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
