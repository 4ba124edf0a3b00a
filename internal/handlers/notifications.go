package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"parkhub/internal/logger"
	"parkhub/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Notification handlers

// ListNotifications - GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, unread, err := h.services.Notifications.List(c.Request.Context(), p, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationRead - POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := h.services.Notifications.MarkRead(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// MarkAllNotificationsRead - POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	count, err := h.services.Notifications.MarkAllRead(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": count})
}

// NotificationsSocket - GET /api/notifications/ws
// Upgrades to a websocket and streams the user's notifications until the
// client disconnects.
func (h *Handlers) NotificationsSocket(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("Failed to upgrade to websocket",
			"error", err.Error())
		return
	}

	h.hub.Register(p.UserID, conn)
	metrics.WebsocketConnections.Set(float64(h.hub.ConnectionCount()))

	// Drain the read side to detect disconnects; clients never send
	// anything meaningful.
	go func() {
		defer func() {
			h.hub.Unregister(p.UserID, conn)
			metrics.WebsocketConnections.Set(float64(h.hub.ConnectionCount()))
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Get().Debug("Websocket closed unexpectedly", "error", err.Error())
				}
				return
			}
		}
	}()
}
