package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/crisis-alerts/internal/feed"
)

func (h *Handler) streamAlerts(c *gin.Context) {
	serveSnapshots(c, "alerts", h.alerts.Alerts.Feed())
}

func (h *Handler) streamSubscribers(c *gin.Context) {
	serveSnapshots(c, "subscribers", h.alerts.Subscriptions.Feed())
}

// serveSnapshots writes every snapshot from pub as a Server-Sent Event until
// the client goes away.
func serveSnapshots[T any](c *gin.Context, event string, pub *feed.Publisher[T]) {
	ctx := c.Request.Context()

	ch, detach, err := pub.Watch(ctx)
	if err != nil {
		slog.Error("failed to attach stream", "event", event, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load " + event})
		return
	}
	defer detach()

	slog.Info("client subscribed to stream", "event", event)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from stream", "event", event)
			return
		case snapshot := <-ch:
			c.SSEvent(event, snapshot)
			c.Writer.Flush()
		}
	}
}
