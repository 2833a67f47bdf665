package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/events"
	"github.com/gitcordhq/gitcord/internal/metrics"
	"github.com/gitcordhq/gitcord/internal/services"
)

// maxWebhookBody caps payload reads; GitHub delivers at most 25 MB.
const maxWebhookBody = 25 << 20

type webhookController struct {
	renderer *events.Renderer
	router   services.RouterService
	secret   string
	logger   *slog.Logger
}

func NewWebhookController(renderer *events.Renderer, router services.RouterService, secret string, logger *slog.Logger) *webhookController {
	return &webhookController{renderer: renderer, router: router, secret: secret, logger: logger}
}

// Handle ingests one GitHub webhook delivery. Verification failures are the
// only rejection; once the sender is authenticated the delivery is always
// acknowledged, whatever happens downstream.
func (h *webhookController) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	if h.secret != "" {
		if !verifySignature(body, c.GetHeader("X-Hub-Signature-256"), h.secret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
			return
		}
	}

	eventType := c.GetHeader("X-GitHub-Event")
	deliveryID := c.GetHeader("X-GitHub-Delivery")
	metrics.EventsReceivedTotal.WithLabelValues(eventType).Inc()

	if eventType == "" || eventType == "ping" {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}

	notification, err := h.renderer.Render(eventType, body)
	if err != nil {
		reason := "render_error"
		if errors.Is(err, events.ErrNoRepository) {
			reason = "no_repository"
		}
		metrics.EventsDroppedTotal.WithLabelValues(reason).Inc()
		h.logger.Warn("webhook event dropped",
			"event", eventType,
			"delivery", deliveryID,
			"reason", reason,
			"err", err)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}

	// Fan-out happens off the request path; the sender only needs the ack.
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if _, err := h.router.Dispatch(ctx, notification); err != nil {
			h.logger.Error("dispatch failed", "event", eventType, "delivery", deliveryID, "err", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
