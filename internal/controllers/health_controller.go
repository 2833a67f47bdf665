package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/repository"
)

type healthController struct{ repo repository.SubscriptionRepository }

func NewHealthController(repo repository.SubscriptionRepository) *healthController {
	return &healthController{repo: repo}
}

func (h *healthController) Handle(c *gin.Context) {
	n, err := h.repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscriptions": n})
}
