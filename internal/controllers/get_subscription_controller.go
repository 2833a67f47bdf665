package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/repository"
)

type getSubscriptionController struct{ repo repository.SubscriptionRepository }

func NewGetSubscriptionController(repo repository.SubscriptionRepository) *getSubscriptionController {
	return &getSubscriptionController{repo: repo}
}

func (h *getSubscriptionController) Handle(c *gin.Context) {
	channel := strings.TrimSpace(c.Param("channel"))
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}
	sub, err := h.repo.Get(c.Request.Context(), channel)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}
