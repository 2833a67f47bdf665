package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/repository"
)

type deleteSubscriptionController struct{ repo repository.SubscriptionRepository }

func NewDeleteSubscriptionController(repo repository.SubscriptionRepository) *deleteSubscriptionController {
	return &deleteSubscriptionController{repo: repo}
}

// Handle removes one repository filter when ?repo= is given, otherwise the
// whole subscription record. Removing a repository never deletes the record,
// even when it was the last filter.
func (h *deleteSubscriptionController) Handle(c *gin.Context) {
	channel := strings.TrimSpace(c.Param("channel"))
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}

	repo := strings.TrimSpace(c.Query("repo"))
	if repo != "" {
		sub, err := h.repo.RemoveRepo(c.Request.Context(), channel, repo)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sub)
		return
	}

	if err := h.repo.Remove(c.Request.Context(), channel); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed", "channelId": channel})
}
