package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/repository"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

type createSubscriptionController struct{ repo repository.SubscriptionRepository }

func NewCreateSubscriptionController(repo repository.SubscriptionRepository) *createSubscriptionController {
	return &createSubscriptionController{repo: repo}
}

type createSubscriptionReq struct {
	ChannelID string   `json:"channelId" binding:"required"`
	Repo      string   `json:"repo" binding:"required"`
	Events    []string `json:"events,omitempty"`
}

func (h *createSubscriptionController) Handle(c *gin.Context) {
	var req createSubscriptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if _, err := h.repo.UpsertRepo(c.Request.Context(), req.ChannelID, req.Repo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	events := req.Events
	if len(events) == 0 {
		events = domain.DefaultEvents()
	}
	sub, err := h.repo.MergeEvents(c.Request.Context(), req.ChannelID, events)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sub)
}
