package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/repository"
)

type listSubscriptionsController struct{ repo repository.SubscriptionRepository }

func NewListSubscriptionsController(repo repository.SubscriptionRepository) *listSubscriptionsController {
	return &listSubscriptionsController{repo: repo}
}

func (h *listSubscriptionsController) Handle(c *gin.Context) {
	subs, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"count":         len(subs),
	})
}
