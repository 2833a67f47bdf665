package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gitcordhq/gitcord/internal/controllers"
	"github.com/gitcordhq/gitcord/internal/middleware"
)

func SetupMappings(app *Application) error {
	app.Engine.GET("/healthz", controllers.NewHealthController(app.Repo).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	interactions, err := controllers.NewInteractionsController(app.Commands, app.Config.DiscordPublicKey, app.Logger)
	if err != nil {
		return err
	}

	v1 := app.Engine.Group("/v1/gitcord")
	{
		v1.POST("/webhook/github", controllers.NewWebhookController(app.Renderer, app.Router, app.Config.WebhookSecret, app.Logger).Handle)
		v1.POST("/interactions", interactions.Handle)

		admin := v1.Group("/admin", middleware.AdminAuthMiddleware(app.AdminValidator))
		admin.GET("/subscriptions", controllers.NewListSubscriptionsController(app.Repo).Handle)
		admin.POST("/subscriptions", controllers.NewCreateSubscriptionController(app.Repo).Handle)
		admin.GET("/subscriptions/:channel", controllers.NewGetSubscriptionController(app.Repo).Handle)
		admin.DELETE("/subscriptions/:channel", controllers.NewDeleteSubscriptionController(app.Repo).Handle)
	}
	return nil
}
