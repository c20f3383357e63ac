package routes

import (
	"github.com/Eisman15/donation/controllers"
	"github.com/Eisman15/donation/middlewares"
	"github.com/gin-gonic/gin"
)

func DonationRoutes(server *gin.Engine) {
	donations := server.Group("/api/donations")
	{
		donations.POST("/webhook", controllers.HandleGatewayWebhook)
		donations.GET("/webhook", controllers.HandleGatewayWebhook)

		donations.POST("", middlewares.RequireAuth(), middlewares.RequireDonorOrAdmin(), controllers.CreateDonation)
		donations.GET("", middlewares.RequireAuth(), middlewares.RequireDonorOrAdmin(), controllers.GetDonations)
		donations.GET("/:id", middlewares.RequireAuth(), middlewares.RequireDonorOrAdmin(), controllers.GetDonation)
		donations.PATCH("/:id/status", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.UpdateDonationStatus)
	}
}
