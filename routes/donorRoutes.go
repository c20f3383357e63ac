package routes

import (
	"github.com/Eisman15/donation/controllers"
	"github.com/Eisman15/donation/middlewares"
	"github.com/gin-gonic/gin"
)

func DonorRoutes(server *gin.Engine) {
	donors := server.Group("/api/donors")
	{
		donors.POST("/create", middlewares.RequireAuth(), controllers.CreateDonorProfile)
		donors.GET("/profile", middlewares.RequireAuth(), middlewares.RequireDonorOrAdmin(), controllers.GetDonorProfile)
		donors.PUT("/profile", middlewares.RequireAuth(), middlewares.RequireDonorOrAdmin(), controllers.UpdateDonorProfile)

		admin := donors.Group("", middlewares.RequireAuth(), middlewares.RequireAdmin())
		{
			admin.GET("", controllers.GetDonors)
			admin.GET("/:id", controllers.GetDonorById)
			admin.DELETE("/:id", controllers.DeleteDonor)
		}
	}
}
