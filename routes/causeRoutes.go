package routes

import (
	"github.com/Eisman15/donation/controllers"
	"github.com/Eisman15/donation/middlewares"
	"github.com/gin-gonic/gin"
)

func CauseRoutes(server *gin.Engine) {
	causes := server.Group("/api/causes")
	{
		causes.GET("", controllers.GetCauses)
		causes.GET("/:id", controllers.GetCause)
		causes.POST("/:id/donate", middlewares.RequireAuth(), controllers.Donate)

		admin := causes.Group("", middlewares.RequireAuth(), middlewares.RequireAdmin())
		{
			admin.POST("", controllers.CreateCause)
			admin.PUT("/:id", controllers.UpdateCause)
			admin.PUT("/:id/archive", controllers.ArchiveCause)
			admin.DELETE("/:id", controllers.DeleteCause)
			admin.POST("/:id/image", controllers.UploadCauseImage)
		}
	}
}
