package routes

import (
	"github.com/Eisman15/donation/controllers"
	"github.com/Eisman15/donation/middlewares"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine) {
	auth := server.Group("/api/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.GET("/profile", middlewares.RequireAuth(), controllers.GetProfile)
		auth.PUT("/profile", middlewares.RequireAuth(), controllers.UpdateProfile)
		auth.POST("/admin/create", controllers.CreateAdmin)

		admin := auth.Group("/admin/users", middlewares.RequireAuth(), middlewares.RequireAdmin())
		{
			admin.GET("", controllers.GetUsers)
			admin.GET("/:id", controllers.GetUserById)
			admin.PUT("/:id", controllers.UpdateUserByAdmin)
			admin.DELETE("/:id", controllers.DeleteUser)
		}
	}
}
