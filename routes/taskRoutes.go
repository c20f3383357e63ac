package routes

import (
	"github.com/Eisman15/donation/controllers"
	"github.com/Eisman15/donation/middlewares"
	"github.com/gin-gonic/gin"
)

func TaskRoutes(server *gin.Engine) {
	tasks := server.Group("/api/tasks", middlewares.RequireAuth())
	{
		tasks.GET("", controllers.GetTasks)
		tasks.POST("", controllers.AddTask)
		tasks.PUT("/:id", controllers.UpdateTask)
		tasks.DELETE("/:id", controllers.DeleteTask)
	}
}
