package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	msgInvalidTaskID = "Invalid task id"
	msgTaskNotFound  = "Task not found"
	msgForbidden     = "Forbidden"
)

// loadOwnedTask fetches the task and enforces ownership: a task owned by
// someone else answers 403, not 404.
func loadOwnedTask(ctx *gin.Context, user models.User) (models.Task, bool) {
	var task models.Task
	taskId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidTaskID)
		return task, false
	}

	if err := initializers.DB.First(&task, taskId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgTaskNotFound)
		} else {
			log.Println("Task fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch task")
		}
		return task, false
	}

	if task.UserID != int(user.ID) {
		sendErrorResponse(ctx, http.StatusForbidden, msgForbidden)
		return task, false
	}

	return task, true
}

func GetTasks(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var tasks []models.Task
	if result := initializers.DB.Where("user_id = ?", user.ID).Find(&tasks); result.Error != nil {
		log.Println("Task list error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

func AddTask(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Deadline    *time.Time `json:"deadline"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if body.Title == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, "Title is required")
		return
	}

	task := models.Task{
		UserID:      int(user.ID),
		Title:       body.Title,
		Description: body.Description,
		Deadline:    body.Deadline,
	}
	if err := initializers.DB.Create(&task).Error; err != nil {
		log.Println("Task creation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, task)
}

func UpdateTask(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	task, ok := loadOwnedTask(ctx, user)
	if !ok {
		return
	}

	var body struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Completed   *bool      `json:"completed"`
		Deadline    *time.Time `json:"deadline"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Title != nil {
		task.Title = *body.Title
	}
	if body.Description != nil {
		task.Description = *body.Description
	}
	if body.Completed != nil {
		task.Completed = *body.Completed
	}
	if body.Deadline != nil {
		task.Deadline = body.Deadline
	}

	if err := initializers.DB.Save(&task).Error; err != nil {
		log.Println("Task update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update task")
		return
	}

	ctx.JSON(http.StatusOK, task)
}

func DeleteTask(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	task, ok := loadOwnedTask(ctx, user)
	if !ok {
		return
	}

	if err := initializers.DB.Delete(&task).Error; err != nil {
		log.Println("Task delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Task deleted"})
}
