package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgInvalidCauseID    = "Invalid cause id"
	msgCauseNotFound     = "Cause not found"
	msgCauseNotActive    = "Cause is not active"
	msgInvalidAmount     = "Donation amount must be greater than zero"
	msgCauseHasDonations = "Cannot delete cause with existing donations. Add ?cascade=true to also delete those donations."
)

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

func findCauseById(ctx *gin.Context) (models.Cause, bool) {
	var cause models.Cause
	causeId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCauseID)
		return cause, false
	}

	if err := initializers.DB.First(&cause, causeId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgCauseNotFound)
		} else {
			log.Println("Cause fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch cause")
		}
		return cause, false
	}
	return cause, true
}

// GetCauses lists causes with the creator preloaded. ?active=true narrows the
// list to causes currently accepting donations.
func GetCauses(ctx *gin.Context) {
	query := initializers.DB.Preload("CreatedBy")
	if ctx.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var causes []models.Cause
	if result := query.Order("created_at desc").Find(&causes); result.Error != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Unable to fetch causes", result.Error)
		return
	}

	ctx.JSON(http.StatusOK, causes)
}

func GetCause(ctx *gin.Context) {
	causeId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCauseID)
		return
	}

	var cause models.Cause
	result := initializers.DB.Preload("CreatedBy").First(&cause, causeId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgCauseNotFound)
		} else {
			respondWithError(ctx, http.StatusInternalServerError, "Unable to retrieve cause", result.Error)
		}
		return
	}

	ctx.JSON(http.StatusOK, cause)
}

func CreateCause(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		GoalAmount  float64 `json:"goalAmount"`
		Category    string  `json:"category"`
		Image       string  `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Title == "" || body.Description == "" || body.Category == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, "Title, description, goalAmount and category are required")
		return
	}
	if body.GoalAmount <= 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, "Goal amount must be greater than zero")
		return
	}

	cause := models.Cause{
		Title:       body.Title,
		Description: body.Description,
		GoalAmount:  body.GoalAmount,
		Category:    body.Category,
		Image:       body.Image,
		CreatedByID: int(user.ID),
		IsActive:    true,
	}
	if err := initializers.DB.Create(&cause).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to create cause", err)
		return
	}

	ctx.JSON(http.StatusCreated, cause)
}

// UpdateCause patches a cause. Absent fields keep their value; explicit empty
// or zero values are written through.
func UpdateCause(ctx *gin.Context) {
	cause, ok := findCauseById(ctx)
	if !ok {
		return
	}

	var body struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		GoalAmount  *float64 `json:"goalAmount"`
		Category    *string  `json:"category"`
		Image       *string  `json:"image"`
		IsActive    *bool    `json:"isActive"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Title != nil {
		cause.Title = *body.Title
	}
	if body.Description != nil {
		cause.Description = *body.Description
	}
	if body.GoalAmount != nil {
		cause.GoalAmount = *body.GoalAmount
	}
	if body.Category != nil {
		cause.Category = *body.Category
	}
	if body.Image != nil {
		cause.Image = *body.Image
	}
	if body.IsActive != nil {
		cause.IsActive = *body.IsActive
	}

	if err := initializers.DB.Save(&cause).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to update cause", err)
		return
	}

	ctx.JSON(http.StatusOK, cause)
}

// ArchiveCause takes a cause off the active list without removing the record.
func ArchiveCause(ctx *gin.Context) {
	cause, ok := findCauseById(ctx)
	if !ok {
		return
	}

	if err := initializers.DB.Model(&cause).Update("is_active", false).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to archive cause", err)
		return
	}

	ctx.JSON(http.StatusOK, cause)
}

// DeleteCause hard-deletes a cause. Blocked with 409 while donations
// reference it, unless ?cascade=true removes them in the same transaction.
func DeleteCause(ctx *gin.Context) {
	cause, ok := findCauseById(ctx)
	if !ok {
		return
	}
	cascade := ctx.Query("cascade") == "true"

	var donationCount int64
	if err := initializers.DB.Model(&models.Donation{}).Where("cause_id = ?", cause.ID).Count(&donationCount).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to check donations", err)
		return
	}
	if donationCount > 0 && !cascade {
		sendErrorResponse(ctx, http.StatusConflict, msgCauseHasDonations)
		return
	}

	tx := initializers.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if cascade {
		if err := tx.Where("cause_id = ?", cause.ID).Delete(&models.Donation{}).Error; err != nil {
			tx.Rollback()
			respondWithError(ctx, http.StatusInternalServerError, "Failed to delete cause", err)
			return
		}
	}
	if err := tx.Delete(&cause).Error; err != nil {
		tx.Rollback()
		respondWithError(ctx, http.StatusInternalServerError, "Failed to delete cause", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to delete cause", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Donate records a quick contribution against a cause. The running total is
// bumped in a transaction; when the caller has a donor profile, a completed
// ledger entry is written and the donor's statistics move in the same
// transaction so the rollups cannot drift from the ledger.
func Donate(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	cause, found := findCauseById(ctx)
	if !found {
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Amount <= 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidAmount)
		return
	}
	if !cause.IsActive {
		sendErrorResponse(ctx, http.StatusBadRequest, msgCauseNotActive)
		return
	}

	var donor models.Donor
	donorErr := initializers.DB.Where("user_id = ?", user.ID).First(&donor).Error
	hasDonor := donorErr == nil
	if donorErr != nil && !errors.Is(donorErr, gorm.ErrRecordNotFound) {
		log.Println("Donor lookup error:", donorErr)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	tx := initializers.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if hasDonor {
		now := time.Now()
		donation := models.Donation{
			DonorID: int(donor.ID),
			CauseID: int(cause.ID),
			Amount:  body.Amount,
			Status:  models.DonationStatusCompleted,
			PaymentInfo: models.PaymentInfo{
				Method:        donor.Preferences.PreferredPaymentMethod,
				TransactionID: "QD-" + uuid.NewString(),
				Gateway:       "bank",
				Currency:      "USD",
			},
			Receipt: models.Receipt{TaxDeductible: true},
			Metadata: models.DonationMetadata{
				IsAnonymous:    donor.Preferences.IsAnonymous,
				CampaignSource: "quick-donate",
				IPAddress:      ctx.ClientIP(),
				UserAgent:      ctx.Request.UserAgent(),
			},
			Timeline: models.DonationTimeline{InitiatedAt: now, CompletedAt: &now},
		}
		if err := tx.Create(&donation).Error; err != nil {
			tx.Rollback()
			respondWithError(ctx, http.StatusInternalServerError, "Failed to record donation", err)
			return
		}
		if err := applyCompletedDonation(tx, &donation, now); err != nil {
			tx.Rollback()
			respondWithError(ctx, http.StatusInternalServerError, "Failed to record donation", err)
			return
		}
	} else {
		if err := tx.Model(&models.Cause{}).Where("id = ?", cause.ID).
			Update("current_amount", gorm.Expr("current_amount + ?", body.Amount)).Error; err != nil {
			tx.Rollback()
			respondWithError(ctx, http.StatusInternalServerError, "Failed to record donation", err)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to record donation", err)
		return
	}

	if err := initializers.DB.First(&cause, cause.ID).Error; err != nil {
		log.Println("Cause reload error:", err)
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Donation recorded successfully.",
		"cause":   cause,
	})
}

// getAWSUploader returns a configured AWS S3 uploader
func getAWSUploader() (*manager.Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return manager.NewUploader(client), nil
}

// UploadCauseImage stores a cover image for the cause on S3 and records its
// public URL.
func UploadCauseImage(ctx *gin.Context) {
	cause, ok := findCauseById(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "No file uploaded", err)
		return
	}

	uploader, err := getAWSUploader()
	if err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to configure AWS", err)
		return
	}

	f, err := file.Open()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Unable to read uploaded file", err)
		return
	}
	defer f.Close()

	uniqueFilename := fmt.Sprintf("causes/%d-%s-%s", cause.ID, time.Now().Format("20060102150405"), file.Filename)

	result, err := uploader.Upload(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(os.Getenv("S3_BUCKET")),
		Key:         aws.String(uniqueFilename),
		Body:        f,
		ACL:         "public-read",
		ContentType: aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		log.Printf("Error uploading file %s: %v", file.Filename, err)
		respondWithError(ctx, http.StatusInternalServerError, "Failed to upload image", err)
		return
	}

	if err := initializers.DB.Model(&cause).Update("image", result.Location).Error; err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to save image URL", err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Image uploaded successfully.",
		"url":     result.Location,
	})
}
