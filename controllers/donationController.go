package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/Eisman15/donation/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

const (
	msgInvalidDonationID     = "Invalid donation id"
	msgDonationNotFound      = "Donation not found"
	msgPaymentInfoRequired   = "Payment method, gateway and transactionId are required"
	msgDuplicateTransaction  = "Transaction already recorded"
	msgInvalidDonationStatus = "Invalid donation status"
)

// applyCompletedDonation moves the rollups that depend on a completed ledger
// entry inside the caller's transaction: the cause running total, the donor
// statistics and the donor's yearly tax ledger. Keeping these writes in one
// transaction with the ledger write is what stops the totals from drifting.
func applyCompletedDonation(tx *gorm.DB, donation *models.Donation, now time.Time) error {
	if err := tx.Model(&models.Cause{}).Where("id = ?", donation.CauseID).
		Update("current_amount", gorm.Expr("current_amount + ?", donation.Amount)).Error; err != nil {
		return err
	}

	var donor models.Donor
	if err := tx.First(&donor, donation.DonorID).Error; err != nil {
		return err
	}

	var priorToCause int64
	if err := tx.Model(&models.Donation{}).
		Where("donor_id = ? AND cause_id = ? AND status = ? AND id <> ?",
			donation.DonorID, donation.CauseID, models.DonationStatusCompleted, donation.ID).
		Count(&priorToCause).Error; err != nil {
		return err
	}

	donor.Statistics.TotalDonated += donation.Amount
	donor.Statistics.NumberOfDonations++
	if priorToCause == 0 {
		donor.Statistics.CausesSupported++
	}
	if donor.Statistics.FirstDonationDate == nil {
		donor.Statistics.FirstDonationDate = &now
	}
	donor.Statistics.LastDonationDate = &now
	if donation.Receipt.TaxDeductible {
		donor.TaxInfo.YearlyTaxDeductible = models.AddYearlyDeduction(donor.TaxInfo.YearlyTaxDeductible, now.Year(), donation.Amount)
	}

	return tx.Save(&donor).Error
}

// sendReceiptEmail is best effort: a failed send never fails the donation.
func sendReceiptEmail(donation models.Donation) {
	var donor models.Donor
	if err := initializers.DB.Preload("User").First(&donor, donation.DonorID).Error; err != nil {
		log.Println("Receipt email donor lookup error:", err)
		return
	}
	if !donor.Preferences.EmailNotifications || donor.User.Email == "" {
		return
	}

	var cause models.Cause
	if err := initializers.DB.First(&cause, donation.CauseID).Error; err != nil {
		log.Println("Receipt email cause lookup error:", err)
		return
	}

	emailData := utils.EmailData{
		Name:          donor.PersonalInfo.FirstName,
		Message:       "Your donation has been completed. Thank you for your support!",
		CauseTitle:    cause.Title,
		Amount:        donation.Amount,
		Currency:      donation.PaymentInfo.Currency,
		ReceiptNumber: donation.Receipt.ReceiptNumber,
		LogoURL:       os.Getenv("LOGO_URL"),
	}

	templatePath := filepath.Join("templates", "receipt_email.html")
	if err := utils.SendEmail(donor.User.Email, "Donation Receipt", emailData, templatePath); err != nil {
		log.Println("Error sending receipt email:", err)
	} else {
		log.Println("Receipt email sent successfully to:", donor.User.Email)
	}
}

// CreateDonation records a pending ledger entry for the caller's donor
// profile. Rollups move when the donation completes, not here.
func CreateDonation(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		CauseID        int     `json:"causeId"`
		Amount         float64 `json:"amount"`
		Method         string  `json:"method"`
		Gateway        string  `json:"gateway"`
		TransactionID  string  `json:"transactionId"`
		Currency       string  `json:"currency"`
		IsAnonymous    bool    `json:"isAnonymous"`
		DonorMessage   string  `json:"donorMessage"`
		CampaignSource string  `json:"campaignSource"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	var donor models.Donor
	if err := initializers.DB.Where("user_id = ?", user.ID).First(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonorProfileMissing)
		} else {
			log.Println("Donor lookup error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		}
		return
	}

	var cause models.Cause
	if err := initializers.DB.First(&cause, body.CauseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgCauseNotFound)
		} else {
			log.Println("Cause lookup error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		}
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
	if body.Method == "" || body.Gateway == "" || body.TransactionID == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgPaymentInfoRequired)
		return
	}
	if !models.IsValidPaymentMethod(body.Method) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid payment method")
		return
	}
	if !models.IsValidPaymentGateway(body.Gateway) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid payment gateway")
		return
	}

	currency := body.Currency
	if currency == "" {
		currency = "USD"
	}

	donation := models.Donation{
		DonorID: int(donor.ID),
		CauseID: int(cause.ID),
		Amount:  body.Amount,
		Status:  models.DonationStatusPending,
		PaymentInfo: models.PaymentInfo{
			Method:        body.Method,
			TransactionID: body.TransactionID,
			Gateway:       body.Gateway,
			Currency:      currency,
		},
		Metadata: models.DonationMetadata{
			IsAnonymous:    body.IsAnonymous || donor.Preferences.IsAnonymous,
			DonorMessage:   body.DonorMessage,
			CampaignSource: body.CampaignSource,
			IPAddress:      ctx.ClientIP(),
			UserAgent:      ctx.Request.UserAgent(),
		},
		Timeline: models.DonationTimeline{InitiatedAt: time.Now()},
	}

	if err := initializers.DB.Create(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusConflict, msgDuplicateTransaction)
			return
		}
		log.Println("Donation creation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create donation")
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

// GetDonations lists the ledger: admins see everything newest first, donors
// see their own entries.
func GetDonations(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	query := initializers.DB.Preload("Donor").Preload("Cause").Order("created_at desc")

	if user.Role != models.RoleAdmin {
		var donor models.Donor
		if err := initializers.DB.Where("user_id = ?", user.ID).First(&donor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				sendErrorResponse(ctx, http.StatusNotFound, msgDonorProfileMissing)
			} else {
				log.Println("Donor lookup error:", err)
				sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			}
			return
		}
		query = query.Where("donor_id = ?", donor.ID)
	}

	var donations []models.Donation
	if result := query.Find(&donations); result.Error != nil {
		log.Println("Donation list error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donations")
		return
	}

	ctx.JSON(http.StatusOK, donations)
}

// GetDonation returns one ledger entry; donors may only read their own.
func GetDonation(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	donationId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidDonationID)
		return
	}

	var donation models.Donation
	if err := initializers.DB.Preload("Donor").Preload("Cause").First(&donation, donationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonationNotFound)
		} else {
			log.Println("Donation fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donation")
		}
		return
	}

	if user.Role != models.RoleAdmin && donation.Donor.UserID != int(user.ID) {
		sendErrorResponse(ctx, http.StatusForbidden, "Forbidden")
		return
	}

	ctx.JSON(http.StatusOK, donation)
}

// transitionDonation stamps the timeline for the new status and, on the first
// transition into completed, saves the donation and its rollups in one
// transaction. The BeforeSave hook on the model stamps the receipt during
// that save.
func transitionDonation(donation *models.Donation, newStatus string) error {
	now := time.Now()
	// CompletedAt doubles as the marker that the rollups already moved, so a
	// donation that leaves and re-enters completed is not counted twice.
	firstCompletion := newStatus == models.DonationStatusCompleted && donation.Timeline.CompletedAt == nil
	donation.Status = newStatus

	switch newStatus {
	case models.DonationStatusCompleted:
		if donation.Timeline.CompletedAt == nil {
			donation.Timeline.CompletedAt = &now
		}
	case models.DonationStatusFailed:
		donation.Timeline.FailedAt = &now
	case models.DonationStatusRefunded:
		donation.Timeline.RefundedAt = &now
	}

	if firstCompletion {
		tx := initializers.DB.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Save(donation).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := applyCompletedDonation(tx, donation, now); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit().Error; err != nil {
			return err
		}

		sendReceiptEmail(*donation)
		return nil
	}

	return initializers.DB.Save(donation).Error
}

// UpdateDonationStatus sets a donation's status. Admin only. The schema
// declares the status enum but transition legality between the states is not
// enforced here.
func UpdateDonationStatus(ctx *gin.Context) {
	donationId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidDonationID)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if !models.IsValidDonationStatus(body.Status) {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidDonationStatus)
		return
	}

	var donation models.Donation
	if err := initializers.DB.First(&donation, donationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonationNotFound)
		} else {
			log.Println("Donation fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donation")
		}
		return
	}

	if err := transitionDonation(&donation, body.Status); err != nil {
		log.Println("Donation transition error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update donation status")
		return
	}

	ctx.JSON(http.StatusOK, donation)
}

// verifyWithGateway asks the configured gateway status endpoint what it
// thinks of the transaction. Returns the reported status, or an empty string
// when no endpoint is configured.
func verifyWithGateway(transactionId string) (string, error) {
	statusURL := os.Getenv("GATEWAY_STATUS_URL")
	if statusURL == "" {
		return "", nil
	}

	resp, err := resty.New().SetTimeout(30 * time.Second).R().
		SetHeader("Accept", "application/json").
		SetQueryParam("transactionId", transactionId).
		Get(statusURL)
	if err != nil {
		return "", err
	}

	var statusResp map[string]any
	if err := json.Unmarshal(resp.Body(), &statusResp); err != nil {
		return "", err
	}

	status, _ := statusResp["status"].(string)
	return strings.ToLower(status), nil
}

// HandleGatewayWebhook receives payment gateway notifications. When a status
// endpoint is configured the reported status wins over the notification body.
func HandleGatewayWebhook(ctx *gin.Context) {
	var transactionId, status string

	if ctx.Request.Method == http.MethodPost {
		var payload struct {
			TransactionID string `json:"transactionId"`
			Status        string `json:"status"`
		}
		if err := ctx.BindJSON(&payload); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		transactionId = payload.TransactionID
		status = payload.Status
	} else {
		transactionId = ctx.Query("transactionId")
		status = ctx.Query("status")
	}

	if transactionId == "" || status == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}

	var donation models.Donation
	if err := initializers.DB.Where("payment_transaction_id = ?", transactionId).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": msgDonationNotFound})
		} else {
			log.Println("Donation lookup error:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up donation"})
		}
		return
	}

	if verified, err := verifyWithGateway(transactionId); err != nil {
		log.Println("Gateway verification error:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check payment status"})
		return
	} else if verified != "" {
		status = verified
	}

	status = strings.ToLower(status)
	if !models.IsValidDonationStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidDonationStatus})
		return
	}

	if err := transitionDonation(&donation, status); err != nil {
		log.Println("Donation transition error:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update donation status"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"transactionId": transactionId,
		"status":        donation.Status,
		"received":      true,
	})
}
