package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	msgInvalidDonorID      = "Invalid donor id"
	msgDonorNotFound       = "Donor not found"
	msgDonorProfileExists  = "Donor profile already exists"
	msgDonorProfileMissing = "Donor profile not found"
	msgNamesRequired       = "firstName and lastName are required"
	msgDonorHasDonations   = "Cannot delete donor with existing donations. Add ?cascade=true to also delete donations."
)

// CreateDonorProfile creates the one donor profile a user may have. Unless
// the caller is an admin, their role flips to donor so donor-gated routes
// open up immediately after the next token refresh.
func CreateDonorProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		FirstName              string  `json:"firstName"`
		LastName               string  `json:"lastName"`
		Phone                  string  `json:"phone"`
		IsAnonymous            *bool   `json:"isAnonymous"`
		EmailNotifications     *bool   `json:"emailNotifications"`
		Newsletter             *bool   `json:"newsletter"`
		PreferredPaymentMethod *string `json:"preferredPaymentMethod"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.FirstName == "" || body.LastName == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgNamesRequired)
		return
	}
	if body.PreferredPaymentMethod != nil && !models.IsValidPaymentMethod(*body.PreferredPaymentMethod) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid payment method")
		return
	}

	var existing models.Donor
	err := initializers.DB.Where("user_id = ?", user.ID).First(&existing).Error
	if err == nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgDonorProfileExists)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Donor lookup error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	donor := models.Donor{
		UserID: int(user.ID),
		PersonalInfo: models.PersonalInfo{
			FirstName: strings.TrimSpace(body.FirstName),
			LastName:  strings.TrimSpace(body.LastName),
			Phone:     strings.TrimSpace(body.Phone),
		},
		Preferences: models.DonorPreferences{
			EmailNotifications:     true,
			Newsletter:             true,
			PreferredPaymentMethod: "credit_card",
		},
		Status: models.DonorStatusActive,
	}
	if body.IsAnonymous != nil {
		donor.Preferences.IsAnonymous = *body.IsAnonymous
	}
	if body.EmailNotifications != nil {
		donor.Preferences.EmailNotifications = *body.EmailNotifications
	}
	if body.Newsletter != nil {
		donor.Preferences.Newsletter = *body.Newsletter
	}
	if body.PreferredPaymentMethod != nil {
		donor.Preferences.PreferredPaymentMethod = *body.PreferredPaymentMethod
	}

	if err := initializers.DB.Create(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgDonorProfileExists)
			return
		}
		log.Println("Donor creation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create donor profile")
		return
	}

	if user.Role != models.RoleAdmin {
		if err := initializers.DB.Model(&models.User{}).Where("id = ?", user.ID).
			Update("role", models.RoleDonor).Error; err != nil {
			log.Println("Role update error:", err)
		}
	}

	if err := initializers.DB.Preload("User").First(&donor, donor.ID).Error; err != nil {
		log.Println("Donor reload error:", err)
	}
	ctx.JSON(http.StatusCreated, donor)
}

// GetDonorProfile returns the caller's own donor profile.
func GetDonorProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var donor models.Donor
	if err := initializers.DB.Preload("User").Where("user_id = ?", user.ID).First(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonorProfileMissing)
		} else {
			log.Println("Donor fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donor profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, donor)
}

// UpdateDonorProfile patches the caller's personal info and preferences.
// Absent keys keep their value; explicit values, including empty strings and
// false, are written through.
func UpdateDonorProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		FirstName              *string `json:"firstName"`
		LastName               *string `json:"lastName"`
		Phone                  *string `json:"phone"`
		IsAnonymous            *bool   `json:"isAnonymous"`
		EmailNotifications     *bool   `json:"emailNotifications"`
		Newsletter             *bool   `json:"newsletter"`
		PreferredPaymentMethod *string `json:"preferredPaymentMethod"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.PreferredPaymentMethod != nil && !models.IsValidPaymentMethod(*body.PreferredPaymentMethod) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid payment method")
		return
	}

	var donor models.Donor
	if err := initializers.DB.Where("user_id = ?", user.ID).First(&donor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonorProfileMissing)
		} else {
			log.Println("Donor fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donor profile")
		}
		return
	}

	if body.FirstName != nil {
		donor.PersonalInfo.FirstName = strings.TrimSpace(*body.FirstName)
	}
	if body.LastName != nil {
		donor.PersonalInfo.LastName = strings.TrimSpace(*body.LastName)
	}
	if body.Phone != nil {
		donor.PersonalInfo.Phone = strings.TrimSpace(*body.Phone)
	}
	if body.IsAnonymous != nil {
		donor.Preferences.IsAnonymous = *body.IsAnonymous
	}
	if body.EmailNotifications != nil {
		donor.Preferences.EmailNotifications = *body.EmailNotifications
	}
	if body.Newsletter != nil {
		donor.Preferences.Newsletter = *body.Newsletter
	}
	if body.PreferredPaymentMethod != nil {
		donor.Preferences.PreferredPaymentMethod = *body.PreferredPaymentMethod
	}

	if err := initializers.DB.Save(&donor).Error; err != nil {
		log.Println("Donor update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update donor profile")
		return
	}

	if err := initializers.DB.Preload("User").First(&donor, donor.ID).Error; err != nil {
		log.Println("Donor reload error:", err)
	}
	ctx.JSON(http.StatusOK, donor)
}

// GetDonors lists all donor profiles, newest first. Admin only.
func GetDonors(ctx *gin.Context) {
	var donors []models.Donor
	result := initializers.DB.Preload("User").Order("created_at desc").Find(&donors)
	if result.Error != nil {
		log.Println("Donor list error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donors")
		return
	}
	ctx.JSON(http.StatusOK, donors)
}

// GetDonorById returns one donor profile by id. Admin only.
func GetDonorById(ctx *gin.Context) {
	donorId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidDonorID)
		return
	}

	var donor models.Donor
	if err := initializers.DB.Preload("User").First(&donor, donorId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonorNotFound)
		} else {
			log.Println("Donor fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donor")
		}
		return
	}

	ctx.JSON(http.StatusOK, donor)
}

// DeleteDonor removes a donor profile. Blocked with 409 while donations exist
// unless ?cascade=true removes them too. The whole cascade runs in one
// transaction. With ?deleteUser=true the linked user account goes as well;
// otherwise a non-admin user is reverted to the plain user role.
func DeleteDonor(ctx *gin.Context) {
	donorId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidDonorID)
		return
	}
	cascade := ctx.Query("cascade") == "true"
	deleteUser := ctx.Query("deleteUser") == "true"

	var donor models.Donor
	if err := initializers.DB.First(&donor, donorId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgDonorNotFound)
		} else {
			log.Println("Donor fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch donor")
		}
		return
	}

	var donationCount int64
	if err := initializers.DB.Model(&models.Donation{}).Where("donor_id = ?", donor.ID).Count(&donationCount).Error; err != nil {
		log.Println("Donation count error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to check donations")
		return
	}
	if donationCount > 0 && !cascade {
		sendErrorResponse(ctx, http.StatusConflict, msgDonorHasDonations)
		return
	}

	tx := initializers.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if cascade {
		if err := tx.Where("donor_id = ?", donor.ID).Delete(&models.Donation{}).Error; err != nil {
			tx.Rollback()
			log.Println("Donation cascade error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete donor")
			return
		}
	}
	if err := tx.Delete(&donor).Error; err != nil {
		tx.Rollback()
		log.Println("Donor delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete donor")
		return
	}

	if deleteUser {
		if err := tx.Where("id = ?", donor.UserID).Delete(&models.User{}).Error; err != nil {
			tx.Rollback()
			log.Println("User delete error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete donor")
			return
		}
	} else {
		if err := tx.Model(&models.User{}).
			Where("id = ? AND role = ?", donor.UserID, models.RoleDonor).
			Update("role", models.RoleUser).Error; err != nil {
			tx.Rollback()
			log.Println("Role revert error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete donor")
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Println("Donor delete commit error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete donor")
		return
	}

	ctx.Status(http.StatusNoContent)
}
