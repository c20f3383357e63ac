package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	// Minimum accepted password length
	minPasswordLength = 6

	// Standard response messages
	msgInvalidInput          = "Invalid input"
	msgAllFieldsRequired     = "All fields required"
	msgEmailPasswordRequired = "Email and password required"
	msgPasswordTooShort      = "Password too short"
	msgUserAlreadyExists     = "User already exists"
	msgInvalidCredentials    = "Invalid credentials"
	msgInvalidAdminSecret    = "Invalid admin secret"
	msgFailedToHashPassword  = "Failed to hash password"
	msgFailedToGenerateToken = "Failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgUserNotFound          = "User not found"
	msgInvalidUserID         = "Invalid user id"
	msgInvalidRole           = "Invalid role"
	msgCannotDeleteSelf      = "You cannot delete your own account"
)

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func generateJWT(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   user.ID,
		"role": user.Role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour * 24 * 30).Unix(),
	})

	jwtSecret := os.Getenv("JWT_SECRET")
	return token.SignedString([]byte(jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func findUserByEmail(email string) (models.User, error) {
	var user models.User
	result := initializers.DB.Where("email = ?", normalizeEmail(email)).First(&user)
	return user, result.Error
}

// currentUser returns the user loaded by the auth middleware.
func currentUser(ctx *gin.Context) (models.User, bool) {
	value, exists := ctx.Get("user")
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}

func authPayload(user models.User, token string) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"token": token,
	}
}

// Register handles user registration
func Register(ctx *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Name == "" || body.Email == "" || body.Password == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgAllFieldsRequired)
		return
	}
	if len(body.Password) < minPasswordLength {
		sendErrorResponse(ctx, http.StatusBadRequest, msgPasswordTooShort)
		return
	}

	if _, err := findUserByEmail(body.Email); err == nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Database error during user check:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	hashedPassword, err := hashPassword(body.Password)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(body.Name),
		Email:    normalizeEmail(body.Email),
		Password: hashedPassword,
		Role:     models.RoleUser,
	}
	if result := initializers.DB.Create(&user); result.Error != nil {
		// The unique index is the last line of defence against concurrent
		// registrations with the same email.
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.Println("User creation error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := generateJWT(user)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, authPayload(user, token))
}

// Login handles user authentication. Unknown email and wrong password produce
// the same response so accounts cannot be enumerated.
func Login(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if loginData.Email == "" || loginData.Password == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgEmailPasswordRequired)
		return
	}

	user, err := findUserByEmail(loginData.Email)
	if err != nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	if err := comparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, err := generateJWT(user)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, authPayload(user, token))
}

// GetProfile returns the authenticated user's profile.
func GetProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"name":        user.Name,
		"email":       user.Email,
		"affiliation": user.Affiliation,
		"address":     user.Address,
	})
}

// UpdateProfile patches the authenticated user's profile. Fields absent from
// the payload are left untouched; an explicit empty string clears the field.
// A fresh token is returned so client-side claims stay current.
func UpdateProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var body struct {
		Name        *string `json:"name"`
		Email       *string `json:"email"`
		Affiliation *string `json:"affiliation"`
		Address     *string `json:"address"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Name != nil {
		user.Name = strings.TrimSpace(*body.Name)
	}
	if body.Email != nil {
		user.Email = normalizeEmail(*body.Email)
	}
	if body.Affiliation != nil {
		user.Affiliation = *body.Affiliation
	}
	if body.Address != nil {
		user.Address = *body.Address
	}

	if err := initializers.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.Println("Profile update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	token, err := generateJWT(user)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"affiliation": user.Affiliation,
		"address":     user.Address,
		"role":        user.Role,
		"token":       token,
	})
}

// CreateAdmin bootstraps an admin account when the shared secret matches.
func CreateAdmin(ctx *gin.Context) {
	var body struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		AdminSecret string `json:"adminSecret"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.AdminSecret == "" || body.AdminSecret != os.Getenv("ADMIN_SECRET") {
		sendErrorResponse(ctx, http.StatusForbidden, msgInvalidAdminSecret)
		return
	}

	if body.Name == "" || body.Email == "" || body.Password == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgAllFieldsRequired)
		return
	}
	if len(body.Password) < minPasswordLength {
		sendErrorResponse(ctx, http.StatusBadRequest, msgPasswordTooShort)
		return
	}

	if _, err := findUserByEmail(body.Email); err == nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "User already exists with this email")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("Database error during admin check:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	hashedPassword, err := hashPassword(body.Password)
	if err != nil {
		log.Println("Password hashing error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	admin := models.User{
		Name:     strings.TrimSpace(body.Name),
		Email:    normalizeEmail(body.Email),
		Password: hashedPassword,
		Role:     models.RoleAdmin,
	}
	if result := initializers.DB.Create(&admin); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Println("Admin creation error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Server error during admin creation")
		return
	}

	token, err := generateJWT(admin)
	if err != nil {
		log.Println("JWT generation error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, authPayload(admin, token))
}

// GetUsers lists all users, newest first. Admin only.
func GetUsers(ctx *gin.Context) {
	var users []models.User
	if result := initializers.DB.Order("created_at desc").Find(&users); result.Error != nil {
		log.Println("User list error:", result.Error)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// GetUserById returns a single user by id. Admin only.
func GetUserById(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidUserID)
		return
	}

	var user models.User
	if err := initializers.DB.First(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgUserNotFound)
		} else {
			log.Println("User fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch user")
		}
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// UpdateUserByAdmin patches any user, including the role tag. Admin only.
func UpdateUserByAdmin(ctx *gin.Context) {
	userId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidUserID)
		return
	}

	var body struct {
		Name        *string `json:"name"`
		Email       *string `json:"email"`
		Affiliation *string `json:"affiliation"`
		Address     *string `json:"address"`
		Role        *string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	if body.Role != nil && !models.IsValidRole(*body.Role) {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidRole)
		return
	}

	var user models.User
	if err := initializers.DB.First(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgUserNotFound)
		} else {
			log.Println("User fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch user")
		}
		return
	}

	if body.Name != nil {
		user.Name = strings.TrimSpace(*body.Name)
	}
	if body.Email != nil {
		user.Email = normalizeEmail(*body.Email)
	}
	if body.Affiliation != nil {
		user.Affiliation = *body.Affiliation
	}
	if body.Address != nil {
		user.Address = *body.Address
	}
	if body.Role != nil {
		user.Role = *body.Role
	}

	if err := initializers.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.Println("User update error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update user")
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// DeleteUser removes a user account. Self-deletion is rejected. Without
// cascade=true the delete is blocked while a donor profile exists; with it,
// the donor profile and its donations are removed in the same transaction.
func DeleteUser(ctx *gin.Context) {
	caller, ok := currentUser(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	userId, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidUserID)
		return
	}
	if int(caller.ID) == userId {
		sendErrorResponse(ctx, http.StatusBadRequest, msgCannotDeleteSelf)
		return
	}

	var user models.User
	if err := initializers.DB.First(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgUserNotFound)
		} else {
			log.Println("User fetch error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to fetch user")
		}
		return
	}

	cascade := ctx.Query("cascade") == "true"

	var donor models.Donor
	donorErr := initializers.DB.Where("user_id = ?", userId).First(&donor).Error
	hasDonor := donorErr == nil
	if donorErr != nil && !errors.Is(donorErr, gorm.ErrRecordNotFound) {
		log.Println("Donor lookup error:", donorErr)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if hasDonor && !cascade {
		sendErrorResponse(ctx, http.StatusConflict, "Cannot delete user with a donor profile. Add ?cascade=true to also delete the profile and its donations.")
		return
	}

	tx := initializers.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if hasDonor {
		if err := tx.Where("donor_id = ?", donor.ID).Delete(&models.Donation{}).Error; err != nil {
			tx.Rollback()
			log.Println("Donation cascade error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete user")
			return
		}
		if err := tx.Delete(&donor).Error; err != nil {
			tx.Rollback()
			log.Println("Donor cascade error:", err)
			sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete user")
			return
		}
	}
	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		log.Println("User delete error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	if err := tx.Commit().Error; err != nil {
		log.Println("User delete commit error:", err)
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
