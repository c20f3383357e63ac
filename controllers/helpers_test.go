package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Eisman15/donation/initializers"
	"github.com/Eisman15/donation/models"
	"github.com/Eisman15/donation/routes"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("ADMIN_SECRET", "admin-secret")
	t.Setenv("GATEWAY_STATUS_URL", "")
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Cause{}, &models.Donor{}, &models.Donation{}, &models.Task{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	initializers.DB = db
	return db
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := gin.New()
	routes.DefaultRoutes(server)
	routes.AuthRoutes(server)
	routes.CauseRoutes(server)
	routes.DonorRoutes(server)
	routes.DonationRoutes(server)
	routes.TaskRoutes(server)
	return server
}

func createTestUser(t *testing.T, db *gorm.DB, name, email, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Name: name, Email: email, Password: string(hash), Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestDonor(t *testing.T, db *gorm.DB, user models.User) models.Donor {
	t.Helper()
	donor := models.Donor{
		UserID: int(user.ID),
		PersonalInfo: models.PersonalInfo{FirstName: "Test", LastName: "Donor"},
		Preferences: models.DonorPreferences{
			EmailNotifications:     true,
			Newsletter:             true,
			PreferredPaymentMethod: "credit_card",
		},
		Status: models.DonorStatusActive,
	}
	if err := db.Create(&donor).Error; err != nil {
		t.Fatalf("create donor: %v", err)
	}
	return donor
}

func createTestCause(t *testing.T, db *gorm.DB, creator models.User, active bool) models.Cause {
	t.Helper()
	cause := models.Cause{
		Title:       "Clean Water",
		Description: "Wells for rural communities",
		GoalAmount:  1000,
		Category:    "environment",
		CreatedByID: int(creator.ID),
		IsActive:    true,
	}
	if err := db.Create(&cause).Error; err != nil {
		t.Fatalf("create cause: %v", err)
	}
	if !active {
		// The column default is true, so inactive test causes are flipped
		// after the insert.
		if err := db.Model(&cause).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate cause: %v", err)
		}
	}
	return cause
}

func createTestDonation(t *testing.T, db *gorm.DB, donor models.Donor, cause models.Cause, status, transactionId string) models.Donation {
	t.Helper()
	donation := models.Donation{
		DonorID: int(donor.ID),
		CauseID: int(cause.ID),
		Amount:  25,
		Status:  status,
		PaymentInfo: models.PaymentInfo{
			Method:        "credit_card",
			TransactionID: transactionId,
			Gateway:       "stripe",
			Currency:      "USD",
		},
		Timeline: models.DonationTimeline{InitiatedAt: time.Now()},
	}
	if err := db.Create(&donation).Error; err != nil {
		t.Fatalf("create donation: %v", err)
	}
	return donation
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   user.ID,
		"role": user.Role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(t *testing.T, server *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, w.Body.String())
	}
}
