package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the Donation Platform API ❤️.

The following are the endpoints for this API:

AUTH
- POST "/api/auth/register" - Create user account
- POST "/api/auth/login" - Access user account
- GET/PUT "/api/auth/profile" - Read or update own profile
- POST "/api/auth/admin/create" - Bootstrap admin account
- GET/PUT/DELETE "/api/auth/admin/users/:id" - Manage users (admin)

CAUSES
- GET "/api/causes" - List causes (?active=true to filter)
- GET "/api/causes/:id" - Get cause by ID
- POST "/api/causes" - Create cause (admin)
- PUT "/api/causes/:id" - Update cause (admin)
- PUT "/api/causes/:id/archive" - Archive cause (admin)
- DELETE "/api/causes/:id" - Delete cause (admin, ?cascade=true)
- POST "/api/causes/:id/donate" - Donate to a cause
- POST "/api/causes/:id/image" - Upload cause image (admin)

DONORS
- POST "/api/donors/create" - Create donor profile
- GET/PUT "/api/donors/profile" - Read or update own donor profile
- GET "/api/donors" - List donors (admin)
- GET/DELETE "/api/donors/:id" - Manage donor (admin)

DONATIONS
- POST "/api/donations" - Record a donation
- GET "/api/donations" - List donations (own, or all for admin)
- GET "/api/donations/:id" - Get donation by ID
- PATCH "/api/donations/:id/status" - Update donation status (admin)
- POST "/api/donations/webhook" - Payment gateway notifications

TASKS
- GET/POST "/api/tasks" - List or create own tasks
- PUT/DELETE "/api/tasks/:id" - Update or delete own task`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
