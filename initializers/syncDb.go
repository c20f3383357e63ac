package initializers

import (
	"log"

	"github.com/Eisman15/donation/models"
)

func SyncDatabase() {
	DB.AutoMigrate(&models.User{}, &models.Cause{}, &models.Donor{}, &models.Donation{}, &models.Task{})
	log.Println("Database synced successfully.")
}
