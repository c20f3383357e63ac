package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleDonor = "donor"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex;size:191"`
	Password    string `json:"-"`
	Role        string `json:"role" gorm:"default:user"`
	Affiliation string `json:"affiliation"`
	Address     string `json:"address"`
}

type LoginData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleDonor || role == RoleAdmin
}
