package models

import "gorm.io/gorm"

type Cause struct {
	gorm.Model
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	GoalAmount    float64 `json:"goalAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Image         string  `json:"image"`
	Category      string  `json:"category"`
	CreatedByID   int     `json:"createdById"`
	CreatedBy     User    `json:"createdBy" gorm:"foreignKey:CreatedByID"`
	IsActive      bool    `json:"isActive" gorm:"default:true"`
}
