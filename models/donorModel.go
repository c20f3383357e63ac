package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DonorStatusActive    = "active"
	DonorStatusInactive  = "inactive"
	DonorStatusSuspended = "suspended"
)

var PaymentMethods = []string{"credit_card", "debit_card", "bank_transfer", "paypal"}

func IsValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if method == m {
			return true
		}
	}
	return false
}

type PersonalInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type DonorPreferences struct {
	IsAnonymous            bool   `json:"isAnonymous"`
	EmailNotifications     bool   `json:"emailNotifications" gorm:"default:true"`
	Newsletter             bool   `json:"newsletter" gorm:"default:true"`
	PreferredPaymentMethod string `json:"preferredPaymentMethod" gorm:"default:credit_card"`
}

type DonorStatistics struct {
	TotalDonated      float64    `json:"totalDonated"`
	NumberOfDonations int        `json:"numberOfDonations"`
	CausesSupported   int        `json:"causesSupported"`
	FirstDonationDate *time.Time `json:"firstDonationDate"`
	LastDonationDate  *time.Time `json:"lastDonationDate"`
}

// YearlyDeduction is one entry of the per-year tax-deductible ledger stored
// as a JSON column on the donor.
type YearlyDeduction struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

type TaxInfo struct {
	TaxIDNumber         string         `json:"taxIdNumber"`
	YearlyTaxDeductible datatypes.JSON `json:"yearlyTaxDeductible"`
}

type Donor struct {
	gorm.Model
	UserID       int              `json:"userId" gorm:"uniqueIndex"`
	User         User             `json:"user" gorm:"foreignKey:UserID"`
	PersonalInfo PersonalInfo     `json:"personalInfo" gorm:"embedded;embeddedPrefix:personal_"`
	Preferences  DonorPreferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	Statistics   DonorStatistics  `json:"statistics" gorm:"embedded;embeddedPrefix:stats_"`
	TaxInfo      TaxInfo          `json:"taxInfo" gorm:"embedded;embeddedPrefix:tax_"`
	Status       string           `json:"status" gorm:"default:active"`
}

// AddYearlyDeduction adds amount to the given year's entry of the JSON tax
// ledger, creating the entry if the year is not present yet.
func AddYearlyDeduction(ledger datatypes.JSON, year int, amount float64) datatypes.JSON {
	var entries []YearlyDeduction
	if len(ledger) > 0 {
		if err := json.Unmarshal(ledger, &entries); err != nil {
			entries = nil
		}
	}

	found := false
	for i := range entries {
		if entries[i].Year == year {
			entries[i].Amount += amount
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, YearlyDeduction{Year: year, Amount: amount})
	}

	updated, err := json.Marshal(entries)
	if err != nil {
		return ledger
	}
	return datatypes.JSON(updated)
}
