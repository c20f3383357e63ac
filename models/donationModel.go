package models

import (
	"fmt"
	"time"

	"github.com/Eisman15/donation/utils"
	"gorm.io/gorm"
)

const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
	DonationStatusRefunded  = "refunded"
	DonationStatusCancelled = "cancelled"
)

var PaymentGateways = []string{"stripe", "paypal", "square", "bank"}

func IsValidDonationStatus(status string) bool {
	switch status {
	case DonationStatusPending, DonationStatusCompleted, DonationStatusFailed,
		DonationStatusRefunded, DonationStatusCancelled:
		return true
	}
	return false
}

func IsValidPaymentGateway(gateway string) bool {
	for _, g := range PaymentGateways {
		if gateway == g {
			return true
		}
	}
	return false
}

type PaymentInfo struct {
	Method        string `json:"method"`
	TransactionID string `json:"transactionId" gorm:"uniqueIndex;size:191"`
	Gateway       string `json:"gateway"`
	Currency      string `json:"currency" gorm:"default:USD"`
}

type Receipt struct {
	ReceiptNumber       string  `json:"receiptNumber"`
	ReceiptURL          string  `json:"receiptUrl"`
	TaxDeductible       bool    `json:"taxDeductible" gorm:"default:true"`
	TaxDeductibleAmount float64 `json:"taxDeductibleAmount"`
}

type DonationMetadata struct {
	IsAnonymous    bool   `json:"isAnonymous"`
	DonorMessage   string `json:"donorMessage" gorm:"size:500"`
	CampaignSource string `json:"campaignSource"`
	IPAddress      string `json:"ipAddress"`
	UserAgent      string `json:"userAgent"`
}

type DonationTimeline struct {
	InitiatedAt time.Time  `json:"initiatedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	FailedAt    *time.Time `json:"failedAt"`
	RefundedAt  *time.Time `json:"refundedAt"`
}

type Donation struct {
	gorm.Model
	DonorID     int              `json:"donorId"`
	Donor       Donor            `json:"donor" gorm:"foreignKey:DonorID"`
	CauseID     int              `json:"causeId"`
	Cause       Cause            `json:"cause" gorm:"foreignKey:CauseID"`
	Amount      float64          `json:"amount"`
	PaymentInfo PaymentInfo      `json:"paymentInfo" gorm:"embedded;embeddedPrefix:payment_"`
	Status      string           `json:"status" gorm:"default:pending;index"`
	Receipt     Receipt          `json:"receipt" gorm:"embedded;embeddedPrefix:receipt_"`
	Metadata    DonationMetadata `json:"metadata" gorm:"embedded;embeddedPrefix:meta_"`
	Timeline    DonationTimeline `json:"timeline" gorm:"embedded;embeddedPrefix:time_"`
}

// BeforeSave stamps the receipt the first time a donation is saved as
// completed. The receipt number and tax-deductible amount are written once
// and never recomputed on later saves.
func (donation *Donation) BeforeSave(tx *gorm.DB) error {
	if donation.Status == DonationStatusCompleted && donation.Receipt.ReceiptNumber == "" {
		suffix, err := utils.GenerateCode(9)
		if err != nil {
			return err
		}
		donation.Receipt.ReceiptNumber = fmt.Sprintf("RCP-%d-%s", time.Now().UnixMilli(), suffix)
		if donation.Receipt.TaxDeductible {
			donation.Receipt.TaxDeductibleAmount = donation.Amount
		} else {
			donation.Receipt.TaxDeductibleAmount = 0
		}
	}
	return nil
}
