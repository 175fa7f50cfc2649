package models

import (
	"time"

	"gorm.io/datatypes"
)

// Address is one entry in a user's address book.
type Address struct {
	ID        string    `json:"id"`
	Address1  string    `json:"address1"`
	Address2  string    `json:"address2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BankDetails holds a user's payout account information.
type BankDetails struct {
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	Branch        string `json:"branch"`
	IFSC          string `json:"ifsc"`
}

// User represents a marketplace account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:varchar(64);not null;uniqueIndex"` // Public account identifier.

	OrgName       string `gorm:"type:text;not null"`    // Organization name.
	ContactPerson string `gorm:"type:text"`             // Primary contact person.
	Designation   string `gorm:"type:text"`             // Contact person designation.
	Email         string `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Phone         string `gorm:"type:text"`             // Contact phone.
	Password      string `gorm:"type:text;not null"`    // Hashed password.

	GSTNumber   string `gorm:"type:varchar(32)"`       // GST registration number.
	GSTVerified bool   `gorm:"not null;default:false"` // Whether the GST number passed verification.

	EmailVerified bool   `gorm:"not null;default:false"` // Whether signup OTP verification completed.
	OTPSecret     string `gorm:"type:text"`              // Secret for email verification codes.

	Logo        string                           `gorm:"type:text"` // Logo URL.
	Addresses   datatypes.JSONSlice[Address]     // Address book.
	BankDetails *datatypes.JSONType[BankDetails] // Payout account details.

	IsSubscribed    bool                            `gorm:"not null;default:false;index"` // Main-track entitlement flag.
	IsCrmSubscribed bool                            `gorm:"not null;default:false;index"` // CRM-track entitlement flag.
	PlanInfo        datatypes.JSONType[PlanInfo]    // Main-track plan document.
	CRMPlanInfo     datatypes.JSONType[CRMPlanInfo] // CRM-track plan document.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
