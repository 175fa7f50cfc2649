package models

import (
	"time"

	"gorm.io/datatypes"
)

// Lead statuses.
const (
	LeadStatusFresh     = "Fresh"
	LeadStatusInitial   = "Initial"
	LeadStatusConverted = "Converted"
)

// LeadRemark is one dated note on a lead.
type LeadRemark struct {
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// Lead represents a CRM lead owned by a user. The composite unique index on
// (user_id, email) backs the per-account email dedup guarantee.
type Lead struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_leads_user_email"` // Owning account public identifier.

	Name    string `gorm:"type:text;not null"`                                   // Lead contact name.
	Email   string `gorm:"type:text;not null;uniqueIndex:idx_leads_user_email"`  // Lead email, unique per account.
	Phone   string `gorm:"type:varchar(32)"`                                     // Lead phone.
	Company string `gorm:"type:text"`                                            // Lead company.
	Type    string `gorm:"type:varchar(32)"`                                     // Architecture or Interior.
	Value   string `gorm:"type:varchar(64)"`                                     // Deal value as displayed, e.g. "₹18,50,000".
	Source  string `gorm:"type:varchar(64)"`                                     // Acquisition source.
	Status  string `gorm:"type:varchar(32);not null;default:'Fresh'"`            // Pipeline status.
	City    string `gorm:"type:varchar(64)"`                                     // Lead city.
	State   string `gorm:"type:varchar(64)"`                                     // Lead state.

	Remarks datatypes.JSONSlice[LeadRemark] // Dated notes.

	ViewUpto  *time.Time `gorm:"index"`                   // View restriction for gated free leads; nil when unlocked.
	FetchedAt time.Time  `gorm:"not null;index"`          // When the lead entered this account; drives monthly metering.
	CreatedAt time.Time  `gorm:"not null"`                // Provider-side creation timestamp.
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
