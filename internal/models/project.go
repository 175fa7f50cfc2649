package models

import "time"

// Project represents a construction/design project owned by a user.
// Project rows reference the numeric user primary key; lead rows reference
// the public identifier instead (the two tracks resolve accounts
// differently and the asymmetry is kept).
type Project struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user primary key.
	User   *User  `gorm:"foreignKey:UserID"`

	Title          string  `gorm:"type:text;not null"`        // Project title.
	Description    string  `gorm:"type:text"`                 // Project description.
	Size           float64 `gorm:"not null"`                  // Built-up area in sq. ft.
	ProjectType    string  `gorm:"type:varchar(64);not null"` // Architecture, Interior, ...
	BuildingConfig string  `gorm:"type:varchar(128)"`         // Configuration, e.g. "G+2".
	Address        string  `gorm:"type:text"`                 // Site address.

	PurchaseIncharge string   `gorm:"type:text"`          // Procurement contact, optional.
	PurchaseAmount   *float64 `gorm:"type:decimal(14,2)"` // Procurement budget, optional.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
