package models

import "time"

// Expense is a single spend entry, either logged manually or extracted from a
// receipt image.
type Expense struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Amount      float64 `gorm:"type:decimal(20,2);not null"`   // Spend amount.
	Description string  `gorm:"type:text;not null;default:''"` // Free-form description.

	CategoryID uint64    `gorm:"not null;index"`        // Category reference.
	Category   *Category `gorm:"foreignKey:CategoryID"` // Category record.

	UserID uint64 `gorm:"not null;index"`    // Owning user ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning user record.

	GroupID *uint64 `gorm:"index"`              // Group the expense belongs to, nil for personal.
	Group   *Group  `gorm:"foreignKey:GroupID"` // Group record.

	ReceiptID *uint64  `gorm:"index"`                // Parent receipt when extracted from an image.
	Receipt   *Receipt `gorm:"foreignKey:ReceiptID"` // Parent receipt record.

	// Status is pending/approved for business-group expenses, nil otherwise.
	Status *string `gorm:"type:text;index"`

	ImageURL string `gorm:"type:text;not null;default:''"` // Attached image URL, if any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Receipt aggregates the expenses extracted from one uploaded image.
type Receipt struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64  `gorm:"not null;index"` // Uploading user ID.
	GroupID *uint64 `gorm:"index"`          // Group scope, nil for personal.

	Total float64 `gorm:"type:decimal(20,2);not null"`           // Sum of constituent expense amounts.
	Tax   float64 `gorm:"type:decimal(20,2);not null;default:0"` // Extracted tax total.

	ImageURL string `gorm:"type:text;not null"` // Stored receipt image URL.

	Expenses []Expense `gorm:"foreignKey:ReceiptID"` // Constituent expenses.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
