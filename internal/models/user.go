package models

import "time"

// User is a registered account, created by password signup, Google OAuth or
// invitation acceptance.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string  `gorm:"type:text;not null;uniqueIndex"` // Login email.
	Password string  `gorm:"type:text;not null;default:''"`  // bcrypt hash; empty for OAuth-only accounts.
	GoogleID *string `gorm:"type:text;index"`                // Google subject ID when linked.

	Name    string `gorm:"type:text;not null;default:''"` // Display name.
	Picture string `gorm:"type:text;not null;default:''"` // Avatar URL.

	Verified    bool    `gorm:"not null;default:false"` // Email verification state.
	VerifyToken *string `gorm:"type:text;index"`        // Outstanding verification token, if any.

	Role Role `gorm:"type:text;not null;default:'BASIC'"` // Subscription tier.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
