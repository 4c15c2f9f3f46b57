package models

import "time"

// Invitation asks an email address to join a group. Created by a group admin,
// accepted by the invitee (who may not have an account yet).
type Invitation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email string `gorm:"type:text;not null;index"` // Invitee email.

	GroupID uint64 `gorm:"not null;index"`     // Target group ID.
	Group   *Group `gorm:"foreignKey:GroupID"` // Target group record.

	InvitedByID uint64 `gorm:"not null"`               // Inviting admin user ID.
	InvitedBy   *User  `gorm:"foreignKey:InvitedByID"` // Inviting admin record.

	Status string `gorm:"type:text;not null;default:'pending'"` // pending or accepted.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
