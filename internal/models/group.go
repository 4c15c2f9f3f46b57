package models

import "time"

// Group is a shared expense-tracking context with members and roles.
type Group struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string    `gorm:"type:text;not null"`                  // Display name.
	Type GroupType `gorm:"type:text;not null;default:'NORMAL'"` // NORMAL or BUSINESS.

	Memberships []Membership `gorm:"foreignKey:GroupID"` // Member rows.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Membership links a user to a group with a role. One row per (user, group).
type Membership struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64 `gorm:"not null;uniqueIndex:idx_memberships_user_group"` // Member user ID.
	GroupID uint64 `gorm:"not null;uniqueIndex:idx_memberships_user_group"` // Target group ID.

	User  *User  `gorm:"foreignKey:UserID"`  // Member record.
	Group *Group `gorm:"foreignKey:GroupID"` // Group record.

	Role MembershipRole `gorm:"type:text;not null;default:'member'"` // admin or member.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
