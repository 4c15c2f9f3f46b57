package models

import "time"

// CategoryLimit is a per-user, per-period spending ceiling for one category,
// optionally scoped to a group. BASIC accounts hold at most four per period.
type CategoryLimit struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_limits_scope"` // Owning user ID.

	CategoryID uint64    `gorm:"not null;index"`        // Limited category ID.
	Category   *Category `gorm:"foreignKey:CategoryID"` // Category record.

	GroupID *uint64 `gorm:"index:idx_limits_scope"` // Group scope, nil for personal limits.

	Year  int `gorm:"not null;index:idx_limits_scope"` // Calendar year the limit applies to.
	Month int `gorm:"not null;index:idx_limits_scope"` // Calendar month (1-12).

	Limit float64 `gorm:"column:limit_amount;type:decimal(20,2);not null"` // Spending ceiling.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
