package models

import (
	"time"

	"gorm.io/datatypes"
)

// Insight caches one LLM-generated monthly spending narrative. Rows are
// additive; the newest row for a (user, group, year, month) window wins.
type Insight struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID  uint64  `gorm:"not null;index:idx_insights_scope"` // Owning user ID.
	GroupID *uint64 `gorm:"index:idx_insights_scope"`          // Group scope, nil for personal.

	Year  int `gorm:"not null;index:idx_insights_scope"` // Calendar year.
	Month int `gorm:"not null;index:idx_insights_scope"` // Calendar month (1-12).

	Summary             string         `gorm:"type:text;not null"` // Narrative summary paragraph.
	TopCategories       datatypes.JSON `gorm:"type:jsonb"`         // Ranked category entries.
	SavingOpportunities datatypes.JSON `gorm:"type:jsonb"`         // Suggested savings entries.
	Tips                datatypes.JSON `gorm:"type:jsonb"`         // Actionable tips.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
