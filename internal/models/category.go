package models

import "time"

// Category is an expense category, seeded from a fixed default list at migrate.
type Category struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:text;not null;uniqueIndex"` // Unique category name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// DefaultCategories is the seed list applied on first migration.
var DefaultCategories = []string{
	"Food",
	"Groceries",
	"Transport",
	"Housing",
	"Utilities",
	"Health",
	"Entertainment",
	"Shopping",
	"Travel",
	"Education",
	"Subscriptions",
	"Other",
}
