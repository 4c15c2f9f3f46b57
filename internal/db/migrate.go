package db

import (
	"fmt"

	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate applies the schema and seeds the default categories.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Category{},
		&models.Receipt{},
		&models.Expense{},
		&models.CategoryLimit{},
		&models.Invitation{},
		&models.Insight{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}

	return seedCategories(conn)
}

// seedCategories inserts the default category list, skipping existing names.
func seedCategories(conn *gorm.DB) error {
	rows := make([]models.Category, 0, len(models.DefaultCategories))
	for _, name := range models.DefaultCategories {
		rows = append(rows, models.Category{Name: name})
	}
	if errSeed := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error; errSeed != nil {
		return fmt.Errorf("db: seed categories: %w", errSeed)
	}
	return nil
}
