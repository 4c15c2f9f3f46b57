// Package summary computes total and per-category spend over a date range.
package summary

import (
	"context"
	"time"

	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

// CategoryTotal is one category's aggregated spend.
type CategoryTotal struct {
	CategoryID uint64  `json:"categoryId"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
}

// Summary is the aggregation result for one user/group scope and range.
type Summary struct {
	TotalAmount            float64         `json:"totalAmount"`
	TotalAmountPerCategory []CategoryTotal `json:"totalAmountPerCategory"`
}

// Compute aggregates expenses for a user within [start, end].
//
// Receipt-sourced expenses are ranged by their receipt's creation time, manual
// ones by their own creation time. That keeps summaries consistent with how
// receipts group multiple expenses logged in one upload.
func Compute(ctx context.Context, conn *gorm.DB, userID uint64, groupID *uint64, start, end time.Time) (Summary, error) {
	query := conn.WithContext(ctx).
		Model(&models.Expense{}).
		Select("expenses.category_id AS category_id, categories.name AS name, SUM(expenses.amount) AS amount").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Joins("LEFT JOIN receipts ON receipts.id = expenses.receipt_id").
		Where("expenses.user_id = ?", userID).
		Where("COALESCE(receipts.created_at, expenses.created_at) BETWEEN ? AND ?", start.UTC(), end.UTC())

	if groupID == nil {
		query = query.Where("expenses.group_id IS NULL")
	} else {
		query = query.Where("expenses.group_id = ?", *groupID)
	}

	var rows []CategoryTotal
	if errScan := query.
		Group("expenses.category_id, categories.name").
		Order("amount DESC").
		Scan(&rows).Error; errScan != nil {
		return Summary{}, errScan
	}

	result := Summary{TotalAmountPerCategory: rows}
	for _, row := range rows {
		result.TotalAmount += row.Amount
	}
	if result.TotalAmountPerCategory == nil {
		result.TotalAmountPerCategory = []CategoryTotal{}
	}
	return result, nil
}
