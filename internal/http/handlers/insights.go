package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/period"
	"github.com/pemba1s1/Expenso-sub000/internal/summary"
	"gorm.io/datatypes"
)

// insightDTO is the monthly insight response payload. The JSON columns are
// emitted verbatim so cached and fresh insights serialize identically.
type insightDTO struct {
	ID                  uint64          `json:"id"`
	Year                int             `json:"year"`
	Month               int             `json:"month"`
	Summary             string          `json:"summary"`
	TopCategories       json.RawMessage `json:"topCategories"`
	SavingOpportunities json.RawMessage `json:"savingOpportunities"`
	Tips                json.RawMessage `json:"tips"`
	CreatedAt           string          `json:"createdAt"`
}

func toInsightDTO(insight models.Insight) insightDTO {
	return insightDTO{
		ID:                  insight.ID,
		Year:                insight.Year,
		Month:               insight.Month,
		Summary:             insight.Summary,
		TopCategories:       rawOrEmptyList(insight.TopCategories),
		SavingOpportunities: rawOrEmptyList(insight.SavingOpportunities),
		Tips:                rawOrEmptyList(insight.Tips),
		CreatedAt:           insight.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func rawOrEmptyList(data datatypes.JSON) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(data)
}

// MonthlyInsight returns the LLM-generated narrative for a month, serving the
// newest cached row unless newInsight=true forces regeneration.
func (h *ExpenseHandler) MonthlyInsight(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	groupID, okGroup := parseOptionalID(c.Query("groupId"))
	if !okGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid groupId"})
		return
	}

	year, month := period.Current(time.Now())
	if yearStr, monthStr := c.Query("year"), c.Query("month"); yearStr != "" || monthStr != "" {
		parsedYear, errYear := strconv.Atoi(yearStr)
		if errYear != nil || parsedYear < 1970 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		parsedMonth, errMonth := period.MonthFromName(monthStr)
		if errMonth != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month name"})
			return
		}
		year, month = parsedYear, parsedMonth
	}

	regenerate := c.Query("newInsight") == "true"
	if !regenerate {
		var cached models.Insight
		query := h.db.WithContext(c.Request.Context()).
			Where("user_id = ? AND year = ? AND month = ?", userID, year, int(month))
		if groupID == nil {
			query = query.Where("group_id IS NULL")
		} else {
			query = query.Where("group_id = ?", *groupID)
		}
		if errFind := query.Order("created_at DESC").First(&cached).Error; errFind == nil {
			c.JSON(http.StatusOK, gin.H{"insight": toInsightDTO(cached)})
			return
		}
	}

	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insight generation unavailable"})
		return
	}

	start, end := period.MonthRange(year, month)
	result, errCompute := summary.Compute(c.Request.Context(), h.db, userID, groupID, start, end)
	if errCompute != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "compute summary failed"})
		return
	}

	shares := make([]llm.CategoryShare, 0, len(result.TotalAmountPerCategory))
	for _, entry := range result.TotalAmountPerCategory {
		share := llm.CategoryShare{Name: entry.Name, Amount: entry.Amount}
		if result.TotalAmount > 0 {
			share.Percent = entry.Amount / result.TotalAmount * 100
		}
		shares = append(shares, share)
	}

	generated, errGenerate := h.llm.GenerateInsight(c.Request.Context(), llm.InsightRequest{
		Month:      month.String(),
		Year:       year,
		Total:      result.TotalAmount,
		Categories: shares,
	})
	if errGenerate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate insight failed"})
		return
	}

	insight := models.Insight{
		UserID:  userID,
		GroupID: groupID,
		Year:    year,
		Month:   int(month),
		Summary: generated.Summary,
	}
	var errMarshal error
	if insight.TopCategories, errMarshal = marshalJSONColumn(generated.TopCategories); errMarshal == nil {
		if insight.SavingOpportunities, errMarshal = marshalJSONColumn(generated.SavingOpportunities); errMarshal == nil {
			insight.Tips, errMarshal = marshalJSONColumn(generated.Tips)
		}
	}
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode insight failed"})
		return
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&insight).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store insight failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insight": toInsightDTO(insight)})
}

func marshalJSONColumn(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	data, errMarshal := json.Marshal(items)
	if errMarshal != nil {
		return nil, errMarshal
	}
	return datatypes.JSON(data), nil
}
