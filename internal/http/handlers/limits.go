package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/period"
	"gorm.io/gorm"
)

// basicLimitCap is the number of category limits a BASIC account may hold per
// calendar month.
const basicLimitCap = 4

// LimitHandler handles per-category monthly spending limits.
type LimitHandler struct {
	db *gorm.DB
}

// NewLimitHandler constructs a LimitHandler.
func NewLimitHandler(db *gorm.DB) *LimitHandler {
	return &LimitHandler{db: db}
}

// limitDTO is the category limit response payload.
type limitDTO struct {
	ID       uint64  `json:"id"`
	Category string  `json:"category"`
	GroupID  *uint64 `json:"groupId,omitempty"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Limit    float64 `json:"limit"`
}

func toLimitDTO(limit models.CategoryLimit) limitDTO {
	dto := limitDTO{
		ID:      limit.ID,
		GroupID: limit.GroupID,
		Year:    limit.Year,
		Month:   limit.Month,
		Limit:   limit.Limit,
	}
	if limit.Category != nil {
		dto.Category = limit.Category.Name
	}
	return dto
}

// createLimitRequest defines the request body for limit creation.
type createLimitRequest struct {
	Category string  `json:"category"`
	GroupID  *uint64 `json:"groupId"`
	Limit    float64 `json:"limit"`
}

// Create sets a spending limit on a category for the current month. BASIC
// accounts are capped at four limits per period; one limit per category.
func (h *LimitHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createLimitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Category == "" || body.Limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and a positive limit are required"})
		return
	}

	category, ok := h.resolveCategory(c, body.Category)
	if !ok {
		return
	}

	year, month := period.Current(time.Now())
	limit := models.CategoryLimit{
		UserID:     userID,
		CategoryID: category.ID,
		GroupID:    body.GroupID,
		Year:       year,
		Month:      int(month),
		Limit:      body.Limit,
	}

	role := getUserRole(c)
	var capped, duplicate bool
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		scoped := tx.Model(&models.CategoryLimit{}).
			Where("user_id = ? AND year = ? AND month = ?", userID, year, int(month))
		if body.GroupID == nil {
			scoped = scoped.Where("group_id IS NULL")
		} else {
			scoped = scoped.Where("group_id = ?", *body.GroupID)
		}

		var existing int64
		if errCount := scoped.Session(&gorm.Session{}).Where("category_id = ?", category.ID).Count(&existing).Error; errCount != nil {
			return errCount
		}
		if existing > 0 {
			duplicate = true
			return gorm.ErrDuplicatedKey
		}

		if role == models.RoleBasic {
			var total int64
			if errCount := scoped.Count(&total).Error; errCount != nil {
				return errCount
			}
			if total >= basicLimitCap {
				capped = true
				return gorm.ErrInvalidData
			}
		}
		return tx.Create(&limit).Error
	})
	if errTx != nil {
		switch {
		case duplicate:
			c.JSON(http.StatusConflict, gin.H{"error": "limit already set for this category"})
		case capped:
			c.JSON(http.StatusForbidden, gin.H{"error": "basic accounts may hold at most four limits per month"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create limit failed"})
		}
		return
	}

	limit.Category = &category
	c.JSON(http.StatusCreated, gin.H{"limit": toLimitDTO(limit)})
}

// updateLimitRequest defines the request body for limit updates.
type updateLimitRequest struct {
	ID    uint64  `json:"id"`
	Limit float64 `json:"limit"`
}

// Update changes the amount of one of the caller's current-month limits.
// Limits from past periods are immutable.
func (h *LimitHandler) Update(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body updateLimitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ID == 0 || body.Limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and a positive limit are required"})
		return
	}

	year, month := period.Current(time.Now())
	var limit models.CategoryLimit
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Category").
		Where("id = ? AND user_id = ? AND year = ? AND month = ?", body.ID, userID, year, int(month)).
		First(&limit).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "limit not found for the current month"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query limit failed"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&limit).
		Update("limit_amount", body.Limit).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update limit failed"})
		return
	}
	limit.Limit = body.Limit
	c.JSON(http.StatusOK, gin.H{"limit": toLimitDTO(limit)})
}

// List returns the caller's limits for the current month.
func (h *LimitHandler) List(c *gin.Context) {
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
	query := h.db.WithContext(c.Request.Context()).
		Preload("Category").
		Where("user_id = ? AND year = ? AND month = ?", userID, year, int(month))
	if groupID == nil {
		query = query.Where("group_id IS NULL")
	} else {
		query = query.Where("group_id = ?", *groupID)
	}

	var limits []models.CategoryLimit
	if errFind := query.Order("created_at ASC").Find(&limits).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query limits failed"})
		return
	}

	dtos := make([]limitDTO, 0, len(limits))
	for _, limit := range limits {
		dtos = append(dtos, toLimitDTO(limit))
	}
	c.JSON(http.StatusOK, gin.H{"limits": dtos})
}

// resolveCategory finds a category by exact name, writing the error response
// itself on failure.
func (h *LimitHandler) resolveCategory(c *gin.Context, name string) (models.Category, bool) {
	var category models.Category
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("name = ?", name).
		First(&category).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
			return models.Category{}, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query category failed"})
		return models.Category{}, false
	}
	return category, true
}
