package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

// CategoryHandler serves the category catalogue.
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

type categoryDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// List returns all categories ordered by name.
func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&categories).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query categories failed"})
		return
	}

	dtos := make([]categoryDTO, 0, len(categories))
	for _, cat := range categories {
		dtos = append(dtos, categoryDTO{ID: cat.ID, Name: cat.Name})
	}
	c.JSON(http.StatusOK, gin.H{"categories": dtos})
}
