package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbpkg "github.com/pemba1s1/Expenso-sub000/internal/db"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/period"
	"github.com/pemba1s1/Expenso-sub000/internal/storage"
	"github.com/pemba1s1/Expenso-sub000/internal/summary"
	"gorm.io/gorm"
)

// ExpenseHandler handles expense and receipt creation, listing, approval,
// summaries and monthly insights.
type ExpenseHandler struct {
	db    *gorm.DB
	llm   llm.Client
	store storage.Store
}

// NewExpenseHandler constructs an ExpenseHandler.
func NewExpenseHandler(db *gorm.DB, llmClient llm.Client, store storage.Store) *ExpenseHandler {
	return &ExpenseHandler{db: db, llm: llmClient, store: store}
}

// expenseDTO is the expense response payload.
type expenseDTO struct {
	ID          uint64  `json:"id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	GroupID     *uint64 `json:"groupId,omitempty"`
	ReceiptID   *uint64 `json:"receiptId,omitempty"`
	Status      *string `json:"status,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

func toExpenseDTO(expense models.Expense) expenseDTO {
	dto := expenseDTO{
		ID:          expense.ID,
		Amount:      expense.Amount,
		Description: expense.Description,
		GroupID:     expense.GroupID,
		ReceiptID:   expense.ReceiptID,
		Status:      expense.Status,
		ImageURL:    expense.ImageURL,
		CreatedAt:   expense.CreatedAt.UTC().Format(time.RFC3339),
	}
	if expense.Category != nil {
		dto.Category = expense.Category.Name
	}
	return dto
}

// Create logs a manual expense from a multipart form, with an optional
// attached receipt image.
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	amount, errAmount := strconv.ParseFloat(strings.TrimSpace(c.PostForm("amount")), 64)
	if errAmount != nil || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	description := strings.TrimSpace(c.PostForm("description"))
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing description"})
		return
	}
	categoryName := strings.TrimSpace(c.PostForm("category"))
	if categoryName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing category"})
		return
	}

	groupID, okGroup := parseOptionalID(c.PostForm("groupId"))
	if !okGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid groupId"})
		return
	}

	category, ok := h.resolveCategory(c, categoryName)
	if !ok {
		return
	}

	var status *string
	if groupID != nil {
		group, okLoad := h.loadMemberGroup(c, userID, *groupID)
		if !okLoad {
			return
		}
		if group.Type == models.GroupTypeBusiness {
			pending := models.ExpenseStatusPending
			status = &pending
		}
	}

	imageURL := ""
	if data, filename, contentType, present, errRead := readUpload(c, "receiptImage"); errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read uploaded image failed"})
		return
	} else if present {
		url, errPut := h.store.Put(c.Request.Context(), filename, data, contentType)
		if errPut != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
			return
		}
		imageURL = url
	}

	expense := models.Expense{
		Amount:      amount,
		Description: description,
		CategoryID:  category.ID,
		UserID:      userID,
		GroupID:     groupID,
		Status:      status,
		ImageURL:    imageURL,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&expense).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create expense failed"})
		return
	}
	expense.Category = &category

	c.JSON(http.StatusCreated, gin.H{"expense": toExpenseDTO(expense)})
}

// CreateFromReceipt uploads a receipt image, extracts line items with the
// LLM and creates one expense per item plus a receipt row linking them, all
// in a single transaction.
func (h *ExpenseHandler) CreateFromReceipt(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receipt extraction unavailable"})
		return
	}

	data, filename, contentType, present, errRead := readUpload(c, "receiptImage")
	if errRead != nil || !present {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing receiptImage"})
		return
	}

	groupID, okGroup := parseOptionalID(c.PostForm("groupId"))
	if !okGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid groupId"})
		return
	}

	var status *string
	if groupID != nil {
		group, okLoad := h.loadMemberGroup(c, userID, *groupID)
		if !okLoad {
			return
		}
		if group.Type == models.GroupTypeBusiness {
			pending := models.ExpenseStatusPending
			status = &pending
		}
	}

	var categories []models.Category
	if errFind := h.db.WithContext(c.Request.Context()).Order("name ASC").Find(&categories).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query categories failed"})
		return
	}
	categoryByName := make(map[string]models.Category, len(categories))
	categoryNames := make([]string, 0, len(categories))
	for _, cat := range categories {
		categoryByName[strings.ToLower(cat.Name)] = cat
		categoryNames = append(categoryNames, cat.Name)
	}

	imageURL, errPut := h.store.Put(c.Request.Context(), filename, data, contentType)
	if errPut != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}

	extraction, errExtract := h.llm.ExtractReceipt(c.Request.Context(), data, contentType, categoryNames)
	if errExtract != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "receipt extraction failed"})
		return
	}
	if len(extraction.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no items found on receipt"})
		return
	}
	for _, item := range extraction.Items {
		if strings.TrimSpace(item.Category) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "extracted item is missing a category"})
			return
		}
		if _, known := categoryByName[strings.ToLower(strings.TrimSpace(item.Category))]; !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "extracted item has unknown category: " + item.Category})
			return
		}
	}

	receipt := models.Receipt{
		UserID:   userID,
		GroupID:  groupID,
		Tax:      extraction.Tax,
		ImageURL: imageURL,
	}
	expenses := make([]models.Expense, 0, len(extraction.Items))

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		total := 0.0
		for _, item := range extraction.Items {
			total += item.Price
		}
		receipt.Total = total
		if errCreate := tx.Create(&receipt).Error; errCreate != nil {
			return errCreate
		}

		for _, item := range extraction.Items {
			cat := categoryByName[strings.ToLower(strings.TrimSpace(item.Category))]
			expense := models.Expense{
				Amount:      item.Price,
				Description: item.Name,
				CategoryID:  cat.ID,
				UserID:      userID,
				GroupID:     groupID,
				ReceiptID:   &receipt.ID,
				Status:      status,
				ImageURL:    imageURL,
			}
			if errCreate := tx.Create(&expense).Error; errCreate != nil {
				return errCreate
			}
			expenses = append(expenses, expense)
		}
		return nil
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create receipt failed"})
		return
	}

	dtos := make([]expenseDTO, 0, len(expenses))
	for _, expense := range expenses {
		dtos = append(dtos, toExpenseDTO(expense))
	}
	c.JSON(http.StatusCreated, gin.H{
		"receipt": gin.H{
			"id":       receipt.ID,
			"total":    receipt.Total,
			"tax":      receipt.Tax,
			"imageUrl": receipt.ImageURL,
			"expenses": dtos,
		},
	})
}

// approveExpenseRequest defines the request body for approval.
type approveExpenseRequest struct {
	ExpenseID uint64 `json:"expenseId"`
}

// Approve settles a pending business-group expense. Group admins only.
func (h *ExpenseHandler) Approve(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body approveExpenseRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ExpenseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing expenseId"})
		return
	}

	var expense models.Expense
	if errFind := h.db.WithContext(c.Request.Context()).First(&expense, body.ExpenseID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query expense failed"})
		return
	}
	if expense.GroupID == nil || expense.Status == nil || *expense.Status != models.ExpenseStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expense is not awaiting approval"})
		return
	}

	isAdmin, errCheck := isGroupAdmin(c, h.db, userID, *expense.GroupID)
	if errCheck != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query membership failed"})
		return
	}
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "group admin required"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&expense).
		Update("status", models.ExpenseStatusApproved).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "approve expense failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true, "expenseId": expense.ID})
}

// ListUser returns the caller's expenses, optionally filtered by month and
// group scope.
func (h *ExpenseHandler) ListUser(c *gin.Context) {
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

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Expense{}).
		Preload("Category").
		Joins("LEFT JOIN receipts ON receipts.id = expenses.receipt_id").
		Where("expenses.user_id = ?", userID)
	if groupID == nil {
		query = query.Where("expenses.group_id IS NULL")
	} else {
		query = query.Where("expenses.group_id = ?", *groupID)
	}

	if yearStr, monthStr := c.Query("year"), c.Query("month"); yearStr != "" || monthStr != "" {
		start, end, okRange := h.parseMonthRange(c, yearStr, monthStr)
		if !okRange {
			return
		}
		query = query.Where("COALESCE(receipts.created_at, expenses.created_at) BETWEEN ? AND ?", start, end)
	}

	var expenses []models.Expense
	if errFind := query.Order("expenses.created_at DESC").Find(&expenses).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query expenses failed"})
		return
	}

	dtos := make([]expenseDTO, 0, len(expenses))
	for _, expense := range expenses {
		dtos = append(dtos, toExpenseDTO(expense))
	}
	c.JSON(http.StatusOK, gin.H{"expenses": dtos})
}

// Get returns one expense. The caller must own it or belong to its group.
func (h *ExpenseHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	expenseID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || expenseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	var expense models.Expense
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Category").
		First(&expense, expenseID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query expense failed"})
		return
	}

	if expense.UserID != userID {
		allowed := false
		if expense.GroupID != nil {
			var membership models.Membership
			if errMember := h.db.WithContext(c.Request.Context()).
				Where("user_id = ? AND group_id = ?", userID, *expense.GroupID).
				First(&membership).Error; errMember == nil {
				allowed = true
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your expense"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"expense": toExpenseDTO(expense)})
}

// Summary aggregates spend for a month, or for a custom date range which is
// reserved for paying tiers.
func (h *ExpenseHandler) Summary(c *gin.Context) {
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

	var start, end time.Time
	startStr, endStr := c.Query("startDate"), c.Query("endDate")
	if startStr != "" || endStr != "" {
		if getUserRole(c) == models.RoleBasic {
			c.JSON(http.StatusForbidden, gin.H{"error": "custom date ranges require a premium subscription"})
			return
		}
		var errParse error
		start, errParse = time.Parse("2006-01-02", startStr)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
			return
		}
		end, errParse = time.Parse("2006-01-02", endStr)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
			return
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	} else {
		var okRange bool
		start, end, okRange = h.parseMonthRange(c, c.Query("year"), c.Query("month"))
		if !okRange {
			return
		}
	}

	result, errCompute := summary.Compute(c.Request.Context(), h.db, userID, groupID, start, end)
	if errCompute != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "compute summary failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseMonthRange resolves year + month-name query params into a range,
// writing the error response itself on failure.
func (h *ExpenseHandler) parseMonthRange(c *gin.Context, yearStr, monthStr string) (time.Time, time.Time, bool) {
	if yearStr == "" || monthStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year and month are required"})
		return time.Time{}, time.Time{}, false
	}
	year, errYear := strconv.Atoi(yearStr)
	if errYear != nil || year < 1970 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return time.Time{}, time.Time{}, false
	}
	month, errMonth := period.MonthFromName(monthStr)
	if errMonth != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month name"})
		return time.Time{}, time.Time{}, false
	}
	start, end := period.MonthRange(year, month)
	return start, end, true
}

// loadMemberGroup loads a group and verifies the caller belongs to it,
// writing the error response itself on failure.
func (h *ExpenseHandler) loadMemberGroup(c *gin.Context, userID, groupID uint64) (*models.Group, bool) {
	var group models.Group
	if errFind := h.db.WithContext(c.Request.Context()).First(&group, groupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query group failed"})
		return nil, false
	}

	var membership models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&membership).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query membership failed"})
		return nil, false
	}
	return &group, true
}

// resolveCategory finds a category by name case-insensitively, writing the
// error response itself on failure.
func (h *ExpenseHandler) resolveCategory(c *gin.Context, name string) (models.Category, bool) {
	var category models.Category
	if errFind := h.db.WithContext(c.Request.Context()).
		Where(dbpkg.CaseInsensitiveLikeExpr(h.db, "name"), dbpkg.NormalizeLikePattern(h.db, name)).
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

// readUpload reads a multipart file field fully into memory.
func readUpload(c *gin.Context, field string) (data []byte, filename, contentType string, present bool, err error) {
	header, errFile := c.FormFile(field)
	if errFile != nil {
		return nil, "", "", false, nil
	}
	file, errOpen := header.Open()
	if errOpen != nil {
		return nil, "", "", true, errOpen
	}
	defer func() { _ = file.Close() }()

	data, errRead := io.ReadAll(file)
	if errRead != nil {
		return nil, "", "", true, errRead
	}
	return data, header.Filename, header.Header.Get("Content-Type"), true, nil
}
