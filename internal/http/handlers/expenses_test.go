package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

func expenseRouter(conn *gorm.DB, llmClient llm.Client, store *stubStore, user models.User) *gin.Engine {
	r := gin.New()
	h := NewExpenseHandler(conn, llmClient, store)
	e := r.Group("/expense", authAs(user))
	e.POST("", h.Create)
	e.POST("/receipt", h.CreateFromReceipt)
	e.POST("/approve", h.Approve)
	e.GET("/user", h.ListUser)
	e.GET("/summary", h.Summary)
	e.GET("/:id", h.Get)
	return r
}

func postForm(t *testing.T, r *gin.Engine, path string, fields map[string]string, fileField, filename string, fileData []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, fileField, filename, fileData)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePersonalExpenseHasNoStatus(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	r := expenseRouter(conn, nil, &stubStore{}, user)

	w := postForm(t, r, "/expense", map[string]string{
		"amount":      "42.50",
		"description": "Groceries run",
		"category":    "food",
	}, "", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var expense models.Expense
	if errFind := conn.Where("user_id = ?", user.ID).First(&expense).Error; errFind != nil {
		t.Fatalf("find expense: %v", errFind)
	}
	if expense.Status != nil {
		t.Fatalf("personal expense status = %v, want nil", *expense.Status)
	}
	if expense.Amount != 42.50 {
		t.Fatalf("amount = %v, want 42.50", expense.Amount)
	}
}

func TestCreateBusinessGroupExpenseIsPending(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBusinessPremium)
	group := createTestGroup(t, conn, "Corp", models.GroupTypeBusiness, user)
	r := expenseRouter(conn, nil, &stubStore{}, user)

	w := postForm(t, r, "/expense", map[string]string{
		"amount":      "99",
		"description": "Client lunch",
		"category":    "Food",
		"groupId":     groupIDString(group.ID),
	}, "", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var expense models.Expense
	if errFind := conn.Where("group_id = ?", group.ID).First(&expense).Error; errFind != nil {
		t.Fatalf("find expense: %v", errFind)
	}
	if expense.Status == nil || *expense.Status != models.ExpenseStatusPending {
		t.Fatalf("business expense status = %v, want pending", expense.Status)
	}
}

func TestCreateExpenseUnknownCategory(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	r := expenseRouter(conn, nil, &stubStore{}, user)

	w := postForm(t, r, "/expense", map[string]string{
		"amount":      "10",
		"description": "Mystery",
		"category":    "Cryptids",
	}, "", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCreateExpenseRequiresGroupMembership(t *testing.T) {
	conn := openTestDB(t)
	admin := createTestUser(t, conn, "admin@example.com", models.RoleBasic)
	outsider := createTestUser(t, conn, "outsider@example.com", models.RoleBasic)
	group := createTestGroup(t, conn, "Trip", models.GroupTypeNormal, admin)
	r := expenseRouter(conn, nil, &stubStore{}, outsider)

	w := postForm(t, r, "/expense", map[string]string{
		"amount":      "10",
		"description": "Fuel",
		"category":    "Transport",
		"groupId":     groupIDString(group.ID),
	}, "", "", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestCreateFromReceiptTotalsItems(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RolePremium)
	stub := &stubLLM{extraction: llm.ReceiptExtraction{
		Items: []llm.ReceiptItem{
			{Name: "Milk", Price: 3.50, Category: "Groceries"},
			{Name: "Bread", Price: 2.25, Category: "Groceries"},
			{Name: "Bus ticket", Price: 4.00, Category: "Transport"},
		},
		Tax: 0.85,
	}}
	store := &stubStore{}
	r := expenseRouter(conn, stub, store, user)

	w := postForm(t, r, "/expense/receipt", nil, "receiptImage", "receipt.png", []byte("fake-image"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.puts != 1 {
		t.Fatalf("store puts = %d, want 1", store.puts)
	}

	var receipt models.Receipt
	if errFind := conn.Where("user_id = ?", user.ID).First(&receipt).Error; errFind != nil {
		t.Fatalf("find receipt: %v", errFind)
	}
	if receipt.Total != 9.75 {
		t.Fatalf("receipt total = %v, want 9.75", receipt.Total)
	}
	if receipt.Tax != 0.85 {
		t.Fatalf("receipt tax = %v, want 0.85", receipt.Tax)
	}

	var count int64
	if errCount := conn.Model(&models.Expense{}).Where("receipt_id = ?", receipt.ID).Count(&count).Error; errCount != nil {
		t.Fatalf("count expenses: %v", errCount)
	}
	if count != 3 {
		t.Fatalf("expenses linked to receipt = %d, want 3", count)
	}
}

func TestCreateFromReceiptRequiresImage(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RolePremium)
	r := expenseRouter(conn, &stubLLM{}, &stubStore{}, user)

	w := postForm(t, r, "/expense/receipt", nil, "", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCreateFromReceiptRejectsUnknownItemCategory(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RolePremium)
	stub := &stubLLM{extraction: llm.ReceiptExtraction{
		Items: []llm.ReceiptItem{{Name: "Widget", Price: 5, Category: "Gadgets"}},
	}}
	r := expenseRouter(conn, stub, &stubStore{}, user)

	w := postForm(t, r, "/expense/receipt", nil, "receiptImage", "r.png", []byte("img"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var count int64
	conn.Model(&models.Receipt{}).Count(&count)
	if count != 0 {
		t.Fatalf("receipts persisted = %d, want 0", count)
	}
}

func TestApproveBusinessExpense(t *testing.T) {
	conn := openTestDB(t)
	admin := createTestUser(t, conn, "admin@example.com", models.RoleBusinessPremium)
	member := createTestUser(t, conn, "member@example.com", models.RoleBasic)
	group := createTestGroup(t, conn, "Corp", models.GroupTypeBusiness, admin)
	addMember(t, conn, member, group)

	pending := models.ExpenseStatusPending
	expense := models.Expense{
		Amount:      50,
		Description: "Taxi",
		CategoryID:  findCategoryID(t, conn, "Transport"),
		UserID:      member.ID,
		GroupID:     &group.ID,
		Status:      &pending,
	}
	if errCreate := conn.Create(&expense).Error; errCreate != nil {
		t.Fatalf("create expense: %v", errCreate)
	}

	// A plain member cannot approve.
	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, member), http.MethodPost, "/expense/approve", gin.H{"expenseId": expense.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("member approve status = %d, want 403", w.Code)
	}

	w = doJSON(t, expenseRouter(conn, nil, &stubStore{}, admin), http.MethodPost, "/expense/approve", gin.H{"expenseId": expense.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("admin approve status = %d, body = %s", w.Code, w.Body.String())
	}

	var updated models.Expense
	if errFind := conn.First(&updated, expense.ID).Error; errFind != nil {
		t.Fatalf("reload expense: %v", errFind)
	}
	if updated.Status == nil || *updated.Status != models.ExpenseStatusApproved {
		t.Fatalf("status = %v, want approved", updated.Status)
	}
}

func TestApprovePersonalExpenseRejected(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	expense := models.Expense{
		Amount:      10,
		Description: "Coffee",
		CategoryID:  findCategoryID(t, conn, "Food"),
		UserID:      user.ID,
	}
	if errCreate := conn.Create(&expense).Error; errCreate != nil {
		t.Fatalf("create expense: %v", errCreate)
	}

	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, user), http.MethodPost, "/expense/approve", gin.H{"expenseId": expense.ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSummaryByMonth(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)

	food := findCategoryID(t, conn, "Food")
	april := time.Date(2025, time.April, 10, 12, 0, 0, 0, time.UTC)
	expense := models.Expense{Amount: 42.50, Description: "Dinner", CategoryID: food, UserID: user.ID, CreatedAt: april}
	if errCreate := conn.Create(&expense).Error; errCreate != nil {
		t.Fatalf("create expense: %v", errCreate)
	}

	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, user), http.MethodGet, "/expense/summary?year=2025&month=April", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	payload := decodeBody(t, w)
	if payload["totalAmount"] != 42.50 {
		t.Fatalf("totalAmount = %v, want 42.50", payload["totalAmount"])
	}
	categories, _ := payload["totalAmountPerCategory"].([]any)
	if len(categories) != 1 {
		t.Fatalf("expected 1 category entry, got %v", payload["totalAmountPerCategory"])
	}
	if entry := categories[0].(map[string]any); entry["name"] != "Food" {
		t.Fatalf("unexpected category entry: %v", entry)
	}
}

func TestSummaryUnknownMonthName(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)

	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, user), http.MethodGet, "/expense/summary?year=2025&month=Aprile", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSummaryCustomRangeNeedsPremium(t *testing.T) {
	conn := openTestDB(t)
	basic := createTestUser(t, conn, "basic@example.com", models.RoleBasic)
	premium := createTestUser(t, conn, "premium@example.com", models.RolePremium)

	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, basic), http.MethodGet,
		"/expense/summary?startDate=2025-04-01&endDate=2025-04-15", nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("basic status = %d, want 403", w.Code)
	}

	w = doJSON(t, expenseRouter(conn, nil, &stubStore{}, premium), http.MethodGet,
		"/expense/summary?startDate=2025-04-01&endDate=2025-04-15", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("premium status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestGetExpenseVisibility(t *testing.T) {
	conn := openTestDB(t)
	owner := createTestUser(t, conn, "owner@example.com", models.RoleBasic)
	stranger := createTestUser(t, conn, "stranger@example.com", models.RoleBasic)

	expense := models.Expense{
		Amount:      10,
		Description: "Coffee",
		CategoryID:  findCategoryID(t, conn, "Food"),
		UserID:      owner.ID,
	}
	if errCreate := conn.Create(&expense).Error; errCreate != nil {
		t.Fatalf("create expense: %v", errCreate)
	}
	path := "/expense/" + groupIDString(expense.ID)

	w := doJSON(t, expenseRouter(conn, nil, &stubStore{}, owner), http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, expenseRouter(conn, nil, &stubStore{}, stranger), http.MethodGet, path, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", w.Code)
	}
}

func findCategoryID(t *testing.T, conn *gorm.DB, name string) uint64 {
	t.Helper()
	var cat models.Category
	if errFind := conn.Where("name = ?", name).First(&cat).Error; errFind != nil {
		t.Fatalf("find category %s: %v", name, errFind)
	}
	return cat.ID
}
