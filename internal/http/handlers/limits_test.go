package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/period"
	"gorm.io/gorm"
)

func limitRouter(conn *gorm.DB, user models.User) *gin.Engine {
	r := gin.New()
	h := NewLimitHandler(conn)
	g := r.Group("/userCategoryLimit", authAs(user))
	g.POST("", h.Create)
	g.PATCH("", h.Update)
	g.GET("", h.List)
	return r
}

func TestCreateLimitAndListCurrentMonth(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	r := limitRouter(conn, user)

	w := doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": "Food", "limit": 100})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/userCategoryLimit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	payload := decodeBody(t, w)
	limits, _ := payload["limits"].([]any)
	if len(limits) != 1 {
		t.Fatalf("expected 1 limit, got %v", payload["limits"])
	}
	entry := limits[0].(map[string]any)
	if entry["category"] != "Food" || entry["limit"] != float64(100) {
		t.Fatalf("unexpected limit entry: %v", entry)
	}
}

func TestCreateLimitDuplicateCategoryConflicts(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RolePremium)
	r := limitRouter(conn, user)

	w := doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": "Food", "limit": 100})
	if w.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": "Food", "limit": 200})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
}

func TestBasicTierCappedAtFourLimits(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	r := limitRouter(conn, user)

	for _, category := range []string{"Food", "Transport", "Housing", "Utilities"} {
		w := doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": category, "limit": 50})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d, body = %s", category, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": "Health", "limit": 50})
	if w.Code != http.StatusForbidden {
		t.Fatalf("fifth limit status = %d, want 403", w.Code)
	}
}

func TestPremiumTierNotCapped(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RolePremium)
	r := limitRouter(conn, user)

	for _, category := range []string{"Food", "Transport", "Housing", "Utilities", "Health", "Travel"} {
		w := doJSON(t, r, http.MethodPost, "/userCategoryLimit", gin.H{"category": category, "limit": 50})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d, body = %s", category, w.Code, w.Body.String())
		}
	}
}

func TestUpdateLimitOnlyCurrentMonth(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)
	r := limitRouter(conn, user)

	year, month := period.Current(time.Now())
	current := models.CategoryLimit{
		UserID:     user.ID,
		CategoryID: findCategoryID(t, conn, "Food"),
		Year:       year,
		Month:      int(month),
		Limit:      100,
	}
	if errCreate := conn.Create(&current).Error; errCreate != nil {
		t.Fatalf("create current limit: %v", errCreate)
	}
	stale := models.CategoryLimit{
		UserID:     user.ID,
		CategoryID: findCategoryID(t, conn, "Transport"),
		Year:       year - 1,
		Month:      int(month),
		Limit:      100,
	}
	if errCreate := conn.Create(&stale).Error; errCreate != nil {
		t.Fatalf("create stale limit: %v", errCreate)
	}

	w := doJSON(t, r, http.MethodPatch, "/userCategoryLimit", gin.H{"id": current.ID, "limit": 250})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	var reloaded models.CategoryLimit
	if errFind := conn.First(&reloaded, current.ID).Error; errFind != nil {
		t.Fatalf("reload limit: %v", errFind)
	}
	if reloaded.Limit != 250 {
		t.Fatalf("limit = %v, want 250", reloaded.Limit)
	}

	w = doJSON(t, r, http.MethodPatch, "/userCategoryLimit", gin.H{"id": stale.ID, "limit": 250})
	if w.Code != http.StatusNotFound {
		t.Fatalf("stale update status = %d, want 404", w.Code)
	}
}

func TestCreateLimitUnknownCategory(t *testing.T) {
	conn := openTestDB(t)
	user := createTestUser(t, conn, "a@example.com", models.RoleBasic)

	w := doJSON(t, limitRouter(conn, user), http.MethodPost, "/userCategoryLimit", gin.H{"category": "Cryptids", "limit": 10})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
