package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/config"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/security"
	"gorm.io/gorm"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	}
}

func authRouter(conn *gorm.DB, mailer *stubMailer) *gin.Engine {
	r := gin.New()
	h := NewAuthHandler(conn, testJWTConfig(), nil, mailer, "http://localhost:3000")
	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/verify", h.Verify)
	return r
}

func TestRegisterCreatesUnverifiedBasicAccount(t *testing.T) {
	conn := openTestDB(t)
	mailer := &stubMailer{}
	r := authRouter(conn, mailer)

	w := doJSON(t, r, http.MethodPost, "/auth/register",
		gin.H{"email": "New@Example.com", "password": "secret123", "name": "New User"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var user models.User
	if errFind := conn.Where("email = ?", "new@example.com").First(&user).Error; errFind != nil {
		t.Fatalf("find user: %v", errFind)
	}
	if user.Verified || user.Role != models.RoleBasic || user.VerifyToken == nil {
		t.Fatalf("unexpected account state: verified=%v role=%s token=%v", user.Verified, user.Role, user.VerifyToken)
	}
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].body, *user.VerifyToken) {
		t.Fatalf("expected verification mail carrying the token, got %+v", mailer.sent)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	conn := openTestDB(t)
	r := authRouter(conn, &stubMailer{})

	body := gin.H{"email": "a@example.com", "password": "secret123"}
	if w := doJSON(t, r, http.MethodPost, "/auth/register", body); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/auth/register", body); w.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", w.Code)
	}
}

func TestLoginIssuesTokensAndRefreshCookie(t *testing.T) {
	conn := openTestDB(t)
	hash, errHash := security.HashPassword("secret123")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	user := models.User{Email: "a@example.com", Password: hash, Verified: true, Role: models.RoleBasic}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	r := authRouter(conn, &stubMailer{})
	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "a@example.com", "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	payload := decodeBody(t, w)
	access, _ := payload["accessToken"].(string)
	if access == "" {
		t.Fatal("missing accessToken in response")
	}
	claims, errParse := security.ParseAccessToken("access-secret", access)
	if errParse != nil {
		t.Fatalf("parse access token: %v", errParse)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user = %d, want %d", claims.UserID, user.ID)
	}

	var refreshCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			refreshCookie = cookie
		}
	}
	if refreshCookie == nil {
		t.Fatal("missing refresh cookie")
	}
	if !refreshCookie.HttpOnly {
		t.Fatal("refresh cookie must be HttpOnly")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	conn := openTestDB(t)
	hash, _ := security.HashPassword("secret123")
	user := models.User{Email: "a@example.com", Password: hash}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	r := authRouter(conn, &stubMailer{})
	if w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "a@example.com", "password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"email": "missing@example.com", "password": "secret123"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d, want 401", w.Code)
	}
}

func TestLoginOAuthOnlyAccountRejected(t *testing.T) {
	conn := openTestDB(t)
	googleID := "google-sub-1"
	user := models.User{Email: "a@example.com", GoogleID: &googleID, Verified: true}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	w := doJSON(t, authRouter(conn, &stubMailer{}), http.MethodPost, "/auth/login",
		gin.H{"email": "a@example.com", "password": "anything"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestVerifyMarksAccountVerified(t *testing.T) {
	conn := openTestDB(t)
	token := "verify-token-1"
	user := models.User{Email: "a@example.com", VerifyToken: &token}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	r := authRouter(conn, &stubMailer{})
	w := doJSON(t, r, http.MethodGet, "/auth/verify?token=verify-token-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if !reloaded.Verified || reloaded.VerifyToken != nil {
		t.Fatalf("verified=%v token=%v, want verified with cleared token", reloaded.Verified, reloaded.VerifyToken)
	}

	if w := doJSON(t, r, http.MethodGet, "/auth/verify?token=verify-token-1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("reused token status = %d, want 404", w.Code)
	}
}
