package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pemba1s1/Expenso-sub000/internal/config"
	"github.com/pemba1s1/Expenso-sub000/internal/mail"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/oauth"
	"github.com/pemba1s1/Expenso-sub000/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// refreshCookieName is the HttpOnly cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

// AuthHandler handles registration, login, token refresh and OAuth.
type AuthHandler struct {
	db         *gorm.DB
	jwtCfg     config.JWTConfig
	google     *oauth.GoogleProvider
	mailer     mail.Mailer
	webBaseURL string
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, google *oauth.GoogleProvider, mailer mail.Mailer, webBaseURL string) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg, google: google, mailer: mailer, webBaseURL: webBaseURL}
}

// userResponse is the user payload returned by auth endpoints.
type userResponse struct {
	ID       uint64      `json:"id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Picture  string      `json:"picture"`
	Verified bool        `json:"verified"`
	Role     models.Role `json:"role"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Picture:  user.Picture,
		Verified: user.Verified,
		Role:     user.Role,
	}
}

// registerRequest defines the request body for registration.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates a new user account and sends a verification email.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	var exists models.User
	if errCheck := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&exists).Error; errCheck == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	} else if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	verifyToken := uuid.NewString()
	user := models.User{
		Email:       email,
		Password:    hash,
		Name:        strings.TrimSpace(body.Name),
		Role:        models.RoleBasic,
		VerifyToken: &verifyToken,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	verifyLink := fmt.Sprintf("%s/auth/verify?token=%s", h.webBaseURL, verifyToken)
	if errMail := h.mailer.Send(c.Request.Context(), user.Email, "Verify your Expenso account",
		"Welcome to Expenso! Verify your email by visiting:\n\n"+verifyLink); errMail != nil {
		log.Warnf("send verification mail to %s: %v", user.Email, errMail)
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by email and password. The response never reveals
// whether the email or the password was wrong.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	password := strings.TrimSpace(body.Password)
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !security.CheckPassword(user.Password, password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.respondWithTokens(c, user)
}

// Refresh issues a new access token from the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	cookie, errCookie := c.Cookie(refreshCookieName)
	if errCookie != nil || cookie == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
		return
	}

	claims, errJWT := security.ParseRefreshToken(h.jwtCfg.RefreshSecret, cookie)
	if errJWT != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid refresh token"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	access, errSign := security.GenerateAccessToken(h.jwtCfg.AccessSecret, user.ID, user.Email, string(user.Role), h.jwtCfg.AccessExpiry)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "user": toUserResponse(user)})
}

// Verify marks the account matching the emailed token as verified.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Where("verify_token = ?", token).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid verification token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&user).Updates(map[string]any{
		"verified":     true,
		"verify_token": nil,
	}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// GoogleRedirect sends the client to the Google consent screen.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	if !h.google.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "google oauth not configured"})
		return
	}

	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("oauthState", state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

// GoogleCallback exchanges the authorization code, upserts the user and
// redirects back to the client with an access token.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if !h.google.Enabled() {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "google oauth not configured"})
		return
	}

	stateCookie, errCookie := c.Cookie("oauthState")
	if errCookie != nil || stateCookie == "" || stateCookie != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	identity, errExchange := h.google.Exchange(c.Request.Context(), code)
	if errExchange != nil {
		log.Warnf("google oauth exchange: %v", errExchange)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "oauth exchange failed"})
		return
	}

	user, errUpsert := h.upsertGoogleUser(c, identity)
	if errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upsert user failed"})
		return
	}

	access, refresh, errSign := h.signTokens(*user)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	h.setRefreshCookie(c, refresh)
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/auth/callback?token=%s", h.webBaseURL, access))
}

// upsertGoogleUser links the Google identity to an existing account by
// subject or email, creating a verified account when neither matches.
func (h *AuthHandler) upsertGoogleUser(c *gin.Context, identity *oauth.GoogleUser) (*models.User, error) {
	ctx := c.Request.Context()

	var user models.User
	errFind := h.db.WithContext(ctx).Where("google_id = ?", identity.ID).First(&user).Error
	if errFind == nil {
		return &user, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	email := strings.ToLower(identity.Email)
	errFind = h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errFind == nil {
		if errUpdate := h.db.WithContext(ctx).Model(&user).Updates(map[string]any{
			"google_id": identity.ID,
			"picture":   identity.Picture,
			"verified":  true,
		}).Error; errUpdate != nil {
			return nil, errUpdate
		}
		user.GoogleID = &identity.ID
		return &user, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	user = models.User{
		Email:    email,
		GoogleID: &identity.ID,
		Name:     identity.Name,
		Picture:  identity.Picture,
		Verified: true,
		Role:     models.RoleBasic,
	}
	if errCreate := h.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, errCreate
	}
	return &user, nil
}

// signTokens issues the access/refresh token pair for a user.
func (h *AuthHandler) signTokens(user models.User) (access, refresh string, err error) {
	access, err = security.GenerateAccessToken(h.jwtCfg.AccessSecret, user.ID, user.Email, string(user.Role), h.jwtCfg.AccessExpiry)
	if err != nil {
		return "", "", err
	}
	refresh, err = security.GenerateRefreshToken(h.jwtCfg.RefreshSecret, user.ID, h.jwtCfg.RefreshExpiry)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// setRefreshCookie delivers the refresh token as an HttpOnly strict cookie.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, refresh string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refresh, int(h.jwtCfg.RefreshExpiry.Seconds()), "/", "", false, true)
}

// respondWithTokens issues both tokens and returns the access token.
func (h *AuthHandler) respondWithTokens(c *gin.Context, user models.User) {
	access, refresh, errSign := h.signTokens(user)
	if errSign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign token failed"})
		return
	}
	h.setRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "user": toUserResponse(user)})
}
