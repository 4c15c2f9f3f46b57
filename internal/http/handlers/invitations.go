package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/mail"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"github.com/pemba1s1/Expenso-sub000/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvitationHandler handles inviting users into groups and acceptance.
type InvitationHandler struct {
	db         *gorm.DB
	mailer     mail.Mailer
	webBaseURL string
}

// NewInvitationHandler constructs an InvitationHandler.
func NewInvitationHandler(db *gorm.DB, mailer mail.Mailer, webBaseURL string) *InvitationHandler {
	return &InvitationHandler{db: db, mailer: mailer, webBaseURL: webBaseURL}
}

// createInvitationRequest defines the request body for invitations.
type createInvitationRequest struct {
	Email   string `json:"email"`
	GroupID uint64 `json:"groupId"`
}

// Create invites an email address into a group. Only group admins may invite.
// The emailed link differs depending on whether the invitee already has an
// account: new invitees get a password=true marker so the client shows the
// registration form.
func (h *InvitationHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createInvitationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.GroupID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and groupId are required"})
		return
	}

	var group models.Group
	if errFind := h.db.WithContext(c.Request.Context()).First(&group, body.GroupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query group failed"})
		return
	}

	isAdmin, errCheck := isGroupAdmin(c, h.db, userID, group.ID)
	if errCheck != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query membership failed"})
		return
	}
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "group admin required"})
		return
	}

	invitation := models.Invitation{
		Email:       email,
		GroupID:     group.ID,
		InvitedByID: userID,
		Status:      models.InvitationPending,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&invitation).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create invitation failed"})
		return
	}

	link := fmt.Sprintf("%s/invitation/accept?invitationId=%d", h.webBaseURL, invitation.ID)
	var invitee models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&invitee).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		// No account yet: the client shows the registration form.
		link += "&password=true"
	}

	if errMail := h.mailer.Send(c.Request.Context(), email, fmt.Sprintf("You are invited to join %s on Expenso", group.Name),
		fmt.Sprintf("You have been invited to the group %q. Accept the invitation here:\n\n%s", group.Name, link)); errMail != nil {
		log.Warnf("send invitation mail to %s: %v", email, errMail)
	}

	c.JSON(http.StatusCreated, gin.H{
		"invitation": gin.H{
			"id":      invitation.ID,
			"email":   invitation.Email,
			"groupId": invitation.GroupID,
			"status":  invitation.Status,
		},
		"link": link,
	})
}

// acceptInvitationRequest defines the request body for acceptance.
type acceptInvitationRequest struct {
	InvitationID uint64 `json:"invitationId"`
	Password     string `json:"password"`
	Name         string `json:"name"`
}

// Accept redeems an invitation. Invitees without an account must supply a
// password and name; the created account is premium and pre-verified. A
// second accept for the same user and group surfaces as a conflict.
func (h *InvitationHandler) Accept(c *gin.Context) {
	var body acceptInvitationRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.InvitationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing invitationId"})
		return
	}

	var invitation models.Invitation
	if errFind := h.db.WithContext(c.Request.Context()).First(&invitation, body.InvitationID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query invitation failed"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", invitation.Email).First(&user).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		password := strings.TrimSpace(body.Password)
		name := strings.TrimSpace(body.Name)
		if password == "" || name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password and name are required for new accounts"})
			return
		}
		hash, errHash := security.HashPassword(password)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
			return
		}
		user = models.User{
			Email:    invitation.Email,
			Password: hash,
			Name:     name,
			Verified: true,
			Role:     models.RolePremium,
		}
		if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
			return
		}
	} else if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}

	var conflict bool
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.Membership
		errExisting := tx.Where("user_id = ? AND group_id = ?", user.ID, invitation.GroupID).First(&existing).Error
		if errExisting == nil {
			conflict = true
			return gorm.ErrDuplicatedKey
		}
		if !errors.Is(errExisting, gorm.ErrRecordNotFound) {
			return errExisting
		}

		membership := models.Membership{UserID: user.ID, GroupID: invitation.GroupID, Role: models.MembershipMember}
		if errCreate := tx.Create(&membership).Error; errCreate != nil {
			// The unique (user, group) index is the backstop under races.
			conflict = true
			return errCreate
		}
		return tx.Model(&invitation).Update("status", models.InvitationAccepted).Error
	})
	if errTx != nil {
		if conflict {
			c.JSON(http.StatusConflict, gin.H{"error": "already a group member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "accept invitation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted": true,
		"groupId":  invitation.GroupID,
		"userId":   user.ID,
	})
}
