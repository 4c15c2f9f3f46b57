package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

// GroupHandler handles group lifecycle and membership listing.
type GroupHandler struct {
	db *gorm.DB
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(db *gorm.DB) *GroupHandler {
	return &GroupHandler{db: db}
}

// groupDTO is the group response payload.
type groupDTO struct {
	ID   uint64                `json:"id"`
	Name string                `json:"name"`
	Type models.GroupType      `json:"type"`
	Role models.MembershipRole `json:"role,omitempty"`
}

// createGroupRequest defines the request body for group creation.
type createGroupRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Create makes a group and its creator-admin membership in one transaction.
func (h *GroupHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing group name"})
		return
	}

	groupType := models.GroupTypeNormal
	if body.Type != "" {
		groupType = models.GroupType(strings.ToUpper(strings.TrimSpace(body.Type)))
		if !groupType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group type"})
			return
		}
	}
	if groupType == models.GroupTypeBusiness && getUserRole(c) != models.RoleBusinessPremium {
		c.JSON(http.StatusForbidden, gin.H{"error": "business groups require a business subscription"})
		return
	}

	group := models.Group{Name: name, Type: groupType}
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&group).Error; errCreate != nil {
			return errCreate
		}
		membership := models.Membership{UserID: userID, GroupID: group.ID, Role: models.MembershipAdmin}
		return tx.Create(&membership).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create group failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": groupDTO{ID: group.ID, Name: group.Name, Type: group.Type, Role: models.MembershipAdmin}})
}

// All lists the caller's groups with their role in each.
func (h *GroupHandler) All(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var memberships []models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("Group").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query groups failed"})
		return
	}

	groups := make([]groupDTO, 0, len(memberships))
	for _, m := range memberships {
		if m.Group == nil {
			continue
		}
		groups = append(groups, groupDTO{ID: m.Group.ID, Name: m.Group.Name, Type: m.Group.Type, Role: m.Role})
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Get returns one group the caller belongs to.
func (h *GroupHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	groupID, group, ok := h.loadGroup(c)
	if !ok {
		return
	}

	var membership models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&membership).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query membership failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": groupDTO{ID: group.ID, Name: group.Name, Type: group.Type, Role: membership.Role}})
}

// groupUserDTO is one member row in the group user listing.
type groupUserDTO struct {
	ID    uint64                `json:"id"`
	Name  string                `json:"name"`
	Email string                `json:"email"`
	Role  models.MembershipRole `json:"role"`
}

// Users lists a group's members with roles.
func (h *GroupHandler) Users(c *gin.Context) {
	userID := getUserID(c)
	groupID, _, ok := h.loadGroup(c)
	if !ok {
		return
	}

	var caller models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&caller).Error; errFind != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return
	}

	var memberships []models.Membership
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query members failed"})
		return
	}

	users := make([]groupUserDTO, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		users = append(users, groupUserDTO{ID: m.User.ID, Name: m.User.Name, Email: m.User.Email, Role: m.Role})
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// updateGroupRequest defines the request body for group updates.
type updateGroupRequest struct {
	Name string `json:"name"`
}

// Update renames a group. Admin access is enforced by middleware.
func (h *GroupHandler) Update(c *gin.Context) {
	groupID, group, ok := h.loadGroup(c)
	if !ok {
		return
	}
	_ = groupID

	var body updateGroupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing group name"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).Model(group).Update("name", name).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update group failed"})
		return
	}
	group.Name = name
	c.JSON(http.StatusOK, gin.H{"group": groupDTO{ID: group.ID, Name: group.Name, Type: group.Type}})
}

// loadGroup parses the :id param and loads the group, writing the error
// response itself on failure.
func (h *GroupHandler) loadGroup(c *gin.Context) (uint64, *models.Group, bool) {
	groupID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || groupID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return 0, nil, false
	}

	var group models.Group
	if errFind := h.db.WithContext(c.Request.Context()).First(&group, groupID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return 0, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query group failed"})
		return 0, nil, false
	}
	return groupID, &group, true
}
