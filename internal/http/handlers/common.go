package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

// getUserID extracts the authenticated user ID from gin context.
func getUserID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}

// getUserRole extracts the authenticated user's subscription tier.
func getUserRole(c *gin.Context) models.Role {
	val, exists := c.Get("userRole")
	if !exists {
		return models.RoleBasic
	}
	role, ok := val.(models.Role)
	if !ok {
		return models.RoleBasic
	}
	return role
}

// isGroupAdmin reports whether the user holds the admin role in the group.
// The role is re-derived from the membership row on every call.
func isGroupAdmin(c *gin.Context, db *gorm.DB, userID, groupID uint64) (bool, error) {
	var membership models.Membership
	errFind := db.WithContext(c.Request.Context()).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&membership).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errFind
	}
	return membership.Role == models.MembershipAdmin, nil
}

// parseOptionalID parses a numeric id from a string, nil when empty.
func parseOptionalID(raw string) (*uint64, bool) {
	if raw == "" {
		return nil, true
	}
	id, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil || id == 0 {
		return nil, false
	}
	return &id, true
}
