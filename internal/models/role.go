package models

// Role is a subscription tier gating feature access.
type Role string

// Subscription tiers.
const (
	// RoleBasic is the free tier: capped category limits, no custom-range summaries.
	RoleBasic Role = "BASIC"
	// RolePremium unlocks custom date ranges and unlimited category limits.
	RolePremium Role = "PREMIUM"
	// RoleBusinessPremium additionally allows business groups with expense approval.
	RoleBusinessPremium Role = "BUSINESS_PREMIUM"
)

// Valid reports whether the role is a known subscription tier.
func (r Role) Valid() bool {
	switch r {
	case RoleBasic, RolePremium, RoleBusinessPremium:
		return true
	default:
		return false
	}
}

// GroupType distinguishes normal shared groups from business groups.
type GroupType string

// Group types.
const (
	// GroupTypeNormal is a plain shared expense group.
	GroupTypeNormal GroupType = "NORMAL"
	// GroupTypeBusiness requires admin approval before expenses settle.
	GroupTypeBusiness GroupType = "BUSINESS"
)

// Valid reports whether the group type is known.
func (t GroupType) Valid() bool {
	return t == GroupTypeNormal || t == GroupTypeBusiness
}

// MembershipRole is a user's role within a group.
type MembershipRole string

// Membership roles.
const (
	// MembershipAdmin can invite users, approve expenses and edit the group.
	MembershipAdmin MembershipRole = "admin"
	// MembershipMember is a regular group participant.
	MembershipMember MembershipRole = "member"
)

// Expense approval states. Only meaningful for business-group expenses.
const (
	// ExpenseStatusPending awaits admin approval.
	ExpenseStatusPending = "pending"
	// ExpenseStatusApproved has been settled by an admin.
	ExpenseStatusApproved = "approved"
)

// Invitation states.
const (
	// InvitationPending has been sent but not accepted.
	InvitationPending = "pending"
	// InvitationAccepted has been redeemed by the invitee.
	InvitationAccepted = "accepted"
)
