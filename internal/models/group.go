package models

import "time"

// Group is a shared ledger scope: its transactions belong to the group
// and can be split among members. A group has exactly one owner, who is
// always an active admin member.
type Group struct {
	Base
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Currency    string `gorm:"not null;default:'XAF'" json:"currency"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// MemberRole is a member's permission level within a group.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// MemberStatus tracks the membership lifecycle.
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "pending"
	MemberStatusActive  MemberStatus = "active"
	MemberStatusLeft    MemberStatus = "left"
)

// GroupMember links a user to a group. A user has at most one
// membership row per group.
type GroupMember struct {
	Base
	GroupID     string       `gorm:"type:uuid;not null;uniqueIndex:idx_member_per_group" json:"group_id"`
	UserID      string       `gorm:"type:uuid;not null;uniqueIndex:idx_member_per_group" json:"user_id"`
	Role        MemberRole   `gorm:"not null;default:'member'" json:"role"`
	Status      MemberStatus `gorm:"not null;default:'pending'" json:"status"`
	InvitedByID *string      `gorm:"type:uuid" json:"invited_by_id,omitempty"`
	JoinedAt    *time.Time   `json:"joined_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActiveMember reports whether the membership is currently active.
func (m *GroupMember) IsActiveMember() bool {
	return m.Status == MemberStatusActive
}
