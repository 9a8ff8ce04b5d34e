package group

import (
	"context"
	"time"
)

// MemberRole represents the role of a group member
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// Group represents a group in the system
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Preset    string    `json:"preset"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member represents a user's membership in a group. Exactly one row
// exists per (group, user); joins upsert on the composite key.
type Member struct {
	GroupID   string     `json:"groupId"`
	UserID    string     `json:"userId"`
	Role      MemberRole `json:"role"`
	InvitedBy *string    `json:"invitedBy,omitempty"`
	JoinedAt  time.Time  `json:"joinedAt"`
}

// Repository handles group and membership persistence
type Repository interface {
	GetGroup(ctx context.Context, id string) (*Group, error)
	GetMember(ctx context.Context, groupID, userID string) (*Member, error)
	ListMembers(ctx context.Context, groupID string) ([]*Member, error)
	UpsertMember(ctx context.Context, m *Member) (*Member, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
}
