package group

import (
	"context"
	"errors"

	"huddle/internal/events"
)

// Common errors
var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotSelf       = errors.New("you can only remove yourself from a group")
)

// Service handles group and membership business logic. Its IsMember
// check gates every other domain in the system.
type Service struct {
	repo Repository
	bus  *events.Bus
}

// NewService creates a new group service
func NewService(repo Repository, bus *events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// IsMember reports whether a membership row exists for the pair,
// independent of role.
func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// Preview retrieves a group with its members for invite-preview purposes.
// userID may be empty; the caller gets an isMember flag instead of an
// authorization failure.
func (s *Service) Preview(ctx context.Context, groupID, userID string) (*Group, []*Member, bool, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, false, err
	}
	if g == nil {
		return nil, nil, false, ErrGroupNotFound
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, false, err
	}

	isMember := false
	for _, m := range members {
		if m.UserID == userID {
			isMember = true
			break
		}
	}

	return g, members, isMember, nil
}

// Join adds the user to the group as a regular member. Joining twice is
// a no-op thanks to the composite-key upsert.
func (s *Service) Join(ctx context.Context, groupID, userID string) (*Group, []*Member, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, ErrGroupNotFound
	}

	inviter := userID
	member, err := s.repo.UpsertMember(ctx, &Member{
		GroupID:   groupID,
		UserID:    userID,
		Role:      MemberRoleMember,
		InvitedBy: &inviter,
	})
	if err != nil {
		return nil, nil, err
	}

	s.bus.Publish(events.Change{
		Table:   "group_members",
		Event:   events.EventInsert,
		GroupID: groupID,
		Row:     member,
	})

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	return g, members, nil
}

// Leave removes the requester's own membership row. Removing anyone
// else is forbidden regardless of role.
func (s *Service) Leave(ctx context.Context, groupID, requesterID, memberID string) error {
	if memberID != requesterID {
		return ErrNotSelf
	}

	if err := s.repo.RemoveMember(ctx, groupID, memberID); err != nil {
		return err
	}

	s.bus.Publish(events.Change{
		Table:   "group_members",
		Event:   events.EventDelete,
		GroupID: groupID,
		Row:     map[string]string{"groupId": groupID, "userId": memberID},
	})

	return nil
}
