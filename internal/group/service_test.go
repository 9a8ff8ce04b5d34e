package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"huddle/internal/events"
)

type memoryGroupRepo struct {
	groups  map[string]*Group
	members map[string]*Member
}

func newMemoryGroupRepo() *memoryGroupRepo {
	return &memoryGroupRepo{
		groups:  make(map[string]*Group),
		members: make(map[string]*Member),
	}
}

func memberKey(groupID, userID string) string { return groupID + "|" + userID }

func (r *memoryGroupRepo) GetGroup(ctx context.Context, id string) (*Group, error) {
	return r.groups[id], nil
}

func (r *memoryGroupRepo) GetMember(ctx context.Context, groupID, userID string) (*Member, error) {
	return r.members[memberKey(groupID, userID)], nil
}

func (r *memoryGroupRepo) ListMembers(ctx context.Context, groupID string) ([]*Member, error) {
	var out []*Member
	for _, m := range r.members {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryGroupRepo) UpsertMember(ctx context.Context, m *Member) (*Member, error) {
	key := memberKey(m.GroupID, m.UserID)
	if existing, ok := r.members[key]; ok {
		return existing, nil
	}
	stored := *m
	stored.JoinedAt = time.Now()
	r.members[key] = &stored
	return &stored, nil
}

func (r *memoryGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	delete(r.members, memberKey(groupID, userID))
	return nil
}

func newTestGroupService() (*Service, *memoryGroupRepo) {
	repo := newMemoryGroupRepo()
	repo.groups["g1"] = &Group{ID: "g1", Name: "Crew", OwnerID: "owner"}
	repo.members[memberKey("g1", "owner")] = &Member{GroupID: "g1", UserID: "owner", Role: MemberRoleOwner}
	return NewService(repo, events.NewBus()), repo
}

func TestIsMemberTracksMembershipRow(t *testing.T) {
	svc, repo := newTestGroupService()
	ctx := context.Background()

	ok, err := svc.IsMember(ctx, "g1", "owner")
	if err != nil || !ok {
		t.Fatalf("expected owner to be a member, got %v %v", ok, err)
	}

	ok, _ = svc.IsMember(ctx, "g1", "stranger")
	if ok {
		t.Fatalf("expected stranger not to be a member")
	}

	// role does not matter, only the row's existence
	repo.members[memberKey("g1", "m2")] = &Member{GroupID: "g1", UserID: "m2", Role: MemberRoleMember}
	ok, _ = svc.IsMember(ctx, "g1", "m2")
	if !ok {
		t.Fatalf("expected plain member to count")
	}

	// no principal resolves to no membership, not an error
	ok, err = svc.IsMember(ctx, "g1", "")
	if err != nil || ok {
		t.Fatalf("expected empty principal to be a non-member, got %v %v", ok, err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	svc, repo := newTestGroupService()
	ctx := context.Background()

	if _, _, err := svc.Join(ctx, "g1", "u2"); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, _, err := svc.Join(ctx, "g1", "u2"); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	count := 0
	for _, m := range repo.members {
		if m.GroupID == "g1" && m.UserID == "u2" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one membership row, got %d", count)
	}
}

func TestJoinUnknownGroup(t *testing.T) {
	svc, _ := newTestGroupService()

	_, _, err := svc.Join(context.Background(), "nope", "u2")
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestLeaveIsSelfServiceOnly(t *testing.T) {
	svc, repo := newTestGroupRepoWithMember()

	err := svc.Leave(context.Background(), "g1", "u2", "owner")
	if !errors.Is(err, ErrNotSelf) {
		t.Fatalf("expected ErrNotSelf removing another member, got %v", err)
	}

	if err := svc.Leave(context.Background(), "g1", "u2", "u2"); err != nil {
		t.Fatalf("self leave failed: %v", err)
	}
	if repo.members[memberKey("g1", "u2")] != nil {
		t.Fatalf("expected membership row removed")
	}
}

func newTestGroupRepoWithMember() (*Service, *memoryGroupRepo) {
	svc, repo := newTestGroupService()
	repo.members[memberKey("g1", "u2")] = &Member{GroupID: "g1", UserID: "u2", Role: MemberRoleMember}
	return svc, repo
}

func TestToResponseNormalizesTimestampToUTC(t *testing.T) {
	g := &Group{
		ID:        "g1",
		Name:      "Crew",
		OwnerID:   "owner",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 2*3600)),
	}

	resp := g.ToResponse(nil)
	if resp.CreatedAt != "2025-06-01T10:00:00Z" {
		t.Fatalf("expected UTC RFC3339 timestamp, got %q", resp.CreatedAt)
	}
}

func TestPreviewReportsMembershipWithoutRequiringIt(t *testing.T) {
	svc, _ := newTestGroupService()
	ctx := context.Background()

	// anonymous principal still sees the group
	g, members, isMember, err := svc.Preview(ctx, "g1", "")
	if err != nil {
		t.Fatalf("anonymous preview failed: %v", err)
	}
	if g.ID != "g1" || len(members) != 1 || isMember {
		t.Fatalf("unexpected preview %+v members=%d isMember=%v", g, len(members), isMember)
	}

	_, _, isMember, err = svc.Preview(ctx, "g1", "owner")
	if err != nil || !isMember {
		t.Fatalf("expected owner preview isMember=true, got %v %v", isMember, err)
	}

	if _, _, _, err := svc.Preview(ctx, "missing", ""); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}
