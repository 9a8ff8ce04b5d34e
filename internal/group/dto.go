package group

import "time"

// GroupResponse represents a group with its members
type GroupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Preset    string    `json:"preset"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt string    `json:"createdAt"`
	Members   []*Member `json:"members"`
}

// PreviewResponse is the anonymous-friendly group read
type PreviewResponse struct {
	Group    *GroupResponse `json:"group"`
	IsMember bool           `json:"isMember"`
}

// JoinResponse wraps the refreshed group after a join
type JoinResponse struct {
	Group *GroupResponse `json:"group"`
}

// ToResponse converts a Group model and its members to a GroupResponse DTO
func (g *Group) ToResponse(members []*Member) *GroupResponse {
	return &GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Icon:      g.Icon,
		Preset:    g.Preset,
		OwnerID:   g.OwnerID,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
		Members:   members,
	}
}
