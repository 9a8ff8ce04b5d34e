package events

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
	"huddle/pkg/response"
)

// MembershipChecker gates the change stream on group membership.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// Handler exposes the per-group change stream
type Handler struct {
	bus     *Bus
	members MembershipChecker
}

func NewHandler(bus *Bus, members MembershipChecker) *Handler {
	return &Handler{bus: bus, members: members}
}

// Stream handles GET /groups/{groupId}/events
// @Summary      Subscribe to a group's change stream
// @Description  SSE stream of {table, event, row} dirty signals
// @Tags         events
// @Produce      text/event-stream
// @Param        groupId path string true "Group ID"
// @Success      200 {string} string "event stream"
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/events [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	member, err := h.members.IsMember(r.Context(), groupID, userID)
	if err != nil {
		response.InternalError(w, "Unable to open change stream.")
		return
	}
	if !member {
		response.Forbidden(w, "Forbidden")
		return
	}

	h.bus.ServeSSE(w, r, groupID)
}
