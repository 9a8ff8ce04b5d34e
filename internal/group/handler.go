package group

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
	"huddle/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Preview handles GET /groups/{groupId}
// @Summary      Preview a group
// @Description  Group with members plus an isMember flag; works without membership
// @Tags         groups
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} PreviewResponse
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId} [get]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, _ := middleware.GetUserID(r.Context())

	g, members, isMember, err := h.service.Preview(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Unable to load group.")
		return
	}

	response.JSON(w, http.StatusOK, &PreviewResponse{
		Group:    g.ToResponse(members),
		IsMember: isMember,
	})
}

// Join handles POST /groups/{groupId}/join
// @Summary      Join a group
// @Tags         groups
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} JoinResponse
// @Failure      401 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	g, members, err := h.service.Join(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Unable to join the group.")
		return
	}

	response.JSON(w, http.StatusOK, &JoinResponse{Group: g.ToResponse(members)})
}

// Leave handles DELETE /groups/{groupId}/members/{memberId}
// @Summary      Leave a group
// @Description  Removes the caller's own membership row
// @Tags         groups
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        memberId path string true "Member user ID"
// @Success      200 {object} map[string]bool
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/members/{memberId} [delete]
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	memberID := chi.URLParam(r, "memberId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.Leave(r.Context(), groupID, userID, memberID); err != nil {
		if errors.Is(err, ErrNotSelf) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to leave the group.")
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
