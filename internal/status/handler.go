package status

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
	"huddle/pkg/response"
)

// Handler handles HTTP requests for status operations
type Handler struct {
	service *Service
}

// NewHandler creates a new status handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for status endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Put)

	return r
}

// List handles GET /groups/{groupId}/statuses
// @Summary      List live statuses
// @Tags         statuses
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} ListResponse
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/statuses [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	entries, err := h.service.List(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, "Forbidden")
			return
		}
		response.InternalError(w, "Unable to load statuses.")
		return
	}

	if entries == nil {
		entries = []*Entry{}
	}
	response.JSON(w, http.StatusOK, &ListResponse{Statuses: entries})
}

// Put handles POST /groups/{groupId}/statuses
// @Summary      Set the caller's status
// @Description  Upserts the (group, user) entry; a second put overwrites the first
// @Tags         statuses
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        request body PutStatusRequest true "Status payload"
// @Success      200 {object} PutResponse
// @Failure      400 {object} response.APIError
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/statuses [post]
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req PutStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	entry, err := h.service.Put(r.Context(), groupID, userID, req.Status, req.Emoji, req.Image, req.ExpiresIn)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "Forbidden")
		case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrInvalidExpiry):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Unable to update status.")
		}
		return
	}

	response.JSON(w, http.StatusOK, &PutResponse{Status: entry})
}
