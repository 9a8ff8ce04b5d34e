package poll

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
	"huddle/pkg/response"
)

// Handler handles HTTP requests for poll operations
type Handler struct {
	service *Service
}

// NewHandler creates a new poll handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /groups/{groupId}/polls
// @Summary      List a group's polls
// @Tags         polls
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} ListResponse
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/polls [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	polls, err := h.service.List(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, "Forbidden")
			return
		}
		response.InternalError(w, "Unable to load polls.")
		return
	}

	if polls == nil {
		polls = []*Poll{}
	}
	response.JSON(w, http.StatusOK, &ListResponse{Polls: polls})
}

// Create handles POST /groups/{groupId}/polls
// @Summary      Create a poll
// @Description  Poll and options are stored as a unit; option failure rolls the poll back
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        request body CreatePollRequest true "Poll payload"
// @Success      201 {object} PollResponse
// @Failure      400 {object} response.APIError
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/polls [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Create(r.Context(), groupID, userID, req.Question, req.Options)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "Forbidden")
		case errors.Is(err, ErrEmptyQuestion),
			errors.Is(err, ErrTooFewOptions),
			errors.Is(err, ErrTooManyOptions),
			errors.Is(err, ErrDuplicateOptions):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w, "Unable to create poll.")
		}
		return
	}

	response.JSON(w, http.StatusCreated, &PollResponse{Poll: p})
}

// Vote handles POST /groups/{groupId}/polls/{pollId}/vote
// @Summary      Cast, replace or clear a vote
// @Description  Toggle-replace: any existing vote is removed first; a null optionId clears it
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        pollId path string true "Poll ID"
// @Param        request body VoteRequest true "Vote payload"
// @Success      200 {object} PollResponse
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/polls/{pollId}/vote [post]
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	pollID := chi.URLParam(r, "pollId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Vote(r.Context(), groupID, pollID, userID, req.OptionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotMember):
			response.Forbidden(w, "Forbidden")
		case errors.Is(err, ErrPollNotFound), errors.Is(err, ErrOptionNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Unable to save vote.")
		}
		return
	}

	response.JSON(w, http.StatusOK, &PollResponse{Poll: p})
}

// Delete handles DELETE /groups/{groupId}/polls/{pollId}
// @Summary      Delete a poll
// @Description  Creator only; cascades to options and votes
// @Tags         polls
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        pollId path string true "Poll ID"
// @Success      200 {object} map[string]bool
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/polls/{pollId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	pollID := chi.URLParam(r, "pollId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), groupID, pollID, userID); err != nil {
		switch {
		case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotCreator):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrPollNotFound):
			response.NotFound(w, err.Error())
		default:
			response.InternalError(w, "Unable to delete poll.")
		}
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
