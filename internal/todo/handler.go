package todo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
	"huddle/pkg/response"
)

// Handler handles HTTP requests for to-do operations
type Handler struct {
	service *Service
}

// NewHandler creates a new to-do handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for to-do endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.CreateList)
	r.Post("/{listId}/items", h.AddItem)
	r.Patch("/{listId}/items/{itemId}", h.UpdateItem)
	r.Delete("/{listId}/items/{itemId}", h.RemoveItem)
	r.Patch("/{listId}/reorder", h.Reorder)
	r.Delete("/{listId}", h.DeleteList)

	return r
}

// List handles GET /groups/{groupId}/todos
// @Summary      List a group's to-do lists
// @Tags         todos
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Success      200 {object} ListsResponse
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/todos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	lists, err := h.service.List(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			response.Forbidden(w, "Forbidden")
			return
		}
		response.InternalError(w, "Unable to load group lists.")
		return
	}

	if lists == nil {
		lists = []*List{}
	}
	response.JSON(w, http.StatusOK, &ListsResponse{Lists: lists})
}

// CreateList handles POST /groups/{groupId}/todos
// @Summary      Create a to-do list
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        request body CreateListRequest true "List payload"
// @Success      201 {object} ListResponse
// @Failure      400 {object} response.APIError
// @Failure      401 {object} response.APIError
// @Failure      403 {object} response.APIError
// @Router       /groups/{groupId}/todos [post]
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	l, err := h.service.CreateList(r.Context(), groupID, userID, req.Title, req.Items)
	if err != nil {
		h.writeError(w, err, "Unable to create list.")
		return
	}

	response.JSON(w, http.StatusCreated, &ListResponse{List: l})
}

// AddItem handles POST /groups/{groupId}/todos/{listId}/items
// @Summary      Append an item to a list
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        listId path string true "List ID"
// @Param        request body AddItemRequest true "Item payload"
// @Success      200 {object} ListResponse
// @Failure      400 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/todos/{listId}/items [post]
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	listID := chi.URLParam(r, "listId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	l, err := h.service.AddItem(r.Context(), groupID, listID, userID, req.Label)
	if err != nil {
		h.writeError(w, err, "Unable to add item.")
		return
	}

	response.JSON(w, http.StatusOK, &ListResponse{List: l})
}

// UpdateItem handles PATCH /groups/{groupId}/todos/{listId}/items/{itemId}
// @Summary      Update an item
// @Description  completed is written as sent; label renames. At least one must be present
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        listId path string true "List ID"
// @Param        itemId path string true "Item ID"
// @Param        request body UpdateItemRequest true "Item edit"
// @Success      200 {object} ListResponse
// @Failure      400 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/todos/{listId}/items/{itemId} [patch]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	listID := chi.URLParam(r, "listId")
	itemID := chi.URLParam(r, "itemId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	hasLabel := req.Label != nil && strings.TrimSpace(*req.Label) != ""
	if req.Completed == nil && !hasLabel {
		response.BadRequest(w, ErrNoUpdates.Error())
		return
	}

	var (
		l   *List
		err error
	)
	if hasLabel {
		l, err = h.service.RenameItem(r.Context(), groupID, listID, itemID, userID, *req.Label)
	}
	if err == nil && req.Completed != nil {
		l, err = h.service.SetItemCompleted(r.Context(), groupID, listID, itemID, userID, *req.Completed)
	}
	if err != nil {
		h.writeError(w, err, "Unable to update item.")
		return
	}

	response.JSON(w, http.StatusOK, &ListResponse{List: l})
}

// RemoveItem handles DELETE /groups/{groupId}/todos/{listId}/items/{itemId}
// @Summary      Remove an item
// @Description  Removal may leave the list empty
// @Tags         todos
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        listId path string true "List ID"
// @Param        itemId path string true "Item ID"
// @Success      200 {object} ListResponse
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/todos/{listId}/items/{itemId} [delete]
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	listID := chi.URLParam(r, "listId")
	itemID := chi.URLParam(r, "itemId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	l, err := h.service.RemoveItem(r.Context(), groupID, listID, itemID, userID)
	if err != nil {
		h.writeError(w, err, "Unable to delete item.")
		return
	}

	response.JSON(w, http.StatusOK, &ListResponse{List: l})
}

// Reorder handles PATCH /groups/{groupId}/todos/{listId}/reorder
// @Summary      Reorder a list's items
// @Description  position = index for each id; ids outside the list are skipped
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        listId path string true "List ID"
// @Param        request body ReorderRequest true "Desired order"
// @Success      200 {object} ListResponse
// @Failure      400 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/todos/{listId}/reorder [patch]
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	listID := chi.URLParam(r, "listId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	l, err := h.service.Reorder(r.Context(), groupID, listID, userID, req.ItemIDs)
	if err != nil {
		h.writeError(w, err, "Unable to reorder items.")
		return
	}

	response.JSON(w, http.StatusOK, &ListResponse{List: l})
}

// DeleteList handles DELETE /groups/{groupId}/todos/{listId}
// @Summary      Delete a list
// @Description  Creator only; cascades to items
// @Tags         todos
// @Produce      json
// @Param        groupId path string true "Group ID"
// @Param        listId path string true "List ID"
// @Success      200 {object} map[string]bool
// @Failure      403 {object} response.APIError
// @Failure      404 {object} response.APIError
// @Router       /groups/{groupId}/todos/{listId} [delete]
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupId")
	listID := chi.URLParam(r, "listId")
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.DeleteList(r.Context(), groupID, listID, userID); err != nil {
		h.writeError(w, err, "Unable to delete list.")
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotCreator):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrListNotFound), errors.Is(err, ErrItemNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrEmptyTitle),
		errors.Is(err, ErrEmptyLabel),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrTooManyItems),
		errors.Is(err, ErrDuplicateItem),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrNoUpdates):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
