package todo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"huddle/pkg/middleware"
)

func newTestTodoRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _ := newTestTodoService()
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/api/v1/groups/{groupId}", func(r chi.Router) {
		r.Mount("/todos", h.Routes())
	})
	return r, svc
}

func asUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestUpdateItemPatchWritesCompletedAsSent(t *testing.T) {
	router, svc := newTestTodoRouter(t)

	l, err := svc.CreateList(context.Background(), "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	itemID := l.Items[0].ID

	patch := func(body string) *ListResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPatch,
			"/api/v1/groups/g1/todos/"+l.ID+"/items/"+itemID, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asUser(req, "bob"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp ListResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return &resp
	}

	// sending the item's current state must not invert it
	resp := patch(`{"completed": false}`)
	if resp.List.Items[0].Completed {
		t.Fatal("expected item to stay incomplete after patching completed=false")
	}

	resp = patch(`{"completed": true}`)
	if !resp.List.Items[0].Completed {
		t.Fatal("expected item completed after patching completed=true")
	}

	// a client resending the same payload keeps the same state
	resp = patch(`{"completed": true}`)
	if !resp.List.Items[0].Completed {
		t.Fatal("expected repeated patch to keep the item completed")
	}
}

func TestUpdateItemPatchRequiresAField(t *testing.T) {
	router, svc := newTestTodoRouter(t)

	l, err := svc.CreateList(context.Background(), "g1", "alice", "Groceries", []string{"Milk"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/groups/g1/todos/"+l.ID+"/items/"+l.Items[0].ID, strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(req, "bob"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
