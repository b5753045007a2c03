package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/services"
)

func TestMeHandlersCreateList(t *testing.T) {
	user := testUser("user-1", "alice")
	now := time.Date(2025, 4, 3, 9, 0, 0, 0, time.UTC)
	lists := &stubUserLists{
		createFunc: func(ctx context.Context, spec services.CreateListSpecification) (services.ListResult, error) {
			if spec.Subject.UserID() != "user-1" {
				t.Fatalf("unexpected subject %q", spec.Subject.UserID())
			}
			if spec.Values.Title != "Birthday" || spec.Values.Visibility != "public" {
				t.Fatalf("unexpected values %#v", spec.Values)
			}
			if !spec.Values.Options.MaskReservations {
				t.Fatalf("expected mask_reservations to carry over")
			}
			return services.ListResult{
				ID:         "list-1",
				Title:      spec.Values.Title,
				Visibility: domain.VisibilityPublic,
				Options:    spec.Values.Options,
				ItemSort:   domain.ItemSortCreatedAt,
				CreatedAt:  now,
			}, nil
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, lists, nil, nil, nil)
	router := newMeRouter(handler)

	body := strings.NewReader(`{"title":"Birthday","visibility":"public","mask_reservations":true}`)
	req := httptest.NewRequest(http.MethodPost, "/me/lists/", body)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var resp listPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "list-1" || !resp.MaskReservations {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestMeHandlersCreateListLimitReached(t *testing.T) {
	user := testUser("user-1", "alice")
	lists := &stubUserLists{
		createFunc: func(context.Context, services.CreateListSpecification) (services.ListResult, error) {
			return services.ListResult{}, services.LimitReachedError{Maximum: 1000}
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, lists, nil, nil, nil)
	router := newMeRouter(handler)

	body := strings.NewReader(`{"title":"Another","visibility":"private"}`)
	req := httptest.NewRequest(http.MethodPost, "/me/lists/", body)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var bodyJSON map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &bodyJSON); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if bodyJSON["error"] != "limit_reached" {
		t.Fatalf("expected limit_reached error, got %v", bodyJSON["error"])
	}
}

func TestMeHandlersDeleteListNotFound(t *testing.T) {
	user := testUser("user-1", "alice")
	lists := &stubUserLists{
		deleteFunc: func(context.Context, services.DeleteListSpecification) error {
			return services.ErrInvalidList
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, lists, nil, nil, nil)
	router := newMeRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/me/lists/list-404", nil)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestMeHandlersGetItemsIncludeArchived(t *testing.T) {
	user := testUser("user-1", "alice")
	items := &stubUserItems{
		listFunc: func(ctx context.Context, spec services.GetItemsSpecification) ([]services.ItemResult, error) {
			if !spec.IncludeArchived {
				t.Fatalf("expected include archived to be set")
			}
			return []services.ItemResult{
				{ID: "item-1", ListID: spec.ListID, Title: "Bicycle"},
				{ID: "item-2", ListID: spec.ListID, Title: "Old thing", Archived: true},
			}, nil
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, nil, items, nil, nil)
	router := newMeRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/me/lists/list-1/items?include_archived=true", nil)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp []itemPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || !resp[1].Archived {
		t.Fatalf("expected two items with the second archived, got %#v", resp)
	}
}

func TestMeHandlersUpdateItemArchives(t *testing.T) {
	user := testUser("user-1", "alice")
	items := &stubUserItems{
		updateFunc: func(ctx context.Context, spec services.UpdateItemSpecification) (services.ItemResult, error) {
			if spec.Archived == nil || !*spec.Archived {
				t.Fatalf("expected archived pointer true, got %#v", spec.Archived)
			}
			return services.ItemResult{ID: spec.ItemID, ListID: spec.ListID, Title: spec.Values.Title, Archived: true}, nil
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, nil, items, nil, nil)
	router := newMeRouter(handler)

	body := strings.NewReader(`{"title":"Bicycle","preference":"normal","archived":true}`)
	req := httptest.NewRequest(http.MethodPut, "/me/lists/list-1/items/item-1", body)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp itemPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Archived {
		t.Fatalf("expected archived item, got %#v", resp)
	}
}

func TestMeHandlersMoveItem(t *testing.T) {
	user := testUser("user-1", "alice")
	items := &stubUserItems{
		moveFunc: func(ctx context.Context, spec services.MoveItemSpecification) (services.ItemResult, error) {
			if spec.TargetListID != "list-2" {
				t.Fatalf("unexpected target list %q", spec.TargetListID)
			}
			return services.ItemResult{ID: spec.ItemID, ListID: spec.TargetListID, Title: "Bicycle"}, nil
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, nil, items, nil, nil)
	router := newMeRouter(handler)

	body := strings.NewReader(`{"target_list_id":"list-2"}`)
	req := httptest.NewRequest(http.MethodPost, "/me/lists/list-1/items/item-1/move", body)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp itemPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ListID != "list-2" {
		t.Fatalf("expected item moved to list-2, got %q", resp.ListID)
	}
}

func TestMeHandlersMoveItemReserved(t *testing.T) {
	user := testUser("user-1", "alice")
	items := &stubUserItems{
		moveFunc: func(context.Context, services.MoveItemSpecification) (services.ItemResult, error) {
			return services.ItemResult{}, services.ErrItemReserved
		},
	}

	handler := NewMeHandlers(nil, resolverForUser(user), nil, nil, items, nil, nil)
	router := newMeRouter(handler)

	body := strings.NewReader(`{"target_list_id":"list-2"}`)
	req := httptest.NewRequest(http.MethodPost, "/me/lists/list-1/items/item-1/move", body)
	req = req.WithContext(identityContext(req.Context(), "uid-1"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}
