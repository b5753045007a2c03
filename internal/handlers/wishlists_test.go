package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/services"
)

type allowAllLimiter struct{}

func (allowAllLimiter) Allow(string) bool { return true }

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestWishlistHandlersPresentWishlistResolvesImageURLs(t *testing.T) {
	service := &stubWishlistService{
		presentFunc: func(ctx context.Context, spec services.PresentWishlistSpecification) (services.WishlistResult, error) {
			return services.WishlistResult{
				ID:      "list-1",
				OwnerID: "owner-1",
				Items: []services.ItemResult{
					{
						ID:            "item-1",
						ListID:        "list-1",
						Title:         "Bicycle",
						Preference:    domain.PreferenceNormal,
						LocalImageURL: "images/users/owner-1/lists/list-1/items/item-1/cover.jpg",
					},
				},
			}, nil
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service, WithImageURLs(func(_ context.Context, objectPath string) string {
		return "https://images.example.com/" + objectPath
	}))

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/wishlists/owner-1/list-1", nil)
	req = req.WithContext(auth.WithIdentification(req.Context(), domain.ParseIdentification("guest-1")))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp wishlistPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(resp.Items))
	}
	want := "https://images.example.com/images/users/owner-1/lists/list-1/items/item-1/cover.jpg"
	if resp.Items[0].LocalImage != want {
		t.Fatalf("unexpected local image url %q", resp.Items[0].LocalImage)
	}
}

func TestWishlistHandlersPresentWishlist(t *testing.T) {
	now := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	service := &stubWishlistService{
		presentFunc: func(ctx context.Context, spec services.PresentWishlistSpecification) (services.WishlistResult, error) {
			if spec.OwnerID != "owner-1" || spec.ListID != "list-1" {
				t.Fatalf("unexpected spec %q/%q", spec.OwnerID, spec.ListID)
			}
			if spec.Subject.Authenticated() {
				t.Fatalf("expected anonymous subject")
			}
			return services.WishlistResult{
				ID:        "list-1",
				Title:     "Birthday",
				ItemSort:  domain.ItemSortTitle,
				OwnerID:   "owner-1",
				OwnerName: "Alice",
				Items: []services.ItemResult{
					{
						ID:         "item-1",
						ListID:     "list-1",
						Title:      "Bicycle",
						Preference: domain.PreferenceNormal,
						CreatedAt:  now,
						Reservation: &services.ReservationResult{
							ID:        "res-1",
							ItemID:    "item-1",
							ListID:    "list-1",
							IsHolder:  true,
							CreatedAt: now,
						},
					},
				},
			}, nil
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service)

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/wishlists/owner-1/list-1", nil)
	req = req.WithContext(auth.WithIdentification(req.Context(), domain.ParseIdentification("guest-1")))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp wishlistPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "list-1" || resp.OwnerName != "Alice" {
		t.Fatalf("unexpected payload %#v", resp)
	}
	if len(resp.Items) != 1 || resp.Items[0].Reservation == nil || !resp.Items[0].Reservation.IsHolder {
		t.Fatalf("expected one item with holder reservation, got %#v", resp.Items)
	}
}

func TestWishlistHandlersPresentWishlistAccessDenied(t *testing.T) {
	service := &stubWishlistService{
		presentFunc: func(context.Context, services.PresentWishlistSpecification) (services.WishlistResult, error) {
			return services.WishlistResult{}, services.ErrAccessDenied
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service)

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	req := httptest.NewRequest(http.MethodGet, "/wishlists/owner-1/list-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestWishlistHandlersAddReservation(t *testing.T) {
	service := &stubWishlistService{
		addFunc: func(ctx context.Context, spec services.AddReservationSpecification) (services.ReservationResult, error) {
			if spec.ItemID != "item-9" {
				t.Fatalf("unexpected item id %q", spec.ItemID)
			}
			if spec.Subject.Holder() != "guest-7" {
				t.Fatalf("unexpected holder %q", spec.Subject.Holder())
			}
			return services.ReservationResult{
				ID:       "res-9",
				ItemID:   spec.ItemID,
				ListID:   spec.ListID,
				IsHolder: true,
			}, nil
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service, WithReservationRateLimiter(allowAllLimiter{}))

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	body := strings.NewReader(`{"item_id":"item-9"}`)
	req := httptest.NewRequest(http.MethodPost, "/wishlists/owner-1/list-1/reservations", body)
	req = req.WithContext(auth.WithIdentification(req.Context(), domain.ParseIdentification("guest-7")))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var resp reservationPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "res-9" || !resp.IsHolder {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestWishlistHandlersAddReservationConflict(t *testing.T) {
	service := &stubWishlistService{
		addFunc: func(context.Context, services.AddReservationSpecification) (services.ReservationResult, error) {
			return services.ReservationResult{}, services.ErrItemReservationExist
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service, WithReservationRateLimiter(allowAllLimiter{}))

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	body := strings.NewReader(`{"item_id":"item-9"}`)
	req := httptest.NewRequest(http.MethodPost, "/wishlists/owner-1/list-1/reservations", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var bodyJSON map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &bodyJSON); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if bodyJSON["error"] != "item_already_reserved" {
		t.Fatalf("expected item_already_reserved error, got %v", bodyJSON["error"])
	}
}

func TestWishlistHandlersAddReservationRateLimited(t *testing.T) {
	handler := NewWishlistHandlers(anonymousResolver(), &stubWishlistService{}, WithReservationRateLimiter(denyAllLimiter{}))

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	body := strings.NewReader(`{"item_id":"item-9"}`)
	req := httptest.NewRequest(http.MethodPost, "/wishlists/owner-1/list-1/reservations", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
}

func TestWishlistHandlersAddReservationMissingItem(t *testing.T) {
	handler := NewWishlistHandlers(anonymousResolver(), &stubWishlistService{}, WithReservationRateLimiter(allowAllLimiter{}))

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/wishlists/owner-1/list-1/reservations", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestWishlistHandlersRemoveReservation(t *testing.T) {
	called := false
	service := &stubWishlistService{
		removeFunc: func(ctx context.Context, spec services.RemoveReservationSpecification) error {
			called = true
			if spec.ReservationID != "res-3" {
				t.Fatalf("unexpected reservation id %q", spec.ReservationID)
			}
			return nil
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service)

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	req := httptest.NewRequest(http.MethodDelete, "/wishlists/reservations/res-3", nil)
	req = req.WithContext(auth.WithIdentification(req.Context(), domain.ParseIdentification("guest-7")))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !called {
		t.Fatalf("expected RemoveReservation to be called")
	}
}

func TestWishlistHandlersRemoveReservationHolderMismatch(t *testing.T) {
	service := &stubWishlistService{
		removeFunc: func(context.Context, services.RemoveReservationSpecification) error {
			return services.ErrItemHolderMismatch
		},
	}

	handler := NewWishlistHandlers(anonymousResolver(), service)

	router := chi.NewRouter()
	router.Route("/wishlists", handler.Routes)

	req := httptest.NewRequest(http.MethodDelete, "/wishlists/reservations/res-3", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}
