package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

const (
	reservationRateLimit  = 30
	reservationRateWindow = time.Minute
)

// WishlistHandlers exposes wishlist viewing and reservation endpoints. The
// caller may be anonymous; visibility rules in the service decide access.
type WishlistHandlers struct {
	resolver  *SubjectResolver
	wishlists services.Wishlist
	limiter   rateLimiter
	images    ImageURLResolver
}

// WishlistHandlersOption customises WishlistHandlers behaviour.
type WishlistHandlersOption func(*WishlistHandlers)

// WithReservationRateLimiter overrides the limiter guarding reservation writes.
func WithReservationRateLimiter(limiter rateLimiter) WishlistHandlersOption {
	return func(h *WishlistHandlers) {
		h.limiter = limiter
	}
}

// WithReservationRateLimit replaces the default limiter with one allowing
// the given number of reservation attempts per window.
func WithReservationRateLimit(limit int, window time.Duration) WishlistHandlersOption {
	return func(h *WishlistHandlers) {
		if limit > 0 && window > 0 {
			h.limiter = newSimpleRateLimiter(limit, window, nil)
		}
	}
}

// WithImageURLs resolves stored item images into downloadable URLs.
func WithImageURLs(images ImageURLResolver) WishlistHandlersOption {
	return func(h *WishlistHandlers) {
		h.images = images
	}
}

// NewWishlistHandlers constructs handlers for the public wishlist surface.
func NewWishlistHandlers(resolver *SubjectResolver, wishlists services.Wishlist, opts ...WishlistHandlersOption) *WishlistHandlers {
	h := &WishlistHandlers{
		resolver:  resolver,
		wishlists: wishlists,
		limiter:   newSimpleRateLimiter(reservationRateLimit, reservationRateWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /wishlists endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{ownerID}/{listID}", h.presentWishlist)
	r.Post("/{ownerID}/{listID}/reservations", h.addReservation)
	r.Delete("/reservations/{reservationID}", h.removeReservation)
}

func (h *WishlistHandlers) presentWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	ownerID := domain.ParseID(chi.URLParam(r, "ownerID"))
	listID := domain.ParseID(chi.URLParam(r, "listID"))
	if ownerID.IsZero() || listID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "owner and list ids are required", http.StatusBadRequest))
		return
	}

	wishlist, err := h.wishlists.PresentWishlist(ctx, services.NewPresentWishlistSpecification(subject, ownerID, listID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildWishlistPayload(ctx, wishlist, h.images))
}

type addReservationRequest struct {
	ItemID string `json:"item_id"`
}

func (h *WishlistHandlers) addReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(subject.Holder().String()) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many reservation attempts", http.StatusTooManyRequests))
		return
	}

	ownerID := domain.ParseID(chi.URLParam(r, "ownerID"))
	listID := domain.ParseID(chi.URLParam(r, "listID"))
	if ownerID.IsZero() || listID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "owner and list ids are required", http.StatusBadRequest))
		return
	}

	var req addReservationRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	itemID := domain.ParseID(req.ItemID)
	if itemID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item_id is required", http.StatusBadRequest))
		return
	}

	reservation, err := h.wishlists.AddReservation(ctx, services.NewAddReservationSpecification(subject, ownerID, listID, itemID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildReservationPayload(reservation))
}

func (h *WishlistHandlers) removeReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	reservationID := domain.ParseID(strings.TrimSpace(chi.URLParam(r, "reservationID")))
	if reservationID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "reservation id is required", http.StatusBadRequest))
		return
	}

	if err := h.wishlists.RemoveReservation(ctx, services.NewRemoveReservationSpecification(subject, reservationID)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
