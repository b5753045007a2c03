package handlers

import (
	"context"
	"errors"
	"net/http"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/repositories"
	"github.com/edmw/wishlist-sub001/internal/services"
)

// writeServiceError maps the service layer's error vocabulary onto the JSON
// error envelope. Unknown errors become an opaque 500 so internals never
// leak to clients.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var invalidValues services.InvalidValuesError
	if errors.As(err, &invalidValues) {
		httpx.WriteError(ctx, w, httpx.
			NewError("invalid_values", "validation failed", http.StatusBadRequest).
			WithDetails(map[string]any{
				"subject":    invalidValues.Subject,
				"properties": validationDetails(invalidValues.Validation),
			}))
		return
	}

	var limitReached services.LimitReachedError
	if errors.As(err, &limitReached) {
		httpx.WriteError(ctx, w, httpx.
			NewError("limit_reached", "limit reached", http.StatusConflict).
			WithDetails(map[string]any{"maximum": limitReached.Maximum}))
		return
	}

	var invitationStatus services.InvalidInvitationStatusError
	if errors.As(err, &invitationStatus) {
		httpx.WriteError(ctx, w, httpx.
			NewError("invitation_not_open", "invitation is no longer open", http.StatusConflict).
			WithDetails(map[string]any{"status": string(invitationStatus.Status)}))
		return
	}

	switch {
	case errors.Is(err, services.ErrAuthenticationRequired):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
	case errors.Is(err, services.ErrAccessDenied):
		httpx.WriteError(ctx, w, httpx.NewError("access_denied", "access denied", http.StatusForbidden))
	case errors.Is(err, services.ErrInvalidUser):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidList):
		httpx.WriteError(ctx, w, httpx.NewError("list_not_found", "list not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidItem):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidReservation):
		httpx.WriteError(ctx, w, httpx.NewError("reservation_not_found", "reservation not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidFavorite):
		httpx.WriteError(ctx, w, httpx.NewError("favorite_not_found", "favorite not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidInvitation):
		httpx.WriteError(ctx, w, httpx.NewError("invitation_not_found", "invitation not found", http.StatusNotFound))
	case errors.Is(err, services.ErrItemReservationExist):
		httpx.WriteError(ctx, w, httpx.NewError("item_already_reserved", "item already carries a reservation", http.StatusConflict))
	case errors.Is(err, services.ErrItemHolderMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("reservation_holder_mismatch", "reservation is held by someone else", http.StatusForbidden))
	case errors.Is(err, services.ErrItemReserved):
		httpx.WriteError(ctx, w, httpx.NewError("item_reserved", "item carries an active reservation", http.StatusConflict))
	case errors.Is(err, services.ErrUniquenessViolated):
		httpx.WriteError(ctx, w, httpx.NewError("uniqueness_violated", "value is already taken", http.StatusConflict))
	case errors.Is(err, services.ErrLimitReached):
		httpx.WriteError(ctx, w, httpx.NewError("limit_reached", "limit reached", http.StatusConflict))
	case errors.Is(err, services.ErrInvalidValues):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_values", "validation failed", http.StatusBadRequest))
	default:
		writeInfrastructureError(ctx, w, err)
	}
}

func writeInfrastructureError(ctx context.Context, w http.ResponseWriter, err error) {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "backend temporarily unavailable", http.StatusServiceUnavailable))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
}

func validationDetails(validation domain.ValidationError) map[string]string {
	details := make(map[string]string, len(validation))
	for property, message := range validation {
		details[property] = message
	}
	return details
}
