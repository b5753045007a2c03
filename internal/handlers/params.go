package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
)

// pathID extracts a URL parameter as an entity id, writing a 400 response
// when it is missing.
func pathID(ctx context.Context, w http.ResponseWriter, r *http.Request, name string) (domain.ID, bool) {
	id := domain.ParseID(chi.URLParam(r, name))
	if id.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("%s is required", name), http.StatusBadRequest))
		return "", false
	}
	return id, true
}
