package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

func (h *MeHandlers) favoriteRoutes(r chi.Router) {
	r.Get("/", h.getFavorites)
	r.Put("/lists/{ownerID}/{listID}", h.createFavorite)
	r.Put("/{favoriteID}/notifications", h.updateFavoriteNotifications)
	r.Delete("/{favoriteID}", h.deleteFavorite)
}

func (h *MeHandlers) getFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	favorites, err := h.favorites.GetFavorites(ctx, services.NewGetFavoritesSpecification(subject))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]favoritePayload, 0, len(favorites))
	for _, favorite := range favorites {
		payload = append(payload, buildFavoritePayload(favorite))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *MeHandlers) createFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	ownerID, ok := pathID(ctx, w, r, "ownerID")
	if !ok {
		return
	}
	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	favorite, err := h.favorites.CreateFavorite(ctx, services.NewCreateFavoriteSpecification(subject, ownerID, listID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildFavoritePayload(favorite))
}

type favoriteNotificationsRequest struct {
	Channels []string `json:"channels"`
}

func (h *MeHandlers) updateFavoriteNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	favoriteID, ok := pathID(ctx, w, r, "favoriteID")
	if !ok {
		return
	}

	var req favoriteNotificationsRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	favorite, err := h.favorites.UpdateFavoriteNotifications(ctx, services.NewUpdateFavoriteNotificationsSpecification(subject, favoriteID, channelsFromStrings(req.Channels)))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildFavoritePayload(favorite))
}

func (h *MeHandlers) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	favoriteID, ok := pathID(ctx, w, r, "favoriteID")
	if !ok {
		return
	}

	if err := h.favorites.DeleteFavorite(ctx, services.NewDeleteFavoriteSpecification(subject, favoriteID)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
