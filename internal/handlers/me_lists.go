package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

func (h *MeHandlers) listRoutes(r chi.Router) {
	r.Get("/", h.getLists)
	r.Post("/", h.createList)
	r.Get("/{listID}", h.getList)
	r.Put("/{listID}", h.updateList)
	r.Delete("/{listID}", h.deleteList)

	r.Get("/{listID}/items", h.getItems)
	r.Post("/{listID}/items", h.createItem)
	r.Get("/{listID}/items/{itemID}", h.getItem)
	r.Put("/{listID}/items/{itemID}", h.updateItem)
	r.Delete("/{listID}/items/{itemID}", h.deleteItem)
	r.Post("/{listID}/items/{itemID}/move", h.moveItem)
}

type listRequest struct {
	Title            string  `json:"title"`
	Visibility       string  `json:"visibility"`
	MaskReservations bool    `json:"mask_reservations"`
	ItemSort         *string `json:"item_sort"`
}

func (req listRequest) values() domain.ListValues {
	return domain.ListValues{
		Title:      req.Title,
		Visibility: req.Visibility,
		Options:    domain.ListOptions{MaskReservations: req.MaskReservations},
		ItemSort:   req.ItemSort,
	}
}

func (h *MeHandlers) getLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	lists, err := h.lists.GetLists(ctx, services.NewGetListsSpecification(subject))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]listPayload, 0, len(lists))
	for _, list := range lists {
		payload = append(payload, buildListPayload(list))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *MeHandlers) createList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	var req listRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	list, err := h.lists.CreateList(ctx, services.NewCreateListSpecification(subject, req.values()))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildListPayload(list))
}

func (h *MeHandlers) getList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	list, err := h.lists.GetList(ctx, services.NewGetListSpecification(subject, listID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildListPayload(list))
}

func (h *MeHandlers) updateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	var req listRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	list, err := h.lists.UpdateList(ctx, services.NewUpdateListSpecification(subject, listID, req.values()))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildListPayload(list))
}

func (h *MeHandlers) deleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	if err := h.lists.DeleteList(ctx, services.NewDeleteListSpecification(subject, listID)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	Title      string  `json:"title"`
	Text       string  `json:"text"`
	Preference string  `json:"preference"`
	URL        *string `json:"url"`
	ImageURL   *string `json:"image_url"`
	Archived   *bool   `json:"archived"`
}

func (req itemRequest) values() domain.ItemValues {
	return domain.ItemValues{
		Title:      req.Title,
		Text:       req.Text,
		Preference: req.Preference,
		URL:        req.URL,
		ImageURL:   req.ImageURL,
	}
}

func (h *MeHandlers) getItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	spec := services.NewGetItemsSpecification(subject, listID)
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("include_archived")), "true") {
		spec.IncludeArchived = true
	}

	items, err := h.items.GetItems(ctx, spec)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]itemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, buildItemPayload(ctx, item, h.images))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *MeHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}

	var req itemRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	item, err := h.items.CreateItem(ctx, services.NewCreateItemSpecification(subject, listID, req.values()))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildItemPayload(ctx, item, h.images))
}

func (h *MeHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, w, r, "itemID")
	if !ok {
		return
	}

	item, err := h.items.GetItem(ctx, services.NewGetItemSpecification(subject, listID, itemID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildItemPayload(ctx, item, h.images))
}

func (h *MeHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, w, r, "itemID")
	if !ok {
		return
	}

	var req itemRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	spec := services.NewUpdateItemSpecification(subject, listID, itemID, req.values())
	spec.Archived = req.Archived

	item, err := h.items.UpdateItem(ctx, spec)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildItemPayload(ctx, item, h.images))
}

func (h *MeHandlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, w, r, "itemID")
	if !ok {
		return
	}

	if err := h.items.DeleteItem(ctx, services.NewDeleteItemSpecification(subject, listID, itemID)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type moveItemRequest struct {
	TargetListID string `json:"target_list_id"`
}

func (h *MeHandlers) moveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	listID, ok := pathID(ctx, w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, w, r, "itemID")
	if !ok {
		return
	}

	var req moveItemRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	targetListID := domain.ParseID(req.TargetListID)
	if targetListID.IsZero() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "target_list_id is required", http.StatusBadRequest))
		return
	}

	item, err := h.items.MoveItem(ctx, services.NewMoveItemSpecification(subject, listID, itemID, targetListID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildItemPayload(ctx, item, h.images))
}
