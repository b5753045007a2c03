package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

func (h *MeHandlers) invitationRoutes(r chi.Router) {
	r.Get("/", h.getInvitations)
	r.Post("/", h.createInvitation)
	r.Post("/{invitationID}/send", h.sendInvitation)
	r.Post("/{invitationID}/revoke", h.revokeInvitation)
}

func (h *MeHandlers) getInvitations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	invitations, err := h.invitations.GetInvitations(ctx, services.NewGetInvitationsSpecification(subject))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]invitationPayload, 0, len(invitations))
	for _, invitation := range invitations {
		payload = append(payload, buildInvitationPayload(invitation))
	}
	writeJSON(w, http.StatusOK, payload)
}

type createInvitationRequest struct {
	Email string `json:"email"`
}

func (h *MeHandlers) createInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	var req createInvitationRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	invitation, err := h.invitations.CreateInvitation(ctx, services.NewCreateInvitationSpecification(subject, domain.InvitationValues{
		Email: req.Email,
	}))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, buildInvitationPayload(invitation))
}

func (h *MeHandlers) sendInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	invitationID, ok := pathID(ctx, w, r, "invitationID")
	if !ok {
		return
	}

	invitation, err := h.invitations.SendInvitation(ctx, services.NewSendInvitationSpecification(subject, invitationID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildInvitationPayload(invitation))
}

func (h *MeHandlers) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	invitationID, ok := pathID(ctx, w, r, "invitationID")
	if !ok {
		return
	}

	invitation, err := h.invitations.RevokeInvitation(ctx, services.NewRevokeInvitationSpecification(subject, invitationID))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildInvitationPayload(invitation))
}
