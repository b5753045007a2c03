package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

// InvitationHandlers exposes invitation redemption by code. Accepting
// requires a verified identity because it creates or links an account;
// declining works for anyone holding the code.
type InvitationHandlers struct {
	authn       *auth.Authenticator
	resolver    *SubjectResolver
	invitations services.UserInvitations
}

// NewInvitationHandlers constructs the invitation redemption handlers.
func NewInvitationHandlers(authn *auth.Authenticator, resolver *SubjectResolver, invitations services.UserInvitations) *InvitationHandlers {
	return &InvitationHandlers{authn: authn, resolver: resolver, invitations: invitations}
}

// Routes wires the invitation redemption endpoints onto the provided router.
func (h *InvitationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	accept := chi.Chain()
	if h.authn != nil {
		accept = chi.Chain(h.authn.RequireFirebaseAuth())
	}
	r.With(accept...).Post("/{code}/accept", h.acceptInvitation)
	r.Post("/{code}/decline", h.declineInvitation)
}

func pathCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "code is required", http.StatusBadRequest))
		return "", false
	}
	return code, true
}

func (h *InvitationHandlers) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, ok := pathCode(w, r)
	if !ok {
		return
	}

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	invitation, err := h.invitations.AcceptInvitation(ctx, services.NewAcceptInvitationSpecification(subject, code))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildInvitationPayload(invitation))
}

func (h *InvitationHandlers) declineInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, ok := pathCode(w, r)
	if !ok {
		return
	}

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	invitation, err := h.invitations.DeclineInvitation(ctx, services.NewDeclineInvitationSpecification(subject, code))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildInvitationPayload(invitation))
}
