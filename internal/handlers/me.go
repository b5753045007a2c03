package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/services"
)

// MeHandlers exposes the authenticated user's own surface: profile, lists,
// items, favorites, and invitations.
type MeHandlers struct {
	authn       *auth.Authenticator
	resolver    *SubjectResolver
	users       services.UserService
	lists       services.UserLists
	items       services.UserItems
	favorites   services.UserFavorites
	invitations services.UserInvitations
	images      ImageURLResolver
}

// MeHandlersOption customises MeHandlers behaviour.
type MeHandlersOption func(*MeHandlers)

// WithMeImageURLs resolves stored item images into downloadable URLs.
func WithMeImageURLs(images ImageURLResolver) MeHandlersOption {
	return func(h *MeHandlers) {
		h.images = images
	}
}

// NewMeHandlers constructs handlers enforcing Firebase authentication before
// invoking the user facing services.
func NewMeHandlers(
	authn *auth.Authenticator,
	resolver *SubjectResolver,
	users services.UserService,
	lists services.UserLists,
	items services.UserItems,
	favorites services.UserFavorites,
	invitations services.UserInvitations,
	opts ...MeHandlersOption,
) *MeHandlers {
	h := &MeHandlers{
		authn:       authn,
		resolver:    resolver,
		users:       users,
		lists:       lists,
		items:       items,
		favorites:   favorites,
		invitations: invitations,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /me endpoints onto the provided router.
func (h *MeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Post("/login", h.login)
	r.Get("/", h.getProfile)
	r.Put("/", h.updateProfile)
	r.Route("/lists", h.listRoutes)
	r.Route("/favorites", h.favoriteRoutes)
	if h.invitations != nil {
		r.Route("/invitations", h.invitationRoutes)
	}
}

type loginResponse struct {
	User                    userPayload `json:"user"`
	Created                 bool        `json:"created"`
	TransferredReservations int         `json:"transferred_reservations"`
}

// login resolves or creates the account for the verified identity. Guest
// reservations held under the session identification move to the account
// when it is created by this login.
func (h *MeHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	identification, _ := auth.IdentificationFromContext(ctx)

	spec := services.NewAuthenticateUserSpecification(
		externalIdentity(identity),
		identity.Email,
		tokenClaim(identity, "name"),
		tokenClaim(identity, "given_name"),
		identity.Locale,
		identification,
	)

	result, err := h.users.Authenticate(ctx, spec)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, loginResponse{
		User:                    buildUserPayload(result.User),
		Created:                 result.Created,
		TransferredReservations: result.TransferredReservations,
	})
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	profile, err := h.users.Profile(ctx, services.NewProfileSpecification(subject))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildUserPayload(profile))
}

type updateProfileRequest struct {
	FullName      string  `json:"full_name"`
	NickName      *string `json:"nick_name"`
	Language      *string `json:"language"`
	Notifications *struct {
		Enabled  bool     `json:"enabled"`
		Channels []string `json:"channels"`
	} `json:"notifications"`
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := h.resolver.Resolve(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := readJSONBody(r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	values := domain.UserValues{
		FullName: req.FullName,
		NickName: req.NickName,
		Language: req.Language,
	}
	if req.Notifications != nil {
		values.Settings = &domain.UserSettings{
			NotificationsEnabled: req.Notifications.Enabled,
			Channels:             channelsFromStrings(req.Notifications.Channels),
		}
	}

	updated, err := h.users.UpdateProfile(ctx, services.NewUpdateProfileSpecification(subject, values))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, buildUserPayload(updated))
}

func tokenClaim(identity *auth.Identity, key string) string {
	token := identity.Token()
	if token == nil {
		return ""
	}
	if value, ok := token.Claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
