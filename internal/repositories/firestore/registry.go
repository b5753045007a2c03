package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

// Registry wires the Firestore backed repositories to a shared provider.
type Registry struct {
	provider *pfirestore.Provider

	users        *UserRepository
	lists        *ListRepository
	items        *ItemRepository
	reservations *ReservationRepository
	favorites    *FavoriteRepository
	invitations  *InvitationRepository
	auditLogs    *AuditLogRepository
	health       repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the repository registry on top of the provider.
// The health repository is injected because its probe set is assembled by
// the caller from all wired backends, not just Firestore.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry: firestore provider is required")
	}
	if health == nil {
		return nil, errors.New("registry: health repository is required")
	}
	return &Registry{
		provider:     provider,
		users:        NewUserRepository(provider),
		lists:        NewListRepository(provider),
		items:        NewItemRepository(provider),
		reservations: NewReservationRepository(provider),
		favorites:    NewFavoriteRepository(provider),
		invitations:  NewInvitationRepository(provider),
		auditLogs:    NewAuditLogRepository(provider),
		health:       health,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) Users() repositories.UserRepository               { return r.users }
func (r *Registry) Lists() repositories.ListRepository               { return r.lists }
func (r *Registry) Items() repositories.ItemRepository               { return r.items }
func (r *Registry) Reservations() repositories.ReservationRepository { return r.reservations }
func (r *Registry) Favorites() repositories.FavoriteRepository       { return r.favorites }
func (r *Registry) Invitations() repositories.InvitationRepository   { return r.invitations }
func (r *Registry) AuditLogs() repositories.AuditLogRepository       { return r.auditLogs }
func (r *Registry) Health() repositories.HealthRepository            { return r.health }

// RunInTx executes fn as a plain sequence of repository calls. Firestore
// transactions are bound to an explicit transaction handle, not to the
// context, so cross-repository grouping degrades to best-effort ordering
// here; callers sequence deletes children-first to stay safe.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is required")
	}
	return fn(ctx)
}
