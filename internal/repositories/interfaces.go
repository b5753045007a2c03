package repositories

import (
	"context"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Users() UserRepository
	Lists() ListRepository
	Items() ItemRepository
	Reservations() ReservationRepository
	Favorites() FavoriteRepository
	Invitations() InvitationRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository stores user profiles and owns the nickname claim set.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, userID domain.ID) (domain.User, error)
	// FindByIdentity resolves a user by the subject asserted by the
	// identity provider.
	FindByIdentity(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error)
	FindByNickName(ctx context.Context, nickName string) (domain.User, error)
	// ClaimNickName reserves a nickname for the given user; a conflict
	// error signals the name is already taken by someone else.
	ClaimNickName(ctx context.Context, nickName string, userID domain.ID) error
	ReleaseNickName(ctx context.Context, nickName string, userID domain.ID) error
	Count(ctx context.Context) (int64, error)
}

// ListRepository stores wishlists underneath their owner.
type ListRepository interface {
	Insert(ctx context.Context, list domain.List) error
	Update(ctx context.Context, list domain.List) error
	// Delete removes the list document only; callers cascade items and
	// reservations through a unit of work.
	Delete(ctx context.Context, ownerID domain.ID, listID domain.ID) error
	FindByID(ctx context.Context, ownerID domain.ID, listID domain.ID) (domain.List, error)
	ListByOwner(ctx context.Context, ownerID domain.ID) ([]domain.List, error)
	CountByOwner(ctx context.Context, ownerID domain.ID) (int, error)
	// ExistsWithTitle reports whether the owner already has a list with
	// the given title, excluding the list identified by excludeID.
	ExistsWithTitle(ctx context.Context, ownerID domain.ID, title string, excludeID domain.ID) (bool, error)
}

// ItemRepository stores items underneath their list.
type ItemRepository interface {
	Insert(ctx context.Context, ownerID domain.ID, item domain.Item) error
	Update(ctx context.Context, ownerID domain.ID, item domain.Item) error
	Delete(ctx context.Context, ownerID domain.ID, listID domain.ID, itemID domain.ID) error
	FindByID(ctx context.Context, ownerID domain.ID, listID domain.ID, itemID domain.ID) (domain.Item, error)
	ListByList(ctx context.Context, ownerID domain.ID, listID domain.ID, query ItemListQuery) ([]domain.Item, error)
	CountByList(ctx context.Context, ownerID domain.ID, listID domain.ID) (int, error)
	// MoveToList re-homes the item under the target list in one
	// transactional step.
	MoveToList(ctx context.Context, ownerID domain.ID, item domain.Item, targetListID domain.ID) (domain.Item, error)
}

// ItemListQuery controls ordering and archival filtering for item listings.
type ItemListQuery struct {
	Sort            domain.ItemSort
	Order           domain.SortOrder
	IncludeArchived bool
}

// ReservationRepository stores reservations keyed by the reserved item, so
// document existence doubles as the one-active-reservation-per-item
// constraint.
type ReservationRepository interface {
	// Insert fails with a conflict error when the item already carries an
	// active reservation.
	Insert(ctx context.Context, reservation domain.Reservation) error
	Delete(ctx context.Context, itemID domain.ID) error
	FindByID(ctx context.Context, reservationID domain.ID) (domain.Reservation, error)
	FindByItem(ctx context.Context, itemID domain.ID) (domain.Reservation, error)
	ListByList(ctx context.Context, listID domain.ID) ([]domain.Reservation, error)
	ListByHolder(ctx context.Context, holder domain.Identification) ([]domain.Reservation, error)
	// Transfer re-assigns every reservation held under from to to and
	// returns how many were moved.
	Transfer(ctx context.Context, from domain.Identification, to domain.Identification) (int, error)
}

// FavoriteRepository tracks which lists a user bookmarked.
type FavoriteRepository interface {
	Insert(ctx context.Context, favorite domain.Favorite) error
	Update(ctx context.Context, favorite domain.Favorite) error
	Delete(ctx context.Context, userID domain.ID, favoriteID domain.ID) error
	FindByID(ctx context.Context, userID domain.ID, favoriteID domain.ID) (domain.Favorite, error)
	FindByList(ctx context.Context, userID domain.ID, listID domain.ID) (domain.Favorite, error)
	ListByUser(ctx context.Context, userID domain.ID) ([]domain.Favorite, error)
	CountByUser(ctx context.Context, userID domain.ID) (int, error)
	// ListSubscribers returns every favorite of the given list across all
	// users, used to fan out list activity notifications.
	ListSubscribers(ctx context.Context, listID domain.ID) ([]domain.Favorite, error)
}

// InvitationRepository stores invitations and owns the code claim set.
type InvitationRepository interface {
	// Insert fails with a conflict error when the invitation code is
	// already claimed.
	Insert(ctx context.Context, invitation domain.Invitation) error
	Update(ctx context.Context, invitation domain.Invitation) error
	FindByID(ctx context.Context, invitationID domain.ID) (domain.Invitation, error)
	FindByCode(ctx context.Context, code string) (domain.Invitation, error)
	ListByInviter(ctx context.Context, inviterID domain.ID) ([]domain.Invitation, error)
	CountByInviter(ctx context.Context, inviterID domain.ID) (int, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
