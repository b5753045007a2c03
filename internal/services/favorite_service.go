package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

const (
	auditActionFavoriteCreate = "favorite.create"
	auditActionFavoriteUpdate = "favorite.update"
	auditActionFavoriteDelete = "favorite.delete"
)

// UserFavoritesDeps bundles the dependencies required to construct a user favorites service instance.
type UserFavoritesDeps struct {
	Users     repositories.UserRepository
	Lists     repositories.ListRepository
	Favorites repositories.FavoriteRepository
	Audit     AuditLogService
	Quotas    Quotas
	Clock     func() time.Time
	Log       Logger
}

type userFavorites struct {
	users     repositories.UserRepository
	lists     repositories.ListRepository
	favorites repositories.FavoriteRepository
	audit     AuditLogService
	quotas    Quotas
	clock     func() time.Time
	log       Logger
}

// NewUserFavorites wires dependencies into a concrete UserFavorites implementation.
func NewUserFavorites(deps UserFavoritesDeps) (UserFavorites, error) {
	if deps.Users == nil {
		return nil, errors.New("user favorites: user repository is required")
	}
	if deps.Lists == nil {
		return nil, errors.New("user favorites: list repository is required")
	}
	if deps.Favorites == nil {
		return nil, errors.New("user favorites: favorite repository is required")
	}

	quotas := deps.Quotas
	if quotas.MaxFavoritesPerUser <= 0 {
		quotas = DefaultQuotas()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &userFavorites{
		users:     deps.Users,
		lists:     deps.Lists,
		favorites: deps.Favorites,
		audit:     deps.Audit,
		quotas:    quotas,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *userFavorites) CreateFavorite(ctx context.Context, spec CreateFavoriteSpecification) (FavoriteResult, error) {
	if !spec.Subject.Authenticated() {
		return FavoriteResult{}, ErrAuthenticationRequired
	}
	user := *spec.Subject.User

	owner, err := s.users.FindByID(ctx, spec.OwnerID)
	if err != nil {
		return FavoriteResult{}, notFoundAs(err, ErrInvalidUser)
	}
	list, err := s.lists.FindByID(ctx, owner.ID, spec.ListID)
	if err != nil {
		return FavoriteResult{}, notFoundAs(err, ErrInvalidList)
	}
	if _, err := AuthorizeList(list, owner, spec.Subject); err != nil {
		return FavoriteResult{}, err
	}

	// Favoriting an already favored list returns the existing favorite.
	existing, err := s.favorites.FindByList(ctx, user.ID, list.ID)
	if err == nil {
		return newFavoriteResult(existing, list, owner), nil
	}
	if !isNotFound(err) {
		return FavoriteResult{}, err
	}

	count, err := s.favorites.CountByUser(ctx, user.ID)
	if err != nil {
		return FavoriteResult{}, err
	}
	if count >= s.quotas.MaxFavoritesPerUser {
		return FavoriteResult{}, LimitReachedError{Maximum: s.quotas.MaxFavoritesPerUser}
	}

	favorite := domain.Favorite{
		ID:          domain.NewID(),
		UserID:      user.ID,
		ListOwnerID: owner.ID,
		ListID:      list.ID,
		CreatedAt:   s.clock(),
	}
	if err := s.favorites.Insert(ctx, favorite); err != nil {
		if isConflict(err) {
			existing, lookupErr := s.favorites.FindByList(ctx, user.ID, list.ID)
			if lookupErr == nil {
				return newFavoriteResult(existing, list, owner), nil
			}
		}
		return FavoriteResult{}, err
	}

	s.recordAudit(ctx, user.ID, auditActionFavoriteCreate, favorite)

	return newFavoriteResult(favorite, list, owner), nil
}

func (s *userFavorites) UpdateFavoriteNotifications(ctx context.Context, spec UpdateFavoriteNotificationsSpecification) (FavoriteResult, error) {
	if !spec.Subject.Authenticated() {
		return FavoriteResult{}, ErrAuthenticationRequired
	}
	user := *spec.Subject.User

	favorite, err := s.favorites.FindByID(ctx, user.ID, spec.FavoriteID)
	if err != nil {
		return FavoriteResult{}, notFoundAs(err, ErrInvalidFavorite)
	}

	favorite.Notifications = normalizeChannels(spec.Channels)
	if err := s.favorites.Update(ctx, favorite); err != nil {
		return FavoriteResult{}, err
	}

	s.recordAudit(ctx, user.ID, auditActionFavoriteUpdate, favorite)

	owner, list, err := s.resolveFavoredList(ctx, favorite)
	if err != nil {
		return FavoriteResult{}, err
	}
	return newFavoriteResult(favorite, list, owner), nil
}

func (s *userFavorites) DeleteFavorite(ctx context.Context, spec DeleteFavoriteSpecification) error {
	if !spec.Subject.Authenticated() {
		return ErrAuthenticationRequired
	}
	user := *spec.Subject.User

	favorite, err := s.favorites.FindByID(ctx, user.ID, spec.FavoriteID)
	if err != nil {
		return notFoundAs(err, ErrInvalidFavorite)
	}
	if err := s.favorites.Delete(ctx, user.ID, favorite.ID); err != nil {
		return notFoundAs(err, ErrInvalidFavorite)
	}

	s.recordAudit(ctx, user.ID, auditActionFavoriteDelete, favorite)
	return nil
}

func (s *userFavorites) GetFavorites(ctx context.Context, spec GetFavoritesSpecification) ([]FavoriteResult, error) {
	if !spec.Subject.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	user := *spec.Subject.User

	favorites, err := s.favorites.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	results := make([]FavoriteResult, 0, len(favorites))
	for _, favorite := range favorites {
		owner, list, err := s.resolveFavoredList(ctx, favorite)
		if err != nil {
			// A favored list that vanished stays out of the listing.
			if errors.Is(err, ErrInvalidUser) || errors.Is(err, ErrInvalidList) {
				s.log(ctx, "favorite points at missing list", map[string]any{
					"favoriteId": favorite.ID.String(),
					"listId":     favorite.ListID.String(),
				})
				continue
			}
			return nil, err
		}
		results = append(results, newFavoriteResult(favorite, list, owner))
	}
	return results, nil
}

func (s *userFavorites) resolveFavoredList(ctx context.Context, favorite domain.Favorite) (domain.User, domain.List, error) {
	owner, err := s.users.FindByID(ctx, favorite.ListOwnerID)
	if err != nil {
		return domain.User{}, domain.List{}, notFoundAs(err, ErrInvalidUser)
	}
	list, err := s.lists.FindByID(ctx, owner.ID, favorite.ListID)
	if err != nil {
		return domain.User{}, domain.List{}, notFoundAs(err, ErrInvalidList)
	}
	return owner, list, nil
}

func (s *userFavorites) recordAudit(ctx context.Context, actorID domain.ID, action string, favorite domain.Favorite) {
	if s.audit == nil {
		return
	}
	targetRef := fmt.Sprintf("/users/%s/lists/%s", favorite.ListOwnerID, favorite.ListID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actorID.String(), action, targetRef, nil))
}

func normalizeChannels(channels []domain.NotificationChannel) []domain.NotificationChannel {
	if len(channels) == 0 {
		return nil
	}
	seen := map[domain.NotificationChannel]struct{}{}
	normalized := make([]domain.NotificationChannel, 0, len(channels))
	for _, channel := range channels {
		switch channel {
		case domain.ChannelEmail, domain.ChannelPush:
		default:
			continue
		}
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		normalized = append(normalized, channel)
	}
	return normalized
}
