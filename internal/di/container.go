package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edmw/wishlist-sub001/internal/platform/config"
	"github.com/edmw/wishlist-sub001/internal/repositories"
	"github.com/edmw/wishlist-sub001/internal/services"
)

// Providers carries the side-effect infrastructure the services publish
// through. Every field is optional: a nil provider simply disables the
// corresponding side effect.
type Providers struct {
	Notifications services.NotificationProvider
	Email         services.EmailProvider
	ImageStore    services.ImageStoreProvider
	Sanitize      services.Sanitizer
	Log           services.Logger
	Clock         func() time.Time
}

// Services bundles the service-layer contracts that handlers rely upon.
// Concrete implementations are assembled in NewContainer.
type Services struct {
	Users       services.UserService
	Lists       services.UserLists
	Items       services.UserItems
	Wishlists   services.Wishlist
	Favorites   services.UserFavorites
	Invitations services.UserInvitations
	System      services.SystemService
	Audit       services.AuditLogService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring
// provides a Firestore backed registry, tests can supply in-memory stubs.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, providers Providers) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(reg, cfg, providers)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func quotasFromConfig(cfg config.Config) services.Quotas {
	quotas := services.DefaultQuotas()
	if cfg.Limits.MaxListsPerUser > 0 {
		quotas.MaxListsPerUser = cfg.Limits.MaxListsPerUser
	}
	if cfg.Limits.MaxItemsPerList > 0 {
		quotas.MaxItemsPerList = cfg.Limits.MaxItemsPerList
	}
	if cfg.Limits.MaxFavoritesPerUser > 0 {
		quotas.MaxFavoritesPerUser = cfg.Limits.MaxFavoritesPerUser
	}
	if cfg.Limits.MaxInvitationsPerUser > 0 {
		quotas.MaxInvitationsPerUser = cfg.Limits.MaxInvitationsPerUser
	}
	return quotas
}

func buildServices(reg repositories.Registry, cfg config.Config, providers Providers) (Services, error) {
	var svc Services

	clock := providers.Clock
	if clock == nil {
		clock = time.Now
	}
	quotas := quotasFromConfig(cfg)

	audit, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: reg.AuditLogs(),
		Clock:      clock,
		Log:        providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build audit log service: %w", err)
	}
	svc.Audit = audit

	users, err := services.NewUserService(services.UserServiceDeps{
		Users:        reg.Users(),
		Reservations: reg.Reservations(),
		Audit:        audit,
		Clock:        clock,
		Log:          providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = users

	lists, err := services.NewUserLists(services.UserListsDeps{
		Lists:        reg.Lists(),
		Items:        reg.Items(),
		Reservations: reg.Reservations(),
		UnitOfWork:   reg,
		ImageStore:   providers.ImageStore,
		Audit:        audit,
		Quotas:       quotas,
		Sanitize:     providers.Sanitize,
		Clock:        clock,
		Log:          providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build list service: %w", err)
	}
	svc.Lists = lists

	items, err := services.NewUserItems(services.UserItemsDeps{
		Lists:         reg.Lists(),
		Items:         reg.Items(),
		Reservations:  reg.Reservations(),
		Favorites:     reg.Favorites(),
		ImageStore:    providers.ImageStore,
		Notifications: providers.Notifications,
		Audit:         audit,
		Quotas:        quotas,
		Sanitize:      providers.Sanitize,
		Clock:         clock,
		Log:           providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build item service: %w", err)
	}
	svc.Items = items

	wishlists, err := services.NewWishlist(services.WishlistDeps{
		Users:         reg.Users(),
		Lists:         reg.Lists(),
		Items:         reg.Items(),
		Reservations:  reg.Reservations(),
		Notifications: providers.Notifications,
		Audit:         audit,
		Clock:         clock,
		Log:           providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build wishlist service: %w", err)
	}
	svc.Wishlists = wishlists

	favorites, err := services.NewUserFavorites(services.UserFavoritesDeps{
		Users:     reg.Users(),
		Lists:     reg.Lists(),
		Favorites: reg.Favorites(),
		Audit:     audit,
		Quotas:    quotas,
		Clock:     clock,
		Log:       providers.Log,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build favorite service: %w", err)
	}
	svc.Favorites = favorites

	if cfg.Features.EnableInvitations {
		invitations, err := services.NewUserInvitations(services.UserInvitationsDeps{
			Users:       reg.Users(),
			Invitations: reg.Invitations(),
			Email:       providers.Email,
			Audit:       audit,
			Quotas:      quotas,
			Clock:       clock,
			Log:         providers.Log,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build invitation service: %w", err)
		}
		svc.Invitations = invitations
	}

	if reg.Health() != nil {
		system, err := services.NewSystemService(services.SystemServiceDeps{
			Health: reg.Health(),
			Users:  reg.Users(),
			Clock:  clock,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = system
	}

	return svc, nil
}
