package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/services"
)

type stubRepoError struct {
	notFound    bool
	unavailable bool
}

func (e stubRepoError) Error() string {
	return fmt.Sprintf("stub repository error (notFound=%t unavailable=%t)", e.notFound, e.unavailable)
}

func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return false }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

var (
	errStubNotFound    = stubRepoError{notFound: true}
	errStubUnavailable = stubRepoError{unavailable: true}
)

type stubUserRepository struct {
	findByIdentityFunc func(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error)
}

func (s *stubUserRepository) Insert(context.Context, domain.User) error { return errors.New("unused") }
func (s *stubUserRepository) Update(context.Context, domain.User) error { return errors.New("unused") }
func (s *stubUserRepository) FindByID(context.Context, domain.ID) (domain.User, error) {
	return domain.User{}, errStubNotFound
}

func (s *stubUserRepository) FindByIdentity(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error) {
	if s.findByIdentityFunc != nil {
		return s.findByIdentityFunc(ctx, identity)
	}
	return domain.User{}, errStubNotFound
}

func (s *stubUserRepository) FindByNickName(context.Context, string) (domain.User, error) {
	return domain.User{}, errStubNotFound
}
func (s *stubUserRepository) ClaimNickName(context.Context, string, domain.ID) error   { return nil }
func (s *stubUserRepository) ReleaseNickName(context.Context, string, domain.ID) error { return nil }
func (s *stubUserRepository) Count(context.Context) (int64, error)                     { return 0, nil }

// resolverForUser returns a resolver that hydrates the given user for any
// verified identity.
func resolverForUser(user domain.User) *SubjectResolver {
	return NewSubjectResolver(&stubUserRepository{
		findByIdentityFunc: func(context.Context, domain.ExternalIdentity) (domain.User, error) {
			return user, nil
		},
	})
}

// anonymousResolver returns a resolver that never finds an account.
func anonymousResolver() *SubjectResolver {
	return NewSubjectResolver(&stubUserRepository{})
}

func testUser(id, nick string) domain.User {
	return domain.User{
		ID:             domain.ParseID(id),
		Identification: domain.ParseIdentification("ident-" + id),
		Email:          nick + "@example.com",
		FullName:       "Test " + nick,
		NickName:       nick,
		CreatedAt:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func identityContext(ctx context.Context, uid string) context.Context {
	return auth.WithIdentity(ctx, &auth.Identity{UID: uid})
}

type stubWishlistService struct {
	presentFunc func(ctx context.Context, spec services.PresentWishlistSpecification) (services.WishlistResult, error)
	addFunc     func(ctx context.Context, spec services.AddReservationSpecification) (services.ReservationResult, error)
	removeFunc  func(ctx context.Context, spec services.RemoveReservationSpecification) error
}

func (s *stubWishlistService) PresentWishlist(ctx context.Context, spec services.PresentWishlistSpecification) (services.WishlistResult, error) {
	if s.presentFunc != nil {
		return s.presentFunc(ctx, spec)
	}
	return services.WishlistResult{}, errors.New("unexpected call to PresentWishlist")
}

func (s *stubWishlistService) AddReservation(ctx context.Context, spec services.AddReservationSpecification) (services.ReservationResult, error) {
	if s.addFunc != nil {
		return s.addFunc(ctx, spec)
	}
	return services.ReservationResult{}, errors.New("unexpected call to AddReservation")
}

func (s *stubWishlistService) RemoveReservation(ctx context.Context, spec services.RemoveReservationSpecification) error {
	if s.removeFunc != nil {
		return s.removeFunc(ctx, spec)
	}
	return errors.New("unexpected call to RemoveReservation")
}

type stubUserService struct {
	authenticateFunc  func(ctx context.Context, spec services.AuthenticateUserSpecification) (services.AuthenticateResult, error)
	profileFunc       func(ctx context.Context, spec services.ProfileSpecification) (services.UserResult, error)
	updateProfileFunc func(ctx context.Context, spec services.UpdateProfileSpecification) (services.UserResult, error)
}

func (s *stubUserService) Authenticate(ctx context.Context, spec services.AuthenticateUserSpecification) (services.AuthenticateResult, error) {
	if s.authenticateFunc != nil {
		return s.authenticateFunc(ctx, spec)
	}
	return services.AuthenticateResult{}, errors.New("unexpected call to Authenticate")
}

func (s *stubUserService) Profile(ctx context.Context, spec services.ProfileSpecification) (services.UserResult, error) {
	if s.profileFunc != nil {
		return s.profileFunc(ctx, spec)
	}
	return services.UserResult{}, errors.New("unexpected call to Profile")
}

func (s *stubUserService) UpdateProfile(ctx context.Context, spec services.UpdateProfileSpecification) (services.UserResult, error) {
	if s.updateProfileFunc != nil {
		return s.updateProfileFunc(ctx, spec)
	}
	return services.UserResult{}, errors.New("unexpected call to UpdateProfile")
}

type stubUserLists struct {
	createFunc func(ctx context.Context, spec services.CreateListSpecification) (services.ListResult, error)
	updateFunc func(ctx context.Context, spec services.UpdateListSpecification) (services.ListResult, error)
	deleteFunc func(ctx context.Context, spec services.DeleteListSpecification) error
	getFunc    func(ctx context.Context, spec services.GetListSpecification) (services.ListResult, error)
	listFunc   func(ctx context.Context, spec services.GetListsSpecification) ([]services.ListResult, error)
}

func (s *stubUserLists) CreateList(ctx context.Context, spec services.CreateListSpecification) (services.ListResult, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, spec)
	}
	return services.ListResult{}, errors.New("unexpected call to CreateList")
}

func (s *stubUserLists) UpdateList(ctx context.Context, spec services.UpdateListSpecification) (services.ListResult, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, spec)
	}
	return services.ListResult{}, errors.New("unexpected call to UpdateList")
}

func (s *stubUserLists) DeleteList(ctx context.Context, spec services.DeleteListSpecification) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, spec)
	}
	return errors.New("unexpected call to DeleteList")
}

func (s *stubUserLists) GetList(ctx context.Context, spec services.GetListSpecification) (services.ListResult, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, spec)
	}
	return services.ListResult{}, errors.New("unexpected call to GetList")
}

func (s *stubUserLists) GetLists(ctx context.Context, spec services.GetListsSpecification) ([]services.ListResult, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, spec)
	}
	return nil, errors.New("unexpected call to GetLists")
}

type stubUserItems struct {
	createFunc func(ctx context.Context, spec services.CreateItemSpecification) (services.ItemResult, error)
	updateFunc func(ctx context.Context, spec services.UpdateItemSpecification) (services.ItemResult, error)
	deleteFunc func(ctx context.Context, spec services.DeleteItemSpecification) error
	moveFunc   func(ctx context.Context, spec services.MoveItemSpecification) (services.ItemResult, error)
	getFunc    func(ctx context.Context, spec services.GetItemSpecification) (services.ItemResult, error)
	listFunc   func(ctx context.Context, spec services.GetItemsSpecification) ([]services.ItemResult, error)
}

func (s *stubUserItems) CreateItem(ctx context.Context, spec services.CreateItemSpecification) (services.ItemResult, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, spec)
	}
	return services.ItemResult{}, errors.New("unexpected call to CreateItem")
}

func (s *stubUserItems) UpdateItem(ctx context.Context, spec services.UpdateItemSpecification) (services.ItemResult, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, spec)
	}
	return services.ItemResult{}, errors.New("unexpected call to UpdateItem")
}

func (s *stubUserItems) DeleteItem(ctx context.Context, spec services.DeleteItemSpecification) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, spec)
	}
	return errors.New("unexpected call to DeleteItem")
}

func (s *stubUserItems) MoveItem(ctx context.Context, spec services.MoveItemSpecification) (services.ItemResult, error) {
	if s.moveFunc != nil {
		return s.moveFunc(ctx, spec)
	}
	return services.ItemResult{}, errors.New("unexpected call to MoveItem")
}

func (s *stubUserItems) GetItem(ctx context.Context, spec services.GetItemSpecification) (services.ItemResult, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, spec)
	}
	return services.ItemResult{}, errors.New("unexpected call to GetItem")
}

func (s *stubUserItems) GetItems(ctx context.Context, spec services.GetItemsSpecification) ([]services.ItemResult, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, spec)
	}
	return nil, errors.New("unexpected call to GetItems")
}

type stubUserFavorites struct {
	createFunc func(ctx context.Context, spec services.CreateFavoriteSpecification) (services.FavoriteResult, error)
	updateFunc func(ctx context.Context, spec services.UpdateFavoriteNotificationsSpecification) (services.FavoriteResult, error)
	deleteFunc func(ctx context.Context, spec services.DeleteFavoriteSpecification) error
	listFunc   func(ctx context.Context, spec services.GetFavoritesSpecification) ([]services.FavoriteResult, error)
}

func (s *stubUserFavorites) CreateFavorite(ctx context.Context, spec services.CreateFavoriteSpecification) (services.FavoriteResult, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, spec)
	}
	return services.FavoriteResult{}, errors.New("unexpected call to CreateFavorite")
}

func (s *stubUserFavorites) UpdateFavoriteNotifications(ctx context.Context, spec services.UpdateFavoriteNotificationsSpecification) (services.FavoriteResult, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, spec)
	}
	return services.FavoriteResult{}, errors.New("unexpected call to UpdateFavoriteNotifications")
}

func (s *stubUserFavorites) DeleteFavorite(ctx context.Context, spec services.DeleteFavoriteSpecification) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, spec)
	}
	return errors.New("unexpected call to DeleteFavorite")
}

func (s *stubUserFavorites) GetFavorites(ctx context.Context, spec services.GetFavoritesSpecification) ([]services.FavoriteResult, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, spec)
	}
	return nil, errors.New("unexpected call to GetFavorites")
}

type stubUserInvitations struct {
	createFunc  func(ctx context.Context, spec services.CreateInvitationSpecification) (services.InvitationResult, error)
	sendFunc    func(ctx context.Context, spec services.SendInvitationSpecification) (services.InvitationResult, error)
	revokeFunc  func(ctx context.Context, spec services.RevokeInvitationSpecification) (services.InvitationResult, error)
	listFunc    func(ctx context.Context, spec services.GetInvitationsSpecification) ([]services.InvitationResult, error)
	acceptFunc  func(ctx context.Context, spec services.AcceptInvitationSpecification) (services.InvitationResult, error)
	declineFunc func(ctx context.Context, spec services.DeclineInvitationSpecification) (services.InvitationResult, error)
}

func (s *stubUserInvitations) CreateInvitation(ctx context.Context, spec services.CreateInvitationSpecification) (services.InvitationResult, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, spec)
	}
	return services.InvitationResult{}, errors.New("unexpected call to CreateInvitation")
}

func (s *stubUserInvitations) SendInvitation(ctx context.Context, spec services.SendInvitationSpecification) (services.InvitationResult, error) {
	if s.sendFunc != nil {
		return s.sendFunc(ctx, spec)
	}
	return services.InvitationResult{}, errors.New("unexpected call to SendInvitation")
}

func (s *stubUserInvitations) RevokeInvitation(ctx context.Context, spec services.RevokeInvitationSpecification) (services.InvitationResult, error) {
	if s.revokeFunc != nil {
		return s.revokeFunc(ctx, spec)
	}
	return services.InvitationResult{}, errors.New("unexpected call to RevokeInvitation")
}

func (s *stubUserInvitations) GetInvitations(ctx context.Context, spec services.GetInvitationsSpecification) ([]services.InvitationResult, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, spec)
	}
	return nil, errors.New("unexpected call to GetInvitations")
}

func (s *stubUserInvitations) AcceptInvitation(ctx context.Context, spec services.AcceptInvitationSpecification) (services.InvitationResult, error) {
	if s.acceptFunc != nil {
		return s.acceptFunc(ctx, spec)
	}
	return services.InvitationResult{}, errors.New("unexpected call to AcceptInvitation")
}

func (s *stubUserInvitations) DeclineInvitation(ctx context.Context, spec services.DeclineInvitationSpecification) (services.InvitationResult, error) {
	if s.declineFunc != nil {
		return s.declineFunc(ctx, spec)
	}
	return services.InvitationResult{}, errors.New("unexpected call to DeclineInvitation")
}

type stubSystemService struct {
	reportFunc func(ctx context.Context) (domain.SystemHealthReport, error)
	countFunc  func(ctx context.Context) (int64, error)
}

func (s *stubSystemService) HealthReport(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.reportFunc != nil {
		return s.reportFunc(ctx)
	}
	return domain.SystemHealthReport{}, errors.New("unexpected call to HealthReport")
}

func (s *stubSystemService) UserCount(ctx context.Context) (int64, error) {
	if s.countFunc != nil {
		return s.countFunc(ctx)
	}
	return 0, errors.New("unexpected call to UserCount")
}

type stubAuditLogService struct {
	recordFunc func(ctx context.Context, spec services.RecordAuditSpecification)
	listFunc   func(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error)
}

func (s *stubAuditLogService) Record(ctx context.Context, spec services.RecordAuditSpecification) {
	if s.recordFunc != nil {
		s.recordFunc(ctx, spec)
	}
}

func (s *stubAuditLogService) ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, targetRef, limit)
	}
	return nil, errors.New("unexpected call to ListByTarget")
}
