package services

import (
	"context"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

type repoError struct {
	message  string
	notFound bool
	conflict bool
}

func (e repoError) Error() string {
	if e.message != "" {
		return e.message
	}
	if e.notFound {
		return "not found"
	}
	if e.conflict {
		return "conflict"
	}
	return "repository error"
}

func (e repoError) IsNotFound() bool    { return e.notFound }
func (e repoError) IsConflict() bool    { return e.conflict }
func (e repoError) IsUnavailable() bool { return false }

var (
	errStubNotFound = repoError{notFound: true}
	errStubConflict = repoError{conflict: true}
)

type stubUserRepository struct {
	InsertFn         func(ctx context.Context, user domain.User) error
	UpdateFn         func(ctx context.Context, user domain.User) error
	FindByIDFn       func(ctx context.Context, userID domain.ID) (domain.User, error)
	FindByIdentityFn func(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error)
	FindByNickNameFn func(ctx context.Context, nickName string) (domain.User, error)
	ClaimNickNameFn  func(ctx context.Context, nickName string, userID domain.ID) error
	ReleaseFn        func(ctx context.Context, nickName string, userID domain.ID) error
	CountFn          func(ctx context.Context) (int64, error)
}

func (s *stubUserRepository) Insert(ctx context.Context, user domain.User) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, user)
}

func (s *stubUserRepository) Update(ctx context.Context, user domain.User) error {
	if s.UpdateFn == nil {
		return nil
	}
	return s.UpdateFn(ctx, user)
}

func (s *stubUserRepository) FindByID(ctx context.Context, userID domain.ID) (domain.User, error) {
	if s.FindByIDFn == nil {
		return domain.User{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, userID)
}

func (s *stubUserRepository) FindByIdentity(ctx context.Context, identity domain.ExternalIdentity) (domain.User, error) {
	if s.FindByIdentityFn == nil {
		return domain.User{}, errStubNotFound
	}
	return s.FindByIdentityFn(ctx, identity)
}

func (s *stubUserRepository) FindByNickName(ctx context.Context, nickName string) (domain.User, error) {
	if s.FindByNickNameFn == nil {
		return domain.User{}, errStubNotFound
	}
	return s.FindByNickNameFn(ctx, nickName)
}

func (s *stubUserRepository) ClaimNickName(ctx context.Context, nickName string, userID domain.ID) error {
	if s.ClaimNickNameFn == nil {
		return nil
	}
	return s.ClaimNickNameFn(ctx, nickName, userID)
}

func (s *stubUserRepository) ReleaseNickName(ctx context.Context, nickName string, userID domain.ID) error {
	if s.ReleaseFn == nil {
		return nil
	}
	return s.ReleaseFn(ctx, nickName, userID)
}

func (s *stubUserRepository) Count(ctx context.Context) (int64, error) {
	if s.CountFn == nil {
		return 0, nil
	}
	return s.CountFn(ctx)
}

type stubListRepository struct {
	InsertFn          func(ctx context.Context, list domain.List) error
	UpdateFn          func(ctx context.Context, list domain.List) error
	DeleteFn          func(ctx context.Context, ownerID, listID domain.ID) error
	FindByIDFn        func(ctx context.Context, ownerID, listID domain.ID) (domain.List, error)
	ListByOwnerFn     func(ctx context.Context, ownerID domain.ID) ([]domain.List, error)
	CountByOwnerFn    func(ctx context.Context, ownerID domain.ID) (int, error)
	ExistsWithTitleFn func(ctx context.Context, ownerID domain.ID, title string, excludeID domain.ID) (bool, error)
}

func (s *stubListRepository) Insert(ctx context.Context, list domain.List) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, list)
}

func (s *stubListRepository) Update(ctx context.Context, list domain.List) error {
	if s.UpdateFn == nil {
		return nil
	}
	return s.UpdateFn(ctx, list)
}

func (s *stubListRepository) Delete(ctx context.Context, ownerID, listID domain.ID) error {
	if s.DeleteFn == nil {
		return nil
	}
	return s.DeleteFn(ctx, ownerID, listID)
}

func (s *stubListRepository) FindByID(ctx context.Context, ownerID, listID domain.ID) (domain.List, error) {
	if s.FindByIDFn == nil {
		return domain.List{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, ownerID, listID)
}

func (s *stubListRepository) ListByOwner(ctx context.Context, ownerID domain.ID) ([]domain.List, error) {
	if s.ListByOwnerFn == nil {
		return nil, nil
	}
	return s.ListByOwnerFn(ctx, ownerID)
}

func (s *stubListRepository) CountByOwner(ctx context.Context, ownerID domain.ID) (int, error) {
	if s.CountByOwnerFn == nil {
		return 0, nil
	}
	return s.CountByOwnerFn(ctx, ownerID)
}

func (s *stubListRepository) ExistsWithTitle(ctx context.Context, ownerID domain.ID, title string, excludeID domain.ID) (bool, error) {
	if s.ExistsWithTitleFn == nil {
		return false, nil
	}
	return s.ExistsWithTitleFn(ctx, ownerID, title, excludeID)
}

type stubItemRepository struct {
	InsertFn      func(ctx context.Context, ownerID domain.ID, item domain.Item) error
	UpdateFn      func(ctx context.Context, ownerID domain.ID, item domain.Item) error
	DeleteFn      func(ctx context.Context, ownerID, listID, itemID domain.ID) error
	FindByIDFn    func(ctx context.Context, ownerID, listID, itemID domain.ID) (domain.Item, error)
	ListByListFn  func(ctx context.Context, ownerID, listID domain.ID, query repositories.ItemListQuery) ([]domain.Item, error)
	CountByListFn func(ctx context.Context, ownerID, listID domain.ID) (int, error)
	MoveToListFn  func(ctx context.Context, ownerID domain.ID, item domain.Item, targetListID domain.ID) (domain.Item, error)
}

func (s *stubItemRepository) Insert(ctx context.Context, ownerID domain.ID, item domain.Item) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, ownerID, item)
}

func (s *stubItemRepository) Update(ctx context.Context, ownerID domain.ID, item domain.Item) error {
	if s.UpdateFn == nil {
		return nil
	}
	return s.UpdateFn(ctx, ownerID, item)
}

func (s *stubItemRepository) Delete(ctx context.Context, ownerID, listID, itemID domain.ID) error {
	if s.DeleteFn == nil {
		return nil
	}
	return s.DeleteFn(ctx, ownerID, listID, itemID)
}

func (s *stubItemRepository) FindByID(ctx context.Context, ownerID, listID, itemID domain.ID) (domain.Item, error) {
	if s.FindByIDFn == nil {
		return domain.Item{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, ownerID, listID, itemID)
}

func (s *stubItemRepository) ListByList(ctx context.Context, ownerID, listID domain.ID, query repositories.ItemListQuery) ([]domain.Item, error) {
	if s.ListByListFn == nil {
		return nil, nil
	}
	return s.ListByListFn(ctx, ownerID, listID, query)
}

func (s *stubItemRepository) CountByList(ctx context.Context, ownerID, listID domain.ID) (int, error) {
	if s.CountByListFn == nil {
		return 0, nil
	}
	return s.CountByListFn(ctx, ownerID, listID)
}

func (s *stubItemRepository) MoveToList(ctx context.Context, ownerID domain.ID, item domain.Item, targetListID domain.ID) (domain.Item, error) {
	if s.MoveToListFn == nil {
		item.ListID = targetListID
		return item, nil
	}
	return s.MoveToListFn(ctx, ownerID, item, targetListID)
}

type stubReservationRepository struct {
	InsertFn       func(ctx context.Context, reservation domain.Reservation) error
	DeleteFn       func(ctx context.Context, itemID domain.ID) error
	FindByIDFn     func(ctx context.Context, reservationID domain.ID) (domain.Reservation, error)
	FindByItemFn   func(ctx context.Context, itemID domain.ID) (domain.Reservation, error)
	ListByListFn   func(ctx context.Context, listID domain.ID) ([]domain.Reservation, error)
	ListByHolderFn func(ctx context.Context, holder domain.Identification) ([]domain.Reservation, error)
	TransferFn     func(ctx context.Context, from, to domain.Identification) (int, error)
}

func (s *stubReservationRepository) Insert(ctx context.Context, reservation domain.Reservation) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, reservation)
}

func (s *stubReservationRepository) Delete(ctx context.Context, itemID domain.ID) error {
	if s.DeleteFn == nil {
		return nil
	}
	return s.DeleteFn(ctx, itemID)
}

func (s *stubReservationRepository) FindByID(ctx context.Context, reservationID domain.ID) (domain.Reservation, error) {
	if s.FindByIDFn == nil {
		return domain.Reservation{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, reservationID)
}

func (s *stubReservationRepository) FindByItem(ctx context.Context, itemID domain.ID) (domain.Reservation, error) {
	if s.FindByItemFn == nil {
		return domain.Reservation{}, errStubNotFound
	}
	return s.FindByItemFn(ctx, itemID)
}

func (s *stubReservationRepository) ListByList(ctx context.Context, listID domain.ID) ([]domain.Reservation, error) {
	if s.ListByListFn == nil {
		return nil, nil
	}
	return s.ListByListFn(ctx, listID)
}

func (s *stubReservationRepository) ListByHolder(ctx context.Context, holder domain.Identification) ([]domain.Reservation, error) {
	if s.ListByHolderFn == nil {
		return nil, nil
	}
	return s.ListByHolderFn(ctx, holder)
}

func (s *stubReservationRepository) Transfer(ctx context.Context, from, to domain.Identification) (int, error) {
	if s.TransferFn == nil {
		return 0, nil
	}
	return s.TransferFn(ctx, from, to)
}

type stubFavoriteRepository struct {
	InsertFn          func(ctx context.Context, favorite domain.Favorite) error
	UpdateFn          func(ctx context.Context, favorite domain.Favorite) error
	DeleteFn          func(ctx context.Context, userID, favoriteID domain.ID) error
	FindByIDFn        func(ctx context.Context, userID, favoriteID domain.ID) (domain.Favorite, error)
	FindByListFn      func(ctx context.Context, userID, listID domain.ID) (domain.Favorite, error)
	ListByUserFn      func(ctx context.Context, userID domain.ID) ([]domain.Favorite, error)
	CountByUserFn     func(ctx context.Context, userID domain.ID) (int, error)
	ListSubscribersFn func(ctx context.Context, listID domain.ID) ([]domain.Favorite, error)
}

func (s *stubFavoriteRepository) Insert(ctx context.Context, favorite domain.Favorite) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, favorite)
}

func (s *stubFavoriteRepository) Update(ctx context.Context, favorite domain.Favorite) error {
	if s.UpdateFn == nil {
		return nil
	}
	return s.UpdateFn(ctx, favorite)
}

func (s *stubFavoriteRepository) Delete(ctx context.Context, userID, favoriteID domain.ID) error {
	if s.DeleteFn == nil {
		return nil
	}
	return s.DeleteFn(ctx, userID, favoriteID)
}

func (s *stubFavoriteRepository) FindByID(ctx context.Context, userID, favoriteID domain.ID) (domain.Favorite, error) {
	if s.FindByIDFn == nil {
		return domain.Favorite{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, userID, favoriteID)
}

func (s *stubFavoriteRepository) FindByList(ctx context.Context, userID, listID domain.ID) (domain.Favorite, error) {
	if s.FindByListFn == nil {
		return domain.Favorite{}, errStubNotFound
	}
	return s.FindByListFn(ctx, userID, listID)
}

func (s *stubFavoriteRepository) ListByUser(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	if s.ListByUserFn == nil {
		return nil, nil
	}
	return s.ListByUserFn(ctx, userID)
}

func (s *stubFavoriteRepository) CountByUser(ctx context.Context, userID domain.ID) (int, error) {
	if s.CountByUserFn == nil {
		return 0, nil
	}
	return s.CountByUserFn(ctx, userID)
}

func (s *stubFavoriteRepository) ListSubscribers(ctx context.Context, listID domain.ID) ([]domain.Favorite, error) {
	if s.ListSubscribersFn == nil {
		return nil, nil
	}
	return s.ListSubscribersFn(ctx, listID)
}

type stubInvitationRepository struct {
	InsertFn         func(ctx context.Context, invitation domain.Invitation) error
	UpdateFn         func(ctx context.Context, invitation domain.Invitation) error
	FindByIDFn       func(ctx context.Context, invitationID domain.ID) (domain.Invitation, error)
	FindByCodeFn     func(ctx context.Context, code string) (domain.Invitation, error)
	ListByInviterFn  func(ctx context.Context, inviterID domain.ID) ([]domain.Invitation, error)
	CountByInviterFn func(ctx context.Context, inviterID domain.ID) (int, error)
}

func (s *stubInvitationRepository) Insert(ctx context.Context, invitation domain.Invitation) error {
	if s.InsertFn == nil {
		return nil
	}
	return s.InsertFn(ctx, invitation)
}

func (s *stubInvitationRepository) Update(ctx context.Context, invitation domain.Invitation) error {
	if s.UpdateFn == nil {
		return nil
	}
	return s.UpdateFn(ctx, invitation)
}

func (s *stubInvitationRepository) FindByID(ctx context.Context, invitationID domain.ID) (domain.Invitation, error) {
	if s.FindByIDFn == nil {
		return domain.Invitation{}, errStubNotFound
	}
	return s.FindByIDFn(ctx, invitationID)
}

func (s *stubInvitationRepository) FindByCode(ctx context.Context, code string) (domain.Invitation, error) {
	if s.FindByCodeFn == nil {
		return domain.Invitation{}, errStubNotFound
	}
	return s.FindByCodeFn(ctx, code)
}

func (s *stubInvitationRepository) ListByInviter(ctx context.Context, inviterID domain.ID) ([]domain.Invitation, error) {
	if s.ListByInviterFn == nil {
		return nil, nil
	}
	return s.ListByInviterFn(ctx, inviterID)
}

func (s *stubInvitationRepository) CountByInviter(ctx context.Context, inviterID domain.ID) (int, error) {
	if s.CountByInviterFn == nil {
		return 0, nil
	}
	return s.CountByInviterFn(ctx, inviterID)
}

type stubAuditLogRepository struct {
	AppendFn       func(ctx context.Context, entry domain.AuditLogEntry) error
	ListByTargetFn func(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error)
}

func (s *stubAuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if s.AppendFn == nil {
		return nil
	}
	return s.AppendFn(ctx, entry)
}

func (s *stubAuditLogRepository) ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
	if s.ListByTargetFn == nil {
		return nil, nil
	}
	return s.ListByTargetFn(ctx, targetRef, limit)
}

type stubHealthRepository struct {
	CollectFn func(ctx context.Context) (domain.SystemHealthReport, error)
}

func (s *stubHealthRepository) Collect(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.CollectFn == nil {
		return domain.SystemHealthReport{}, nil
	}
	return s.CollectFn(ctx)
}

type captureNotifications struct {
	messages []NotificationMessage
	err      error
}

func (c *captureNotifications) PublishNotification(ctx context.Context, message NotificationMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, message)
	return "msg-1", nil
}

type captureEmails struct {
	messages []InvitationEmailMessage
	err      error
}

func (c *captureEmails) PublishInvitationEmail(ctx context.Context, message InvitationEmailMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, message)
	return "mail-1", nil
}

type stubImageStore struct {
	FetchFn      func(ctx context.Context, ownerID, listID, itemID domain.ID, sourceURL string) (string, error)
	DeleteFn     func(ctx context.Context, objectPath string) error
	DeleteListFn func(ctx context.Context, ownerID, listID domain.ID) error

	deleted     []string
	listDeletes []domain.ID
}

func (s *stubImageStore) FetchItemImage(ctx context.Context, ownerID, listID, itemID domain.ID, sourceURL string) (string, error) {
	if s.FetchFn == nil {
		return "", errStubNotFound
	}
	return s.FetchFn(ctx, ownerID, listID, itemID, sourceURL)
}

func (s *stubImageStore) DeleteItemImage(ctx context.Context, objectPath string) error {
	s.deleted = append(s.deleted, objectPath)
	if s.DeleteFn == nil {
		return nil
	}
	return s.DeleteFn(ctx, objectPath)
}

func (s *stubImageStore) DeleteListImages(ctx context.Context, ownerID, listID domain.ID) error {
	s.listDeletes = append(s.listDeletes, listID)
	if s.DeleteListFn == nil {
		return nil
	}
	return s.DeleteListFn(ctx, ownerID, listID)
}

type captureAudit struct {
	records []RecordAuditSpecification
}

func (c *captureAudit) Record(ctx context.Context, spec RecordAuditSpecification) {
	c.records = append(c.records, spec)
}

func (c *captureAudit) ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
	return nil, nil
}

func authenticatedSubject(user domain.User) Subject {
	return Subject{User: &user, Identification: user.Identification}
}

func anonymousSubject(identification domain.Identification) Subject {
	return Subject{Identification: identification}
}
