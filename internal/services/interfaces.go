package services

import (
	"context"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

// Logger is a minimal structured logging hook services use for diagnostic
// events; implementations typically forward to zap.
type Logger func(ctx context.Context, msg string, fields map[string]any)

func noopLogger(context.Context, string, map[string]any) {}

// Sanitizer normalises user supplied free text before it is persisted.
type Sanitizer func(string) string

// Quotas carries the per-user and per-list limits actors enforce before
// creating entities.
type Quotas struct {
	MaxListsPerUser       int
	MaxItemsPerList       int
	MaxFavoritesPerUser   int
	MaxInvitationsPerUser int
}

// DefaultQuotas returns the limits used when none are configured.
func DefaultQuotas() Quotas {
	return Quotas{
		MaxListsPerUser:       1000,
		MaxItemsPerList:       1000,
		MaxFavoritesPerUser:   100,
		MaxInvitationsPerUser: 10,
	}
}

// NotificationMessage is the payload handed to the notification provider
// for asynchronous fan-out.
type NotificationMessage struct {
	Event    string    `json:"event"`
	UserID   string    `json:"userId"`
	ListID   string    `json:"listId,omitempty"`
	ItemID   string    `json:"itemId,omitempty"`
	Title    string    `json:"title,omitempty"`
	Channels []string  `json:"channels"`
	QueuedAt time.Time `json:"queuedAt"`
}

// InvitationEmailMessage is the payload handed to the email provider to
// deliver an invitation code.
type InvitationEmailMessage struct {
	InvitationID string    `json:"invitationId"`
	Email        string    `json:"email"`
	Code         string    `json:"code"`
	InviterName  string    `json:"inviterName"`
	QueuedAt     time.Time `json:"queuedAt"`
}

// NotificationProvider enqueues notification messages for delivery.
// Publishing is a side effect: failures are logged, never returned to the
// caller of an action.
type NotificationProvider interface {
	PublishNotification(ctx context.Context, message NotificationMessage) (string, error)
}

// EmailProvider enqueues invitation emails for delivery.
type EmailProvider interface {
	PublishInvitationEmail(ctx context.Context, message InvitationEmailMessage) (string, error)
}

// ImageStoreProvider fetches item images into managed storage and removes
// them when items or lists go away.
type ImageStoreProvider interface {
	// FetchItemImage copies the image at sourceURL into storage and
	// returns the stored object path.
	FetchItemImage(ctx context.Context, ownerID, listID, itemID domain.ID, sourceURL string) (string, error)
	DeleteItemImage(ctx context.Context, objectPath string) error
	DeleteListImages(ctx context.Context, ownerID, listID domain.ID) error
}

// UserService authenticates subjects and manages their profiles.
type UserService interface {
	// Authenticate resolves or creates the user for an externally
	// verified identity and stamps login times. On first login, active
	// reservations held under the subject's guest identification are
	// transferred to the new account.
	Authenticate(ctx context.Context, spec AuthenticateUserSpecification) (AuthenticateResult, error)
	Profile(ctx context.Context, spec ProfileSpecification) (UserResult, error)
	UpdateProfile(ctx context.Context, spec UpdateProfileSpecification) (UserResult, error)
}

// AuthenticateUserSpecification describes a login attempt. The identity
// must already be verified by the authentication middleware.
type AuthenticateUserSpecification struct {
	Identity       domain.ExternalIdentity
	Email          string
	FullName       string
	FirstName      string
	Language       string
	Identification domain.Identification
}

// NewAuthenticateUserSpecification builds the login specification from
// verified token claims plus the visitor identification of the session.
func NewAuthenticateUserSpecification(identity domain.ExternalIdentity, email, fullName, firstName, language string, identification domain.Identification) AuthenticateUserSpecification {
	return AuthenticateUserSpecification{
		Identity:       identity,
		Email:          email,
		FullName:       fullName,
		FirstName:      firstName,
		Language:       language,
		Identification: identification,
	}
}

// ProfileSpecification identifies whose profile to read.
type ProfileSpecification struct {
	Subject Subject
}

// NewProfileSpecification builds a profile read specification.
func NewProfileSpecification(subject Subject) ProfileSpecification {
	return ProfileSpecification{Subject: subject}
}

// UpdateProfileSpecification carries a profile draft for the subject.
type UpdateProfileSpecification struct {
	Subject Subject
	Values  domain.UserValues
}

// NewUpdateProfileSpecification builds a profile update specification.
func NewUpdateProfileSpecification(subject Subject, values domain.UserValues) UpdateProfileSpecification {
	return UpdateProfileSpecification{Subject: subject, Values: values}
}

// UserLists manages the subject's own wishlists.
type UserLists interface {
	CreateList(ctx context.Context, spec CreateListSpecification) (ListResult, error)
	UpdateList(ctx context.Context, spec UpdateListSpecification) (ListResult, error)
	// DeleteList removes the list together with its items, their
	// reservations, and stored images.
	DeleteList(ctx context.Context, spec DeleteListSpecification) error
	GetList(ctx context.Context, spec GetListSpecification) (ListResult, error)
	GetLists(ctx context.Context, spec GetListsSpecification) ([]ListResult, error)
}

// CreateListSpecification carries a list draft for the subject.
type CreateListSpecification struct {
	Subject Subject
	Values  domain.ListValues
}

// NewCreateListSpecification builds a list creation specification.
func NewCreateListSpecification(subject Subject, values domain.ListValues) CreateListSpecification {
	return CreateListSpecification{Subject: subject, Values: values}
}

// UpdateListSpecification carries a list draft for an existing list.
type UpdateListSpecification struct {
	Subject Subject
	ListID  domain.ID
	Values  domain.ListValues
}

// NewUpdateListSpecification builds a list update specification.
func NewUpdateListSpecification(subject Subject, listID domain.ID, values domain.ListValues) UpdateListSpecification {
	return UpdateListSpecification{Subject: subject, ListID: listID, Values: values}
}

// DeleteListSpecification identifies a list to delete.
type DeleteListSpecification struct {
	Subject Subject
	ListID  domain.ID
}

// NewDeleteListSpecification builds a list deletion specification.
func NewDeleteListSpecification(subject Subject, listID domain.ID) DeleteListSpecification {
	return DeleteListSpecification{Subject: subject, ListID: listID}
}

// GetListSpecification identifies a list to read.
type GetListSpecification struct {
	Subject Subject
	ListID  domain.ID
}

// NewGetListSpecification builds a list read specification.
func NewGetListSpecification(subject Subject, listID domain.ID) GetListSpecification {
	return GetListSpecification{Subject: subject, ListID: listID}
}

// GetListsSpecification identifies whose lists to enumerate.
type GetListsSpecification struct {
	Subject Subject
}

// NewGetListsSpecification builds a list enumeration specification.
func NewGetListsSpecification(subject Subject) GetListsSpecification {
	return GetListsSpecification{Subject: subject}
}

// UserItems manages items within the subject's own lists.
type UserItems interface {
	CreateItem(ctx context.Context, spec CreateItemSpecification) (ItemResult, error)
	UpdateItem(ctx context.Context, spec UpdateItemSpecification) (ItemResult, error)
	// DeleteItem removes the item together with its reservation and
	// stored image.
	DeleteItem(ctx context.Context, spec DeleteItemSpecification) error
	// MoveItem re-homes the item to another list of the same owner.
	// Items with an active reservation cannot be moved.
	MoveItem(ctx context.Context, spec MoveItemSpecification) (ItemResult, error)
	GetItem(ctx context.Context, spec GetItemSpecification) (ItemResult, error)
	GetItems(ctx context.Context, spec GetItemsSpecification) ([]ItemResult, error)
}

// CreateItemSpecification carries an item draft for one of the subject's
// lists.
type CreateItemSpecification struct {
	Subject Subject
	ListID  domain.ID
	Values  domain.ItemValues
}

// NewCreateItemSpecification builds an item creation specification.
func NewCreateItemSpecification(subject Subject, listID domain.ID, values domain.ItemValues) CreateItemSpecification {
	return CreateItemSpecification{Subject: subject, ListID: listID, Values: values}
}

// UpdateItemSpecification carries an item draft for an existing item.
type UpdateItemSpecification struct {
	Subject Subject
	ListID  domain.ID
	ItemID  domain.ID
	Values  domain.ItemValues
	// Archived toggles archival when set.
	Archived *bool
}

// NewUpdateItemSpecification builds an item update specification.
func NewUpdateItemSpecification(subject Subject, listID, itemID domain.ID, values domain.ItemValues) UpdateItemSpecification {
	return UpdateItemSpecification{Subject: subject, ListID: listID, ItemID: itemID, Values: values}
}

// DeleteItemSpecification identifies an item to delete.
type DeleteItemSpecification struct {
	Subject Subject
	ListID  domain.ID
	ItemID  domain.ID
}

// NewDeleteItemSpecification builds an item deletion specification.
func NewDeleteItemSpecification(subject Subject, listID, itemID domain.ID) DeleteItemSpecification {
	return DeleteItemSpecification{Subject: subject, ListID: listID, ItemID: itemID}
}

// MoveItemSpecification identifies an item and the list to move it to.
type MoveItemSpecification struct {
	Subject      Subject
	ListID       domain.ID
	ItemID       domain.ID
	TargetListID domain.ID
}

// NewMoveItemSpecification builds an item move specification.
func NewMoveItemSpecification(subject Subject, listID, itemID, targetListID domain.ID) MoveItemSpecification {
	return MoveItemSpecification{Subject: subject, ListID: listID, ItemID: itemID, TargetListID: targetListID}
}

// GetItemSpecification identifies an item to read.
type GetItemSpecification struct {
	Subject Subject
	ListID  domain.ID
	ItemID  domain.ID
}

// NewGetItemSpecification builds an item read specification.
func NewGetItemSpecification(subject Subject, listID, itemID domain.ID) GetItemSpecification {
	return GetItemSpecification{Subject: subject, ListID: listID, ItemID: itemID}
}

// GetItemsSpecification identifies a list whose items to enumerate.
type GetItemsSpecification struct {
	Subject         Subject
	ListID          domain.ID
	IncludeArchived bool
}

// NewGetItemsSpecification builds an item enumeration specification.
func NewGetItemsSpecification(subject Subject, listID domain.ID) GetItemsSpecification {
	return GetItemsSpecification{Subject: subject, ListID: listID}
}

// Wishlist presents lists to viewers and manages reservations. The viewer
// may be anonymous; visibility rules decide access.
type Wishlist interface {
	PresentWishlist(ctx context.Context, spec PresentWishlistSpecification) (WishlistResult, error)
	AddReservation(ctx context.Context, spec AddReservationSpecification) (ReservationResult, error)
	RemoveReservation(ctx context.Context, spec RemoveReservationSpecification) error
}

// PresentWishlistSpecification identifies a list to view.
type PresentWishlistSpecification struct {
	Subject Subject
	OwnerID domain.ID
	ListID  domain.ID
}

// NewPresentWishlistSpecification builds a wishlist presentation
// specification.
func NewPresentWishlistSpecification(subject Subject, ownerID, listID domain.ID) PresentWishlistSpecification {
	return PresentWishlistSpecification{Subject: subject, OwnerID: ownerID, ListID: listID}
}

// AddReservationSpecification identifies an item the subject wants to
// reserve.
type AddReservationSpecification struct {
	Subject Subject
	OwnerID domain.ID
	ListID  domain.ID
	ItemID  domain.ID
}

// NewAddReservationSpecification builds a reservation creation
// specification.
func NewAddReservationSpecification(subject Subject, ownerID, listID, itemID domain.ID) AddReservationSpecification {
	return AddReservationSpecification{Subject: subject, OwnerID: ownerID, ListID: listID, ItemID: itemID}
}

// RemoveReservationSpecification identifies a reservation the subject
// wants to release.
type RemoveReservationSpecification struct {
	Subject       Subject
	ReservationID domain.ID
}

// NewRemoveReservationSpecification builds a reservation release
// specification.
func NewRemoveReservationSpecification(subject Subject, reservationID domain.ID) RemoveReservationSpecification {
	return RemoveReservationSpecification{Subject: subject, ReservationID: reservationID}
}

// UserFavorites manages the subject's bookmarked lists.
type UserFavorites interface {
	// CreateFavorite is idempotent: favoriting an already favored list
	// returns the existing favorite.
	CreateFavorite(ctx context.Context, spec CreateFavoriteSpecification) (FavoriteResult, error)
	UpdateFavoriteNotifications(ctx context.Context, spec UpdateFavoriteNotificationsSpecification) (FavoriteResult, error)
	DeleteFavorite(ctx context.Context, spec DeleteFavoriteSpecification) error
	GetFavorites(ctx context.Context, spec GetFavoritesSpecification) ([]FavoriteResult, error)
}

// CreateFavoriteSpecification identifies a list the subject wants to
// bookmark.
type CreateFavoriteSpecification struct {
	Subject Subject
	OwnerID domain.ID
	ListID  domain.ID
}

// NewCreateFavoriteSpecification builds a favorite creation specification.
func NewCreateFavoriteSpecification(subject Subject, ownerID, listID domain.ID) CreateFavoriteSpecification {
	return CreateFavoriteSpecification{Subject: subject, OwnerID: ownerID, ListID: listID}
}

// UpdateFavoriteNotificationsSpecification carries the channel set for an
// existing favorite.
type UpdateFavoriteNotificationsSpecification struct {
	Subject    Subject
	FavoriteID domain.ID
	Channels   []domain.NotificationChannel
}

// NewUpdateFavoriteNotificationsSpecification builds a favorite
// notification update specification.
func NewUpdateFavoriteNotificationsSpecification(subject Subject, favoriteID domain.ID, channels []domain.NotificationChannel) UpdateFavoriteNotificationsSpecification {
	return UpdateFavoriteNotificationsSpecification{Subject: subject, FavoriteID: favoriteID, Channels: channels}
}

// DeleteFavoriteSpecification identifies a favorite to remove.
type DeleteFavoriteSpecification struct {
	Subject    Subject
	FavoriteID domain.ID
}

// NewDeleteFavoriteSpecification builds a favorite deletion specification.
func NewDeleteFavoriteSpecification(subject Subject, favoriteID domain.ID) DeleteFavoriteSpecification {
	return DeleteFavoriteSpecification{Subject: subject, FavoriteID: favoriteID}
}

// GetFavoritesSpecification identifies whose favorites to enumerate.
type GetFavoritesSpecification struct {
	Subject Subject
}

// NewGetFavoritesSpecification builds a favorite enumeration
// specification.
func NewGetFavoritesSpecification(subject Subject) GetFavoritesSpecification {
	return GetFavoritesSpecification{Subject: subject}
}

// UserInvitations manages invitations issued by confidant users.
type UserInvitations interface {
	CreateInvitation(ctx context.Context, spec CreateInvitationSpecification) (InvitationResult, error)
	// SendInvitation enqueues the invitation email and stamps the send
	// time. A delivery provider failure leaves the invitation open and
	// unstamped; it does not fail the action.
	SendInvitation(ctx context.Context, spec SendInvitationSpecification) (InvitationResult, error)
	RevokeInvitation(ctx context.Context, spec RevokeInvitationSpecification) (InvitationResult, error)
	GetInvitations(ctx context.Context, spec GetInvitationsSpecification) ([]InvitationResult, error)
	// AcceptInvitation consumes an open invitation on behalf of the
	// authenticated subject.
	AcceptInvitation(ctx context.Context, spec AcceptInvitationSpecification) (InvitationResult, error)
	DeclineInvitation(ctx context.Context, spec DeclineInvitationSpecification) (InvitationResult, error)
}

// CreateInvitationSpecification carries an invitation draft for the
// subject.
type CreateInvitationSpecification struct {
	Subject Subject
	Values  domain.InvitationValues
}

// NewCreateInvitationSpecification builds an invitation creation
// specification.
func NewCreateInvitationSpecification(subject Subject, values domain.InvitationValues) CreateInvitationSpecification {
	return CreateInvitationSpecification{Subject: subject, Values: values}
}

// SendInvitationSpecification identifies an invitation to send.
type SendInvitationSpecification struct {
	Subject      Subject
	InvitationID domain.ID
}

// NewSendInvitationSpecification builds an invitation send specification.
func NewSendInvitationSpecification(subject Subject, invitationID domain.ID) SendInvitationSpecification {
	return SendInvitationSpecification{Subject: subject, InvitationID: invitationID}
}

// RevokeInvitationSpecification identifies an invitation to revoke.
type RevokeInvitationSpecification struct {
	Subject      Subject
	InvitationID domain.ID
}

// NewRevokeInvitationSpecification builds an invitation revoke
// specification.
func NewRevokeInvitationSpecification(subject Subject, invitationID domain.ID) RevokeInvitationSpecification {
	return RevokeInvitationSpecification{Subject: subject, InvitationID: invitationID}
}

// GetInvitationsSpecification identifies whose invitations to enumerate.
type GetInvitationsSpecification struct {
	Subject Subject
}

// NewGetInvitationsSpecification builds an invitation enumeration
// specification.
func NewGetInvitationsSpecification(subject Subject) GetInvitationsSpecification {
	return GetInvitationsSpecification{Subject: subject}
}

// AcceptInvitationSpecification identifies an invitation code the subject
// redeems.
type AcceptInvitationSpecification struct {
	Subject Subject
	Code    string
}

// NewAcceptInvitationSpecification builds an invitation accept
// specification.
func NewAcceptInvitationSpecification(subject Subject, code string) AcceptInvitationSpecification {
	return AcceptInvitationSpecification{Subject: subject, Code: code}
}

// DeclineInvitationSpecification identifies an invitation code the subject
// declines.
type DeclineInvitationSpecification struct {
	Subject Subject
	Code    string
}

// NewDeclineInvitationSpecification builds an invitation decline
// specification.
func NewDeclineInvitationSpecification(subject Subject, code string) DeclineInvitationSpecification {
	return DeclineInvitationSpecification{Subject: subject, Code: code}
}

// AuditLogService records state-changing actions. Recording is
// best-effort: failures are logged, never surfaced to the triggering
// action.
type AuditLogService interface {
	Record(ctx context.Context, spec RecordAuditSpecification)
	ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error)
}

// RecordAuditSpecification describes one audit trail entry.
type RecordAuditSpecification struct {
	Actor     string
	Action    string
	TargetRef string
	Metadata  map[string]string
}

// NewRecordAuditSpecification builds an audit record specification.
func NewRecordAuditSpecification(actor, action, targetRef string, metadata map[string]string) RecordAuditSpecification {
	return RecordAuditSpecification{Actor: actor, Action: action, TargetRef: targetRef, Metadata: metadata}
}

// SystemService exposes operational surfaces: health probes and internal
// statistics.
type SystemService interface {
	HealthReport(ctx context.Context) (domain.SystemHealthReport, error)
	UserCount(ctx context.Context) (int64, error)
}
