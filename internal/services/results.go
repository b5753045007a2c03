package services

import (
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

// Results are the only shapes actors hand back to the presentation
// layer; entities never escape the service boundary.

// UserResult projects a user profile.
type UserResult struct {
	ID          domain.ID
	Email       string
	FullName    string
	FirstName   string
	NickName    string
	DisplayName string
	Language    string
	Settings    domain.UserSettings
	Confidant   bool
	FirstLogin  *time.Time
	LastLogin   *time.Time
	CreatedAt   time.Time
}

func newUserResult(user domain.User) UserResult {
	return UserResult{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		FirstName:   user.FirstName,
		NickName:    user.NickName,
		DisplayName: user.DisplayName(),
		Language:    user.Language,
		Settings:    user.Settings,
		Confidant:   user.Confidant,
		FirstLogin:  user.FirstLogin,
		LastLogin:   user.LastLogin,
		CreatedAt:   user.CreatedAt,
	}
}

// AuthenticateResult reports the outcome of a login, including whether the
// account was created by this login and how many guest reservations were
// transferred to it.
type AuthenticateResult struct {
	User                    UserResult
	Created                 bool
	TransferredReservations int
}

// ListResult projects a wishlist for its owner's management surface.
type ListResult struct {
	ID         domain.ID
	Title      string
	Visibility domain.Visibility
	Options    domain.ListOptions
	ItemSort   domain.ItemSort
	ItemCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func newListResult(list domain.List, itemCount int) ListResult {
	return ListResult{
		ID:         list.ID,
		Title:      list.Title,
		Visibility: list.Visibility,
		Options:    list.Options,
		ItemSort:   list.ItemSort,
		ItemCount:  itemCount,
		CreatedAt:  list.CreatedAt,
		UpdatedAt:  list.UpdatedAt,
	}
}

// ReservationResult projects a reservation. Holder identification is never
// exposed; IsHolder tells the caller whether the reservation is theirs.
type ReservationResult struct {
	ID        domain.ID
	ItemID    domain.ID
	ListID    domain.ID
	IsHolder  bool
	CreatedAt time.Time
}

func newReservationResult(reservation domain.Reservation, holder domain.Identification) ReservationResult {
	return ReservationResult{
		ID:        reservation.ID,
		ItemID:    reservation.ItemID,
		ListID:    reservation.ListID,
		IsHolder:  reservation.HeldBy(holder),
		CreatedAt: reservation.CreatedAt,
	}
}

// ItemResult projects an item. Reservation is nil when the item is free or
// when reservation state is masked for the viewer.
type ItemResult struct {
	ID            domain.ID
	ListID        domain.ID
	Title         string
	Text          string
	Preference    domain.ItemPreference
	URL           string
	ImageURL      string
	LocalImageURL string
	Archived      bool
	Reservation   *ReservationResult
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func newItemResult(item domain.Item) ItemResult {
	return ItemResult{
		ID:            item.ID,
		ListID:        item.ListID,
		Title:         item.Title,
		Text:          item.Text,
		Preference:    item.Preference,
		URL:           item.URL,
		ImageURL:      item.ImageURL,
		LocalImageURL: item.LocalImageURL,
		Archived:      item.Archived,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// WishlistResult is the presentation of a list to a viewer: list header,
// owner display name, and the items with their reservation state as the
// viewer is allowed to see it.
type WishlistResult struct {
	ID        domain.ID
	Title     string
	ItemSort  domain.ItemSort
	OwnerID   domain.ID
	OwnerName string
	// Masked reports that reservation state was withheld because the
	// viewer is the owner and the list masks reservations.
	Masked bool
	Items  []ItemResult
}

// FavoriteResult projects a favorite together with the favored list's
// header data.
type FavoriteResult struct {
	ID            domain.ID
	ListID        domain.ID
	ListOwnerID   domain.ID
	ListTitle     string
	ListOwnerName string
	Notifications []domain.NotificationChannel
	CreatedAt     time.Time
}

func newFavoriteResult(favorite domain.Favorite, list domain.List, owner domain.User) FavoriteResult {
	return FavoriteResult{
		ID:            favorite.ID,
		ListID:        favorite.ListID,
		ListOwnerID:   favorite.ListOwnerID,
		ListTitle:     list.Title,
		ListOwnerName: owner.DisplayName(),
		Notifications: append([]domain.NotificationChannel(nil), favorite.Notifications...),
		CreatedAt:     favorite.CreatedAt,
	}
}

// InvitationResult projects an invitation for its inviter.
type InvitationResult struct {
	ID        domain.ID
	Code      string
	Status    domain.InvitationStatus
	Email     string
	SentAt    *time.Time
	CreatedAt time.Time
}

func newInvitationResult(invitation domain.Invitation) InvitationResult {
	return InvitationResult{
		ID:        invitation.ID,
		Code:      invitation.Code,
		Status:    invitation.Status,
		Email:     invitation.Email,
		SentAt:    invitation.SentAt,
		CreatedAt: invitation.CreatedAt,
	}
}
