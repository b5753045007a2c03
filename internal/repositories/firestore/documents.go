package firestore

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

// Document shapes for the Firestore collections. Entities nest underneath
// their owner:
//
//	users/{userID}
//	users/{userID}/lists/{listID}
//	users/{userID}/lists/{listID}/items/{itemID}
//	users/{userID}/favorites/{listID}
//	reservations/{itemID}
//	invitations/{invitationID}
//	nicknames/{nickName}
//	invitationCodes/{code}
//	auditLogs/{entryID}
//
// Reservations are keyed by the reserved item so document existence is the
// uniqueness constraint for one active reservation per item. Favorites are
// keyed by the favored list for the same reason.

type userDocument struct {
	Identification       string     `firestore:"identification"`
	Email                string     `firestore:"email"`
	FullName             string     `firestore:"fullName"`
	FirstName            string     `firestore:"firstName"`
	NickName             string     `firestore:"nickName"`
	Language             string     `firestore:"language"`
	NotificationsEnabled bool       `firestore:"notificationsEnabled"`
	Channels             []string   `firestore:"channels"`
	Confidant            bool       `firestore:"confidant"`
	IdentityKey          string     `firestore:"identityKey"`
	IdentityProvider     string     `firestore:"identityProvider"`
	IdentitySubject      string     `firestore:"identitySubject"`
	FirstLogin           *time.Time `firestore:"firstLogin"`
	LastLogin            *time.Time `firestore:"lastLogin"`
	CreatedAt            time.Time  `firestore:"createdAt"`
	UpdatedAt            time.Time  `firestore:"updatedAt"`
}

func identityKey(identity domain.ExternalIdentity) string {
	return fmt.Sprintf("%s|%s", strings.TrimSpace(identity.Provider), strings.TrimSpace(identity.Subject))
}

func encodeUser(user domain.User) userDocument {
	channels := make([]string, 0, len(user.Settings.Channels))
	for _, channel := range user.Settings.Channels {
		channels = append(channels, string(channel))
	}
	return userDocument{
		Identification:       user.Identification.String(),
		Email:                user.Email,
		FullName:             user.FullName,
		FirstName:            user.FirstName,
		NickName:             user.NickName,
		Language:             user.Language,
		NotificationsEnabled: user.Settings.NotificationsEnabled,
		Channels:             channels,
		Confidant:            user.Confidant,
		IdentityKey:          identityKey(user.Identity),
		IdentityProvider:     user.Identity.Provider,
		IdentitySubject:      user.Identity.Subject,
		FirstLogin:           user.FirstLogin,
		LastLogin:            user.LastLogin,
		CreatedAt:            user.CreatedAt.UTC(),
		UpdatedAt:            user.UpdatedAt.UTC(),
	}
}

func decodeUser(id string, doc userDocument) domain.User {
	channels := make([]domain.NotificationChannel, 0, len(doc.Channels))
	for _, channel := range doc.Channels {
		channels = append(channels, domain.NotificationChannel(channel))
	}
	return domain.User{
		ID:             domain.ID(id),
		Identification: domain.Identification(doc.Identification),
		Email:          doc.Email,
		FullName:       doc.FullName,
		FirstName:      doc.FirstName,
		NickName:       doc.NickName,
		Language:       doc.Language,
		Settings: domain.UserSettings{
			NotificationsEnabled: doc.NotificationsEnabled,
			Channels:             channels,
		},
		Confidant: doc.Confidant,
		Identity: domain.ExternalIdentity{
			Provider: doc.IdentityProvider,
			Subject:  doc.IdentitySubject,
		},
		FirstLogin: doc.FirstLogin,
		LastLogin:  doc.LastLogin,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

type listDocument struct {
	OwnerID          string    `firestore:"ownerId"`
	Title            string    `firestore:"title"`
	TitleLower       string    `firestore:"titleLower"`
	Visibility       string    `firestore:"visibility"`
	MaskReservations bool      `firestore:"maskReservations"`
	ItemSort         string    `firestore:"itemSort"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

func encodeList(list domain.List) listDocument {
	return listDocument{
		OwnerID:          list.OwnerID.String(),
		Title:            list.Title,
		TitleLower:       strings.ToLower(strings.TrimSpace(list.Title)),
		Visibility:       string(list.Visibility),
		MaskReservations: list.Options.MaskReservations,
		ItemSort:         string(list.ItemSort),
		CreatedAt:        list.CreatedAt.UTC(),
		UpdatedAt:        list.UpdatedAt.UTC(),
	}
}

func decodeList(id string, doc listDocument) domain.List {
	return domain.List{
		ID:         domain.ID(id),
		OwnerID:    domain.ID(doc.OwnerID),
		Title:      doc.Title,
		Visibility: domain.Visibility(doc.Visibility),
		Options:    domain.ListOptions{MaskReservations: doc.MaskReservations},
		ItemSort:   domain.ItemSort(doc.ItemSort),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

type itemDocument struct {
	ListID        string    `firestore:"listId"`
	Title         string    `firestore:"title"`
	TitleLower    string    `firestore:"titleLower"`
	Text          string    `firestore:"text"`
	Preference    string    `firestore:"preference"`
	PreferenceTr  int       `firestore:"preferenceRank"`
	URL           string    `firestore:"url"`
	ImageURL      string    `firestore:"imageUrl"`
	LocalImageURL string    `firestore:"localImageUrl"`
	Archived      bool      `firestore:"archived"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func preferenceRank(preference domain.ItemPreference) int {
	switch preference {
	case domain.PreferenceLowest:
		return 0
	case domain.PreferenceLow:
		return 1
	case domain.PreferenceHigh:
		return 3
	case domain.PreferenceHighest:
		return 4
	default:
		return 2
	}
}

func encodeItem(item domain.Item) itemDocument {
	return itemDocument{
		ListID:        item.ListID.String(),
		Title:         item.Title,
		TitleLower:    strings.ToLower(strings.TrimSpace(item.Title)),
		Text:          item.Text,
		Preference:    string(item.Preference),
		PreferenceTr:  preferenceRank(item.Preference),
		URL:           item.URL,
		ImageURL:      item.ImageURL,
		LocalImageURL: item.LocalImageURL,
		Archived:      item.Archived,
		CreatedAt:     item.CreatedAt.UTC(),
		UpdatedAt:     item.UpdatedAt.UTC(),
	}
}

func decodeItem(id string, doc itemDocument) domain.Item {
	return domain.Item{
		ID:            domain.ID(id),
		ListID:        domain.ID(doc.ListID),
		Title:         doc.Title,
		Text:          doc.Text,
		Preference:    domain.ItemPreference(doc.Preference),
		URL:           doc.URL,
		ImageURL:      doc.ImageURL,
		LocalImageURL: doc.LocalImageURL,
		Archived:      doc.Archived,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

type reservationDocument struct {
	ReservationID string    `firestore:"reservationId"`
	ItemID        string    `firestore:"itemId"`
	ListOwnerID   string    `firestore:"listOwnerId"`
	ListID        string    `firestore:"listId"`
	Status        string    `firestore:"status"`
	Holder        string    `firestore:"holder"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

func encodeReservation(reservation domain.Reservation) reservationDocument {
	return reservationDocument{
		ReservationID: reservation.ID.String(),
		ItemID:        reservation.ItemID.String(),
		ListOwnerID:   reservation.ListOwnerID.String(),
		ListID:        reservation.ListID.String(),
		Status:        string(reservation.Status),
		Holder:        reservation.Holder.String(),
		CreatedAt:     reservation.CreatedAt.UTC(),
	}
}

func decodeReservation(doc reservationDocument) domain.Reservation {
	return domain.Reservation{
		ID:          domain.ID(doc.ReservationID),
		ItemID:      domain.ID(doc.ItemID),
		ListOwnerID: domain.ID(doc.ListOwnerID),
		ListID:      domain.ID(doc.ListID),
		Status:      domain.ReservationStatus(doc.Status),
		Holder:      domain.Identification(doc.Holder),
		CreatedAt:   doc.CreatedAt,
	}
}

type favoriteDocument struct {
	FavoriteID    string    `firestore:"favoriteId"`
	UserID        string    `firestore:"userId"`
	ListOwnerID   string    `firestore:"listOwnerId"`
	ListID        string    `firestore:"listId"`
	Notifications []string  `firestore:"notifications"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

func encodeFavorite(favorite domain.Favorite) favoriteDocument {
	notifications := make([]string, 0, len(favorite.Notifications))
	for _, channel := range favorite.Notifications {
		notifications = append(notifications, string(channel))
	}
	return favoriteDocument{
		FavoriteID:    favorite.ID.String(),
		UserID:        favorite.UserID.String(),
		ListOwnerID:   favorite.ListOwnerID.String(),
		ListID:        favorite.ListID.String(),
		Notifications: notifications,
		CreatedAt:     favorite.CreatedAt.UTC(),
	}
}

func decodeFavorite(doc favoriteDocument) domain.Favorite {
	notifications := make([]domain.NotificationChannel, 0, len(doc.Notifications))
	for _, channel := range doc.Notifications {
		notifications = append(notifications, domain.NotificationChannel(channel))
	}
	return domain.Favorite{
		ID:            domain.ID(doc.FavoriteID),
		UserID:        domain.ID(doc.UserID),
		ListOwnerID:   domain.ID(doc.ListOwnerID),
		ListID:        domain.ID(doc.ListID),
		Notifications: notifications,
		CreatedAt:     doc.CreatedAt,
	}
}

type invitationDocument struct {
	InviterID string     `firestore:"inviterId"`
	InviteeID string     `firestore:"inviteeId"`
	Code      string     `firestore:"code"`
	Status    string     `firestore:"status"`
	Email     string     `firestore:"email"`
	SentAt    *time.Time `firestore:"sentAt"`
	CreatedAt time.Time  `firestore:"createdAt"`
}

func encodeInvitation(invitation domain.Invitation) invitationDocument {
	return invitationDocument{
		InviterID: invitation.InviterID.String(),
		InviteeID: invitation.InviteeID.String(),
		Code:      invitation.Code,
		Status:    string(invitation.Status),
		Email:     invitation.Email,
		SentAt:    invitation.SentAt,
		CreatedAt: invitation.CreatedAt.UTC(),
	}
}

func decodeInvitation(id string, doc invitationDocument) domain.Invitation {
	return domain.Invitation{
		ID:        domain.ID(id),
		InviterID: domain.ID(doc.InviterID),
		InviteeID: domain.ID(doc.InviteeID),
		Code:      doc.Code,
		Status:    domain.InvitationStatus(doc.Status),
		Email:     doc.Email,
		SentAt:    doc.SentAt,
		CreatedAt: doc.CreatedAt,
	}
}

type auditLogDocument struct {
	Actor     string            `firestore:"actor"`
	Action    string            `firestore:"action"`
	TargetRef string            `firestore:"targetRef"`
	Metadata  map[string]string `firestore:"metadata"`
	CreatedAt time.Time         `firestore:"createdAt"`
}

func encodeAuditLogEntry(entry domain.AuditLogEntry) auditLogDocument {
	return auditLogDocument{
		Actor:     entry.Actor,
		Action:    entry.Action,
		TargetRef: entry.TargetRef,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt.UTC(),
	}
}

func decodeAuditLogEntry(id string, doc auditLogDocument) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        domain.ID(id),
		Actor:     doc.Actor,
		Action:    doc.Action,
		TargetRef: doc.TargetRef,
		Metadata:  doc.Metadata,
		CreatedAt: doc.CreatedAt,
	}
}
