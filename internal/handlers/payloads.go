package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/services"
)

const maxRequestBodySize = 64 * 1024

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

func readJSONBody(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return errEmptyBody
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return err
	}
	if len(data) > maxRequestBodySize {
		return errBodyTooLarge
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(data, target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

type userPayload struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	FirstName   string   `json:"first_name,omitempty"`
	NickName    string   `json:"nick_name,omitempty"`
	DisplayName string   `json:"display_name"`
	Language    string   `json:"language,omitempty"`
	Confidant   bool     `json:"confidant"`
	Notify      bool     `json:"notifications_enabled"`
	Channels    []string `json:"channels"`
	FirstLogin  string   `json:"first_login,omitempty"`
	LastLogin   string   `json:"last_login,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

func buildUserPayload(user services.UserResult) userPayload {
	channels := make([]string, 0, len(user.Settings.Channels))
	for _, channel := range user.Settings.Channels {
		channels = append(channels, string(channel))
	}
	return userPayload{
		ID:          user.ID.String(),
		Email:       user.Email,
		FullName:    user.FullName,
		FirstName:   user.FirstName,
		NickName:    user.NickName,
		DisplayName: user.DisplayName,
		Language:    user.Language,
		Confidant:   user.Confidant,
		Notify:      user.Settings.NotificationsEnabled,
		Channels:    channels,
		FirstLogin:  formatTimePtr(user.FirstLogin),
		LastLogin:   formatTimePtr(user.LastLogin),
		CreatedAt:   formatTime(user.CreatedAt),
	}
}

type listPayload struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Visibility       string `json:"visibility"`
	MaskReservations bool   `json:"mask_reservations"`
	ItemSort         string `json:"item_sort"`
	ItemCount        int    `json:"item_count"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

func buildListPayload(list services.ListResult) listPayload {
	return listPayload{
		ID:               list.ID.String(),
		Title:            list.Title,
		Visibility:       string(list.Visibility),
		MaskReservations: list.Options.MaskReservations,
		ItemSort:         string(list.ItemSort),
		ItemCount:        list.ItemCount,
		CreatedAt:        formatTime(list.CreatedAt),
		UpdatedAt:        formatTime(list.UpdatedAt),
	}
}

type reservationPayload struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	ListID    string `json:"list_id"`
	IsHolder  bool   `json:"is_holder"`
	CreatedAt string `json:"created_at,omitempty"`
}

func buildReservationPayload(reservation services.ReservationResult) reservationPayload {
	return reservationPayload{
		ID:        reservation.ID.String(),
		ItemID:    reservation.ItemID.String(),
		ListID:    reservation.ListID.String(),
		IsHolder:  reservation.IsHolder,
		CreatedAt: formatTime(reservation.CreatedAt),
	}
}

type itemPayload struct {
	ID          string              `json:"id"`
	ListID      string              `json:"list_id"`
	Title       string              `json:"title"`
	Text        string              `json:"text,omitempty"`
	Preference  string              `json:"preference"`
	URL         string              `json:"url,omitempty"`
	ImageURL    string              `json:"image_url,omitempty"`
	LocalImage  string              `json:"local_image_url,omitempty"`
	Archived    bool                `json:"archived"`
	Reservation *reservationPayload `json:"reservation,omitempty"`
	CreatedAt   string              `json:"created_at,omitempty"`
	UpdatedAt   string              `json:"updated_at,omitempty"`
}

// ImageURLResolver converts a stored image object path into a URL clients
// can download. A nil resolver leaves the raw object path in place.
type ImageURLResolver func(ctx context.Context, objectPath string) string

func resolveImageURL(ctx context.Context, resolve ImageURLResolver, objectPath string) string {
	if resolve == nil || objectPath == "" {
		return objectPath
	}
	if url := resolve(ctx, objectPath); url != "" {
		return url
	}
	return objectPath
}

func buildItemPayload(ctx context.Context, item services.ItemResult, images ImageURLResolver) itemPayload {
	payload := itemPayload{
		ID:         item.ID.String(),
		ListID:     item.ListID.String(),
		Title:      item.Title,
		Text:       item.Text,
		Preference: string(item.Preference),
		URL:        item.URL,
		ImageURL:   item.ImageURL,
		LocalImage: resolveImageURL(ctx, images, item.LocalImageURL),
		Archived:   item.Archived,
		CreatedAt:  formatTime(item.CreatedAt),
		UpdatedAt:  formatTime(item.UpdatedAt),
	}
	if item.Reservation != nil {
		reservation := buildReservationPayload(*item.Reservation)
		payload.Reservation = &reservation
	}
	return payload
}

type wishlistPayload struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	ItemSort  string        `json:"item_sort"`
	OwnerID   string        `json:"owner_id"`
	OwnerName string        `json:"owner_name"`
	Masked    bool          `json:"masked"`
	Items     []itemPayload `json:"items"`
}

func buildWishlistPayload(ctx context.Context, wishlist services.WishlistResult, images ImageURLResolver) wishlistPayload {
	items := make([]itemPayload, 0, len(wishlist.Items))
	for _, item := range wishlist.Items {
		items = append(items, buildItemPayload(ctx, item, images))
	}
	return wishlistPayload{
		ID:        wishlist.ID.String(),
		Title:     wishlist.Title,
		ItemSort:  string(wishlist.ItemSort),
		OwnerID:   wishlist.OwnerID.String(),
		OwnerName: wishlist.OwnerName,
		Masked:    wishlist.Masked,
		Items:     items,
	}
}

type favoritePayload struct {
	ID            string   `json:"id"`
	ListID        string   `json:"list_id"`
	ListOwnerID   string   `json:"list_owner_id"`
	ListTitle     string   `json:"list_title"`
	ListOwnerName string   `json:"list_owner_name"`
	Notifications []string `json:"notifications"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

func buildFavoritePayload(favorite services.FavoriteResult) favoritePayload {
	notifications := make([]string, 0, len(favorite.Notifications))
	for _, channel := range favorite.Notifications {
		notifications = append(notifications, string(channel))
	}
	return favoritePayload{
		ID:            favorite.ID.String(),
		ListID:        favorite.ListID.String(),
		ListOwnerID:   favorite.ListOwnerID.String(),
		ListTitle:     favorite.ListTitle,
		ListOwnerName: favorite.ListOwnerName,
		Notifications: notifications,
		CreatedAt:     formatTime(favorite.CreatedAt),
	}
}

type invitationPayload struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Status    string `json:"status"`
	Email     string `json:"email"`
	SentAt    string `json:"sent_at,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func buildInvitationPayload(invitation services.InvitationResult) invitationPayload {
	return invitationPayload{
		ID:        invitation.ID.String(),
		Code:      invitation.Code,
		Status:    string(invitation.Status),
		Email:     invitation.Email,
		SentAt:    formatTimePtr(invitation.SentAt),
		CreatedAt: formatTime(invitation.CreatedAt),
	}
}

func channelsFromStrings(raw []string) []domain.NotificationChannel {
	channels := make([]domain.NotificationChannel, 0, len(raw))
	for _, value := range raw {
		channels = append(channels, domain.NotificationChannel(strings.TrimSpace(value)))
	}
	return channels
}
