package domain

import "time"

// Favorite joins a user with a list they want quick access to. At most
// one favorite exists per (user, list) pair; creating it again yields
// the existing favorite.
type Favorite struct {
	ID     ID
	UserID ID
	// ListOwnerID locates the favored list, which is stored underneath
	// its owner.
	ListOwnerID ID
	ListID      ID
	// Notifications holds the channels the user wants list activity
	// (new items) announced on.
	Notifications []NotificationChannel
	CreatedAt     time.Time
}

// NotifiesOn reports whether the favorite subscribes to the channel.
func (f *Favorite) NotifiesOn(channel NotificationChannel) bool {
	for _, c := range f.Notifications {
		if c == channel {
			return true
		}
	}
	return false
}
