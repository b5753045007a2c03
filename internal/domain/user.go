package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// NotificationChannel enumerates the delivery channels a user can enable
// for reservation and item notifications.
type NotificationChannel string

const (
	// ChannelEmail delivers notifications by email.
	ChannelEmail NotificationChannel = "email"
	// ChannelPush delivers notifications by push message.
	ChannelPush NotificationChannel = "push"
)

// UserSettings stores per-user notification preferences.
type UserSettings struct {
	NotificationsEnabled bool
	Channels             []NotificationChannel
}

// EnabledChannels returns the channel set to notify the user on, empty
// when notifications are disabled.
func (s UserSettings) EnabledChannels() []NotificationChannel {
	if !s.NotificationsEnabled {
		return nil
	}
	return append([]NotificationChannel(nil), s.Channels...)
}

// ExternalIdentity is the provider/subject pair established by the
// authentication provider. The pair is unique across users.
type ExternalIdentity struct {
	Provider string
	Subject  string
}

// IsZero reports whether the identity pair is unset.
func (e ExternalIdentity) IsZero() bool {
	return strings.TrimSpace(e.Provider) == "" || strings.TrimSpace(e.Subject) == ""
}

// User is the identity record for a registered member. Users are created
// on first successful external authentication and updated on subsequent
// logins; they are never hard-deleted.
type User struct {
	ID             ID
	Identification Identification
	Email          string
	FullName       string
	FirstName      string
	NickName       string
	Language       string
	Settings       UserSettings
	Confidant      bool
	Identity       ExternalIdentity
	FirstLogin     *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.NickName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return strings.TrimSpace(u.FullName)
}

// UserValues is the draft of mutable user profile fields supplied by the
// presentation layer.
type UserValues struct {
	FullName string
	NickName *string
	Language *string
	Settings *UserSettings
}

// Validate checks the draft against profile constraints and returns a
// per-property ValidationError when any fail.
func (v UserValues) Validate() error {
	errs := ValidationError{}
	name := strings.TrimSpace(v.FullName)
	if name == "" {
		errs["fullName"] = "must not be empty"
	} else if utf8.RuneCountInString(name) > 100 {
		errs["fullName"] = "must not exceed 100 characters"
	}
	if v.NickName != nil {
		nick := strings.TrimSpace(*v.NickName)
		if nick != "" {
			if utf8.RuneCountInString(nick) < 3 {
				errs["nickName"] = "must have at least 3 characters"
			} else if utf8.RuneCountInString(nick) > 30 {
				errs["nickName"] = "must not exceed 30 characters"
			}
		}
	}
	return errs.orNil()
}
