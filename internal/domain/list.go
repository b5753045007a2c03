package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Visibility controls who may view a list and reserve its items.
type Visibility string

const (
	// VisibilityPrivate restricts access to the list owner.
	VisibilityPrivate Visibility = "private"
	// VisibilityPublic grants access to anyone, including guests.
	VisibilityPublic Visibility = "public"
	// VisibilityUsers grants access to any authenticated user.
	VisibilityUsers Visibility = "users"
	// VisibilityFriends is an extension point; until a friendship graph
	// exists it behaves like VisibilityUsers.
	VisibilityFriends Visibility = "friends"
)

// ParseVisibility maps raw input to a Visibility, defaulting to private.
func ParseVisibility(raw string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(raw))) {
	case VisibilityPrivate:
		return VisibilityPrivate, true
	case VisibilityPublic:
		return VisibilityPublic, true
	case VisibilityUsers:
		return VisibilityUsers, true
	case VisibilityFriends:
		return VisibilityFriends, true
	default:
		return VisibilityPrivate, false
	}
}

// ItemSort enumerates the orderings a wishlist can be presented in.
type ItemSort string

const (
	// ItemSortTitle orders items alphabetically by title.
	ItemSortTitle ItemSort = "title"
	// ItemSortCreatedAt orders items by creation time, newest first.
	ItemSortCreatedAt ItemSort = "createdAt"
	// ItemSortPreference orders items by the owner's stated preference.
	ItemSortPreference ItemSort = "preference"
)

// ListOptions carries behavioural toggles for a list.
type ListOptions struct {
	// MaskReservations hides reservation state from the owner so gifts
	// stay a surprise.
	MaskReservations bool
}

// List is a collection of items owned by exactly one user. The title is
// unique within the owner's lists.
type List struct {
	ID         ID
	OwnerID    ID
	Title      string
	Visibility Visibility
	Options    ListOptions
	ItemSort   ItemSort
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AccessibleBy reports whether the list's visibility admits the given
// subject; ownership is decided separately by the authorization layer.
func (l *List) AccessibleBy(authenticated bool) bool {
	switch l.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityUsers, VisibilityFriends:
		return authenticated
	default:
		return false
	}
}

// ListValues is the draft of list fields supplied by the presentation
// layer for create and update operations.
type ListValues struct {
	Title      string
	Visibility string
	Options    ListOptions
	ItemSort   *string
}

// Validate checks the draft against list constraints.
func (v ListValues) Validate() error {
	errs := ValidationError{}
	title := strings.TrimSpace(v.Title)
	if title == "" {
		errs["title"] = "must not be empty"
	} else if utf8.RuneCountInString(title) > 100 {
		errs["title"] = "must not exceed 100 characters"
	}
	if _, ok := ParseVisibility(v.Visibility); !ok {
		errs["visibility"] = "must be one of private, public, users, friends"
	}
	if v.ItemSort != nil {
		switch ItemSort(strings.TrimSpace(*v.ItemSort)) {
		case ItemSortTitle, ItemSortCreatedAt, ItemSortPreference:
		default:
			errs["itemSort"] = "must be one of title, createdAt, preference"
		}
	}
	return errs.orNil()
}
