package services

import (
	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

// Subject is the caller of an action: an authenticated user, or an
// anonymous visitor known only by identification.
type Subject struct {
	User           *domain.User
	Identification domain.Identification
}

// Authenticated reports whether the subject carries a user account.
func (s Subject) Authenticated() bool { return s.User != nil }

// UserID returns the subject's user id, zero for anonymous visitors.
func (s Subject) UserID() domain.ID {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Holder returns the identification reservations are attributed to: the
// user's own identification when authenticated, the visitor token
// otherwise.
func (s Subject) Holder() domain.Identification {
	if s.User != nil && !s.User.Identification.IsZero() {
		return s.User.Identification
	}
	return s.Identification
}

// Authorization proves that access to an owned entity was granted; it
// carries the entity together with its owning user.
type Authorization[T any] struct {
	Entity T
	Owner  domain.User
}

// AuthorizeList decides whether the subject may view the list and reserve
// its items. Ownership always grants access; otherwise the list's
// visibility decides.
func AuthorizeList(list domain.List, owner domain.User, subject Subject) (Authorization[domain.List], error) {
	if subject.Authenticated() && subject.User.ID == owner.ID {
		return Authorization[domain.List]{Entity: list, Owner: owner}, nil
	}
	if list.AccessibleBy(subject.Authenticated()) {
		return Authorization[domain.List]{Entity: list, Owner: owner}, nil
	}
	if !subject.Authenticated() {
		return Authorization[domain.List]{}, ErrAuthenticationRequired
	}
	return Authorization[domain.List]{}, ErrAccessDenied
}

// AuthorizeOwner grants access to the subject only when it is the owner
// itself. Used for management surfaces (list CRUD, items, invitations).
func AuthorizeOwner[T any](entity T, owner domain.User, subject Subject) (Authorization[T], error) {
	if !subject.Authenticated() {
		return Authorization[T]{}, ErrAuthenticationRequired
	}
	if subject.User.ID != owner.ID {
		return Authorization[T]{}, ErrAccessDenied
	}
	return Authorization[T]{Entity: entity, Owner: owner}, nil
}

// AuthorizeInvitation grants invitation access to the inviter only; there
// is no shared visibility for invitations.
func AuthorizeInvitation(invitation domain.Invitation, owner domain.User, subject Subject) (Authorization[domain.Invitation], error) {
	return AuthorizeOwner(invitation, owner, subject)
}
