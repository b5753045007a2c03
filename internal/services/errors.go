package services

import (
	"errors"
	"fmt"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

// Not-found errors, one per entity an actor can resolve.
var (
	// ErrInvalidUser indicates the user could not be resolved.
	ErrInvalidUser = errors.New("services: invalid user")
	// ErrInvalidList indicates the list could not be resolved for its owner.
	ErrInvalidList = errors.New("services: invalid list")
	// ErrInvalidItem indicates the item could not be resolved within its list.
	ErrInvalidItem = errors.New("services: invalid item")
	// ErrInvalidReservation indicates the reservation could not be resolved.
	ErrInvalidReservation = errors.New("services: invalid reservation")
	// ErrInvalidFavorite indicates the favorite could not be resolved.
	ErrInvalidFavorite = errors.New("services: invalid favorite")
	// ErrInvalidInvitation indicates the invitation could not be resolved.
	ErrInvalidInvitation = errors.New("services: invalid invitation")
)

// Authorization errors.
var (
	// ErrAuthenticationRequired indicates the operation needs an
	// authenticated subject.
	ErrAuthenticationRequired = errors.New("services: authentication required")
	// ErrAccessDenied indicates the subject may not access the entity.
	ErrAccessDenied = errors.New("services: access denied")
)

// Business-rule errors.
var (
	// ErrLimitReached indicates a per-user or per-list quota was hit.
	ErrLimitReached = errors.New("services: limit reached")
	// ErrUniquenessViolated indicates a title or nickname is already taken.
	ErrUniquenessViolated = errors.New("services: uniqueness violated")
	// ErrItemReservationExist indicates the item already carries an active
	// reservation.
	ErrItemReservationExist = errors.New("services: item reservation exists")
	// ErrItemHolderMismatch indicates the caller does not hold the
	// reservation.
	ErrItemHolderMismatch = errors.New("services: item holder mismatch")
	// ErrItemReserved indicates the operation is not permitted while the
	// item carries an active reservation.
	ErrItemReserved = errors.New("services: item is reserved")
	// ErrInvalidInvitationStatus indicates the invitation is in a terminal
	// state that forbids the transition.
	ErrInvalidInvitationStatus = errors.New("services: invalid invitation status")
	// ErrInvalidValues indicates the supplied value draft failed validation.
	ErrInvalidValues = errors.New("services: invalid values")
)

// LimitReachedError carries the quota that was exceeded.
type LimitReachedError struct {
	Maximum int
}

func (e LimitReachedError) Error() string {
	return fmt.Sprintf("services: limit reached (maximum %d)", e.Maximum)
}

// Is makes errors.Is(err, ErrLimitReached) succeed.
func (e LimitReachedError) Is(target error) bool {
	return target == ErrLimitReached
}

// InvalidInvitationStatusError carries the offending invitation status.
type InvalidInvitationStatusError struct {
	Status domain.InvitationStatus
}

func (e InvalidInvitationStatusError) Error() string {
	return fmt.Sprintf("services: invalid invitation status %q", e.Status)
}

// Is makes errors.Is(err, ErrInvalidInvitationStatus) succeed.
func (e InvalidInvitationStatusError) Is(target error) bool {
	return target == ErrInvalidInvitationStatus
}

// InvalidValuesError wraps a per-property validation error together with a
// short, Result-safe description of the subject so the presentation layer
// can redisplay a form without re-querying.
type InvalidValuesError struct {
	Subject    string
	Validation domain.ValidationError
}

func (e InvalidValuesError) Error() string {
	return fmt.Sprintf("services: invalid values for %s: %v", e.Subject, e.Validation)
}

// Is makes errors.Is(err, ErrInvalidValues) succeed.
func (e InvalidValuesError) Is(target error) bool {
	return target == ErrInvalidValues
}

// Unwrap exposes the structured validation error.
func (e InvalidValuesError) Unwrap() error {
	return e.Validation
}

func invalidValues(subject string, err error) error {
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return InvalidValuesError{Subject: subject, Validation: validation}
	}
	return err
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// notFoundAs maps repository not-found failures to the actor's own
// sentinel; infrastructure errors pass through unchanged.
func notFoundAs(err error, sentinel error) error {
	if isNotFound(err) {
		return sentinel
	}
	return err
}
