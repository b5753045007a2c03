package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

const (
	auditActionReservationCreate = "reservation.create"
	auditActionReservationDelete = "reservation.delete"

	eventReservationCreated  = "reservation_created"
	eventReservationReleased = "reservation_released"
)

// WishlistDeps bundles the dependencies required to construct a wishlist service instance.
type WishlistDeps struct {
	Users         repositories.UserRepository
	Lists         repositories.ListRepository
	Items         repositories.ItemRepository
	Reservations  repositories.ReservationRepository
	Notifications NotificationProvider
	Audit         AuditLogService
	Clock         func() time.Time
	Log           Logger
}

type wishlist struct {
	users         repositories.UserRepository
	lists         repositories.ListRepository
	items         repositories.ItemRepository
	reservations  repositories.ReservationRepository
	notifications NotificationProvider
	audit         AuditLogService
	clock         func() time.Time
	log           Logger
}

// NewWishlist wires dependencies into a concrete Wishlist implementation.
func NewWishlist(deps WishlistDeps) (Wishlist, error) {
	if deps.Users == nil {
		return nil, errors.New("wishlist: user repository is required")
	}
	if deps.Lists == nil {
		return nil, errors.New("wishlist: list repository is required")
	}
	if deps.Items == nil {
		return nil, errors.New("wishlist: item repository is required")
	}
	if deps.Reservations == nil {
		return nil, errors.New("wishlist: reservation repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &wishlist{
		users:         deps.Users,
		lists:         deps.Lists,
		items:         deps.Items,
		reservations:  deps.Reservations,
		notifications: deps.Notifications,
		audit:         deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *wishlist) PresentWishlist(ctx context.Context, spec PresentWishlistSpecification) (WishlistResult, error) {
	auth, err := s.resolveViewable(ctx, spec.Subject, spec.OwnerID, spec.ListID)
	if err != nil {
		return WishlistResult{}, err
	}
	list := auth.Entity
	owner := auth.Owner

	items, err := s.items.ListByList(ctx, owner.ID, list.ID, repositories.ItemListQuery{
		Sort:  list.ItemSort,
		Order: sortOrderFor(list.ItemSort),
	})
	if err != nil {
		return WishlistResult{}, err
	}

	// The owner of a masking list must not learn what has been reserved;
	// everyone else sees reservation state.
	masked := list.Options.MaskReservations && spec.Subject.Authenticated() && spec.Subject.User.ID == owner.ID

	reservationsByItem := map[domain.ID]domain.Reservation{}
	if !masked {
		reservations, err := s.reservations.ListByList(ctx, list.ID)
		if err != nil {
			return WishlistResult{}, err
		}
		for _, reservation := range reservations {
			reservationsByItem[reservation.ItemID] = reservation
		}
	}

	holder := spec.Subject.Holder()
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		result := newItemResult(item)
		if reservation, ok := reservationsByItem[item.ID]; ok {
			projected := newReservationResult(reservation, holder)
			result.Reservation = &projected
		}
		results = append(results, result)
	}

	return WishlistResult{
		ID:        list.ID,
		Title:     list.Title,
		ItemSort:  list.ItemSort,
		OwnerID:   owner.ID,
		OwnerName: owner.DisplayName(),
		Masked:    masked,
		Items:     results,
	}, nil
}

func (s *wishlist) AddReservation(ctx context.Context, spec AddReservationSpecification) (ReservationResult, error) {
	auth, err := s.resolveViewable(ctx, spec.Subject, spec.OwnerID, spec.ListID)
	if err != nil {
		return ReservationResult{}, err
	}
	list := auth.Entity
	owner := auth.Owner

	item, err := s.items.FindByID(ctx, owner.ID, list.ID, spec.ItemID)
	if err != nil {
		return ReservationResult{}, notFoundAs(err, ErrInvalidItem)
	}
	if item.Archived {
		return ReservationResult{}, ErrInvalidItem
	}

	if _, err := s.reservations.FindByItem(ctx, item.ID); err == nil {
		return ReservationResult{}, ErrItemReservationExist
	} else if !isNotFound(err) {
		return ReservationResult{}, err
	}

	holder := spec.Subject.Holder()
	reservation := domain.Reservation{
		ID:          domain.NewID(),
		ItemID:      item.ID,
		ListOwnerID: owner.ID,
		ListID:      list.ID,
		Status:      domain.ReservationActive,
		Holder:      holder,
		CreatedAt:   s.clock(),
	}
	if err := s.reservations.Insert(ctx, reservation); err != nil {
		// Two holders raced for the same item; the storage constraint
		// decided, this caller lost.
		if isConflict(err) {
			return ReservationResult{}, ErrItemReservationExist
		}
		return ReservationResult{}, err
	}

	s.notifyOwner(ctx, owner, list, item, eventReservationCreated)
	s.recordAudit(ctx, spec.Subject, auditActionReservationCreate, reservation)

	return newReservationResult(reservation, holder), nil
}

func (s *wishlist) RemoveReservation(ctx context.Context, spec RemoveReservationSpecification) error {
	reservation, err := s.reservations.FindByID(ctx, spec.ReservationID)
	if err != nil {
		return notFoundAs(err, ErrInvalidReservation)
	}

	if !reservation.HeldBy(spec.Subject.Holder()) {
		return ErrItemHolderMismatch
	}

	if err := s.reservations.Delete(ctx, reservation.ItemID); err != nil {
		return notFoundAs(err, ErrInvalidReservation)
	}

	if owner, err := s.users.FindByID(ctx, reservation.ListOwnerID); err == nil {
		if list, err := s.lists.FindByID(ctx, owner.ID, reservation.ListID); err == nil {
			item, err := s.items.FindByID(ctx, owner.ID, list.ID, reservation.ItemID)
			if err != nil {
				item = domain.Item{ID: reservation.ItemID, ListID: reservation.ListID}
			}
			s.notifyOwner(ctx, owner, list, item, eventReservationReleased)
		}
	}
	s.recordAudit(ctx, spec.Subject, auditActionReservationDelete, reservation)

	return nil
}

// resolveViewable loads owner and list and applies the visibility policy.
func (s *wishlist) resolveViewable(ctx context.Context, subject Subject, ownerID, listID domain.ID) (Authorization[domain.List], error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return Authorization[domain.List]{}, notFoundAs(err, ErrInvalidUser)
	}
	list, err := s.lists.FindByID(ctx, owner.ID, listID)
	if err != nil {
		return Authorization[domain.List]{}, notFoundAs(err, ErrInvalidList)
	}
	return AuthorizeList(list, owner, subject)
}

// notifyOwner tells the list owner about reservation activity on the
// channels they enabled. Publishing is best-effort.
func (s *wishlist) notifyOwner(ctx context.Context, owner domain.User, list domain.List, item domain.Item, event string) {
	if s.notifications == nil {
		return
	}
	enabled := owner.Settings.EnabledChannels()
	if len(enabled) == 0 {
		return
	}
	channels := make([]string, 0, len(enabled))
	for _, channel := range enabled {
		channels = append(channels, string(channel))
	}
	message := NotificationMessage{
		Event:    event,
		UserID:   owner.ID.String(),
		ListID:   list.ID.String(),
		ItemID:   item.ID.String(),
		Title:    item.Title,
		Channels: channels,
		QueuedAt: s.clock(),
	}
	if _, err := s.notifications.PublishNotification(ctx, message); err != nil {
		s.log(ctx, "reservation notification publish failed", map[string]any{
			"event":  event,
			"listId": list.ID.String(),
			"error":  err.Error(),
		})
	}
}

func (s *wishlist) recordAudit(ctx context.Context, subject Subject, action string, reservation domain.Reservation) {
	if s.audit == nil {
		return
	}
	actor := reservation.Holder.String()
	if subject.Authenticated() {
		actor = subject.User.ID.String()
	}
	targetRef := fmt.Sprintf("/users/%s/lists/%s/items/%s", reservation.ListOwnerID, reservation.ListID, reservation.ItemID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actor, action, targetRef, nil))
}
