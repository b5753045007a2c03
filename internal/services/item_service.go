package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

const (
	auditActionItemCreate = "item.create"
	auditActionItemUpdate = "item.update"
	auditActionItemDelete = "item.delete"
	auditActionItemMove   = "item.move"

	eventItemCreated = "item_created"
)

// UserItemsDeps bundles the dependencies required to construct a user items service instance.
type UserItemsDeps struct {
	Lists         repositories.ListRepository
	Items         repositories.ItemRepository
	Reservations  repositories.ReservationRepository
	Favorites     repositories.FavoriteRepository
	ImageStore    ImageStoreProvider
	Notifications NotificationProvider
	Audit         AuditLogService
	Quotas        Quotas
	Sanitize      Sanitizer
	Clock         func() time.Time
	Log           Logger
}

type userItems struct {
	lists         repositories.ListRepository
	items         repositories.ItemRepository
	reservations  repositories.ReservationRepository
	favorites     repositories.FavoriteRepository
	imageStore    ImageStoreProvider
	notifications NotificationProvider
	audit         AuditLogService
	quotas        Quotas
	sanitize      Sanitizer
	clock         func() time.Time
	log           Logger
}

// NewUserItems wires dependencies into a concrete UserItems implementation.
func NewUserItems(deps UserItemsDeps) (UserItems, error) {
	if deps.Lists == nil {
		return nil, errors.New("user items: list repository is required")
	}
	if deps.Items == nil {
		return nil, errors.New("user items: item repository is required")
	}
	if deps.Reservations == nil {
		return nil, errors.New("user items: reservation repository is required")
	}

	quotas := deps.Quotas
	if quotas.MaxItemsPerList <= 0 {
		quotas = DefaultQuotas()
	}
	sanitize := deps.Sanitize
	if sanitize == nil {
		sanitize = func(s string) string { return s }
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &userItems{
		lists:         deps.Lists,
		items:         deps.Items,
		reservations:  deps.Reservations,
		favorites:     deps.Favorites,
		imageStore:    deps.ImageStore,
		notifications: deps.Notifications,
		audit:         deps.Audit,
		quotas:        quotas,
		sanitize:      sanitize,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *userItems) CreateItem(ctx context.Context, spec CreateItemSpecification) (ItemResult, error) {
	auth, err := s.resolveList(ctx, spec.Subject, spec.ListID)
	if err != nil {
		return ItemResult{}, err
	}
	list := auth.Entity

	if err := spec.Values.Validate(); err != nil {
		return ItemResult{}, invalidValues("item", err)
	}

	count, err := s.items.CountByList(ctx, list.OwnerID, list.ID)
	if err != nil {
		return ItemResult{}, err
	}
	if count >= s.quotas.MaxItemsPerList {
		return ItemResult{}, LimitReachedError{Maximum: s.quotas.MaxItemsPerList}
	}

	preference, _ := domain.ParseItemPreference(spec.Values.Preference)
	now := s.clock()
	item := domain.Item{
		ID:         domain.NewID(),
		ListID:     list.ID,
		Title:      s.sanitize(strings.TrimSpace(spec.Values.Title)),
		Text:       s.sanitize(strings.TrimSpace(spec.Values.Text)),
		Preference: preference,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if spec.Values.URL != nil {
		item.URL = strings.TrimSpace(*spec.Values.URL)
	}
	if spec.Values.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*spec.Values.ImageURL)
	}

	if err := s.items.Insert(ctx, list.OwnerID, item); err != nil {
		return ItemResult{}, err
	}

	item = s.fetchImage(ctx, list.OwnerID, item)
	s.notifySubscribers(ctx, list, item)
	s.recordAudit(ctx, auth.Owner.ID, auditActionItemCreate, list.OwnerID, item)

	return newItemResult(item), nil
}

func (s *userItems) UpdateItem(ctx context.Context, spec UpdateItemSpecification) (ItemResult, error) {
	auth, item, err := s.resolveItem(ctx, spec.Subject, spec.ListID, spec.ItemID)
	if err != nil {
		return ItemResult{}, err
	}
	list := auth.Entity

	if err := spec.Values.Validate(); err != nil {
		return ItemResult{}, invalidValues("item", err)
	}

	previousImageURL := item.ImageURL

	preference, _ := domain.ParseItemPreference(spec.Values.Preference)
	item.Title = s.sanitize(strings.TrimSpace(spec.Values.Title))
	item.Text = s.sanitize(strings.TrimSpace(spec.Values.Text))
	item.Preference = preference
	if spec.Values.URL != nil {
		item.URL = strings.TrimSpace(*spec.Values.URL)
	}
	if spec.Values.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*spec.Values.ImageURL)
	}
	if spec.Archived != nil {
		item.Archived = *spec.Archived
	}
	item.UpdatedAt = s.clock()

	if item.ImageURL != previousImageURL {
		s.deleteImage(ctx, item.LocalImageURL)
		item.LocalImageURL = ""
	}

	if err := s.items.Update(ctx, list.OwnerID, item); err != nil {
		return ItemResult{}, err
	}

	if item.ImageURL != previousImageURL {
		item = s.fetchImage(ctx, list.OwnerID, item)
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionItemUpdate, list.OwnerID, item)

	return newItemResult(item), nil
}

func (s *userItems) DeleteItem(ctx context.Context, spec DeleteItemSpecification) error {
	auth, item, err := s.resolveItem(ctx, spec.Subject, spec.ListID, spec.ItemID)
	if err != nil {
		return err
	}
	list := auth.Entity

	if err := s.reservations.Delete(ctx, item.ID); err != nil && !isNotFound(err) {
		return err
	}
	if err := s.items.Delete(ctx, list.OwnerID, list.ID, item.ID); err != nil {
		return err
	}

	s.deleteImage(ctx, item.LocalImageURL)
	s.recordAudit(ctx, auth.Owner.ID, auditActionItemDelete, list.OwnerID, item)
	return nil
}

func (s *userItems) MoveItem(ctx context.Context, spec MoveItemSpecification) (ItemResult, error) {
	auth, item, err := s.resolveItem(ctx, spec.Subject, spec.ListID, spec.ItemID)
	if err != nil {
		return ItemResult{}, err
	}
	list := auth.Entity

	target, err := s.lists.FindByID(ctx, list.OwnerID, spec.TargetListID)
	if err != nil {
		return ItemResult{}, notFoundAs(err, ErrInvalidList)
	}

	if _, err := s.reservations.FindByItem(ctx, item.ID); err == nil {
		return ItemResult{}, ErrItemReserved
	} else if !isNotFound(err) {
		return ItemResult{}, err
	}

	count, err := s.items.CountByList(ctx, list.OwnerID, target.ID)
	if err != nil {
		return ItemResult{}, err
	}
	if count >= s.quotas.MaxItemsPerList {
		return ItemResult{}, LimitReachedError{Maximum: s.quotas.MaxItemsPerList}
	}

	item.UpdatedAt = s.clock()
	moved, err := s.items.MoveToList(ctx, list.OwnerID, item, target.ID)
	if err != nil {
		return ItemResult{}, err
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionItemMove, list.OwnerID, moved)

	return newItemResult(moved), nil
}

func (s *userItems) GetItem(ctx context.Context, spec GetItemSpecification) (ItemResult, error) {
	auth, item, err := s.resolveItem(ctx, spec.Subject, spec.ListID, spec.ItemID)
	if err != nil {
		return ItemResult{}, err
	}
	result := newItemResult(item)
	if !auth.Entity.Options.MaskReservations {
		if reservation, err := s.reservations.FindByItem(ctx, item.ID); err == nil {
			projected := newReservationResult(reservation, spec.Subject.Holder())
			result.Reservation = &projected
		} else if !isNotFound(err) {
			return ItemResult{}, err
		}
	}
	return result, nil
}

func (s *userItems) GetItems(ctx context.Context, spec GetItemsSpecification) ([]ItemResult, error) {
	auth, err := s.resolveList(ctx, spec.Subject, spec.ListID)
	if err != nil {
		return nil, err
	}
	list := auth.Entity

	items, err := s.items.ListByList(ctx, list.OwnerID, list.ID, repositories.ItemListQuery{
		Sort:            list.ItemSort,
		Order:           sortOrderFor(list.ItemSort),
		IncludeArchived: spec.IncludeArchived,
	})
	if err != nil {
		return nil, err
	}

	reservationsByItem := map[domain.ID]domain.Reservation{}
	if !list.Options.MaskReservations {
		reservations, err := s.reservations.ListByList(ctx, list.ID)
		if err != nil {
			return nil, err
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
	return results, nil
}

// resolveList loads the list and proves the subject owns it.
func (s *userItems) resolveList(ctx context.Context, subject Subject, listID domain.ID) (Authorization[domain.List], error) {
	if !subject.Authenticated() {
		return Authorization[domain.List]{}, ErrAuthenticationRequired
	}
	owner := *subject.User
	list, err := s.lists.FindByID(ctx, owner.ID, listID)
	if err != nil {
		return Authorization[domain.List]{}, notFoundAs(err, ErrInvalidList)
	}
	return AuthorizeOwner(list, owner, subject)
}

func (s *userItems) resolveItem(ctx context.Context, subject Subject, listID, itemID domain.ID) (Authorization[domain.List], domain.Item, error) {
	auth, err := s.resolveList(ctx, subject, listID)
	if err != nil {
		return Authorization[domain.List]{}, domain.Item{}, err
	}
	item, err := s.items.FindByID(ctx, auth.Entity.OwnerID, auth.Entity.ID, itemID)
	if err != nil {
		return Authorization[domain.List]{}, domain.Item{}, notFoundAs(err, ErrInvalidItem)
	}
	return auth, item, nil
}

// fetchImage copies the item's remote image into managed storage. Failures
// leave the item without a local copy; the remote URL still renders.
func (s *userItems) fetchImage(ctx context.Context, ownerID domain.ID, item domain.Item) domain.Item {
	if s.imageStore == nil || strings.TrimSpace(item.ImageURL) == "" {
		return item
	}
	objectPath, err := s.imageStore.FetchItemImage(ctx, ownerID, item.ListID, item.ID, item.ImageURL)
	if err != nil {
		s.log(ctx, "item image fetch failed", map[string]any{
			"itemId": item.ID.String(),
			"error":  err.Error(),
		})
		return item
	}
	item.LocalImageURL = objectPath
	if err := s.items.Update(ctx, ownerID, item); err != nil {
		s.log(ctx, "item image path update failed", map[string]any{
			"itemId": item.ID.String(),
			"error":  err.Error(),
		})
	}
	return item
}

func (s *userItems) deleteImage(ctx context.Context, objectPath string) {
	if s.imageStore == nil || strings.TrimSpace(objectPath) == "" {
		return
	}
	if err := s.imageStore.DeleteItemImage(ctx, objectPath); err != nil {
		s.log(ctx, "item image delete failed", map[string]any{
			"objectPath": objectPath,
			"error":      err.Error(),
		})
	}
}

// notifySubscribers fans a new-item event out to every user who favored
// the list with notifications enabled. Publishing is best-effort.
func (s *userItems) notifySubscribers(ctx context.Context, list domain.List, item domain.Item) {
	if s.notifications == nil || s.favorites == nil {
		return
	}
	subscribers, err := s.favorites.ListSubscribers(ctx, list.ID)
	if err != nil {
		s.log(ctx, "subscriber lookup failed", map[string]any{
			"listId": list.ID.String(),
			"error":  err.Error(),
		})
		return
	}
	for _, favorite := range subscribers {
		if len(favorite.Notifications) == 0 {
			continue
		}
		channels := make([]string, 0, len(favorite.Notifications))
		for _, channel := range favorite.Notifications {
			channels = append(channels, string(channel))
		}
		message := NotificationMessage{
			Event:    eventItemCreated,
			UserID:   favorite.UserID.String(),
			ListID:   list.ID.String(),
			ItemID:   item.ID.String(),
			Title:    item.Title,
			Channels: channels,
			QueuedAt: s.clock(),
		}
		if _, err := s.notifications.PublishNotification(ctx, message); err != nil {
			s.log(ctx, "item notification publish failed", map[string]any{
				"listId": list.ID.String(),
				"userId": favorite.UserID.String(),
				"error":  err.Error(),
			})
		}
	}
}

func (s *userItems) recordAudit(ctx context.Context, actorID domain.ID, action string, ownerID domain.ID, item domain.Item) {
	if s.audit == nil {
		return
	}
	targetRef := fmt.Sprintf("/users/%s/lists/%s/items/%s", ownerID, item.ListID, item.ID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actorID.String(), action, targetRef, map[string]string{
		"title": item.Title,
	}))
}

func sortOrderFor(sort domain.ItemSort) domain.SortOrder {
	if sort == domain.ItemSortCreatedAt {
		return domain.SortDesc
	}
	return domain.SortAsc
}
