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
	auditActionListCreate = "list.create"
	auditActionListUpdate = "list.update"
	auditActionListDelete = "list.delete"
)

// UserListsDeps bundles the dependencies required to construct a user lists service instance.
type UserListsDeps struct {
	Lists        repositories.ListRepository
	Items        repositories.ItemRepository
	Reservations repositories.ReservationRepository
	UnitOfWork   repositories.UnitOfWork
	ImageStore   ImageStoreProvider
	Audit        AuditLogService
	Quotas       Quotas
	Sanitize     Sanitizer
	Clock        func() time.Time
	Log          Logger
}

type userLists struct {
	lists        repositories.ListRepository
	items        repositories.ItemRepository
	reservations repositories.ReservationRepository
	uow          repositories.UnitOfWork
	imageStore   ImageStoreProvider
	audit        AuditLogService
	quotas       Quotas
	sanitize     Sanitizer
	clock        func() time.Time
	log          Logger
}

// NewUserLists wires dependencies into a concrete UserLists implementation.
func NewUserLists(deps UserListsDeps) (UserLists, error) {
	if deps.Lists == nil {
		return nil, errors.New("user lists: list repository is required")
	}
	if deps.Items == nil {
		return nil, errors.New("user lists: item repository is required")
	}
	if deps.Reservations == nil {
		return nil, errors.New("user lists: reservation repository is required")
	}

	quotas := deps.Quotas
	if quotas.MaxListsPerUser <= 0 {
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

	return &userLists{
		lists:        deps.Lists,
		items:        deps.Items,
		reservations: deps.Reservations,
		uow:          deps.UnitOfWork,
		imageStore:   deps.ImageStore,
		audit:        deps.Audit,
		quotas:       quotas,
		sanitize:     sanitize,
		clock: func() time.Time {
			return clock().UTC()
		},
		log: log,
	}, nil
}

func (s *userLists) CreateList(ctx context.Context, spec CreateListSpecification) (ListResult, error) {
	if !spec.Subject.Authenticated() {
		return ListResult{}, ErrAuthenticationRequired
	}
	owner := *spec.Subject.User

	if err := spec.Values.Validate(); err != nil {
		return ListResult{}, invalidValues("list", err)
	}

	count, err := s.lists.CountByOwner(ctx, owner.ID)
	if err != nil {
		return ListResult{}, err
	}
	if count >= s.quotas.MaxListsPerUser {
		return ListResult{}, LimitReachedError{Maximum: s.quotas.MaxListsPerUser}
	}

	title := s.sanitize(strings.TrimSpace(spec.Values.Title))
	taken, err := s.lists.ExistsWithTitle(ctx, owner.ID, title, "")
	if err != nil {
		return ListResult{}, err
	}
	if taken {
		return ListResult{}, ErrUniquenessViolated
	}

	visibility, _ := domain.ParseVisibility(spec.Values.Visibility)
	now := s.clock()
	list := domain.List{
		ID:         domain.NewID(),
		OwnerID:    owner.ID,
		Title:      title,
		Visibility: visibility,
		Options:    spec.Values.Options,
		ItemSort:   itemSortOrDefault(spec.Values.ItemSort),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.lists.Insert(ctx, list); err != nil {
		if isConflict(err) {
			return ListResult{}, ErrUniquenessViolated
		}
		return ListResult{}, err
	}

	s.recordAudit(ctx, owner.ID, auditActionListCreate, list)

	return newListResult(list, 0), nil
}

func (s *userLists) UpdateList(ctx context.Context, spec UpdateListSpecification) (ListResult, error) {
	auth, err := s.resolveOwned(ctx, spec.Subject, spec.ListID)
	if err != nil {
		return ListResult{}, err
	}
	list := auth.Entity

	if err := spec.Values.Validate(); err != nil {
		return ListResult{}, invalidValues("list", err)
	}

	title := s.sanitize(strings.TrimSpace(spec.Values.Title))
	if title != list.Title {
		taken, err := s.lists.ExistsWithTitle(ctx, list.OwnerID, title, list.ID)
		if err != nil {
			return ListResult{}, err
		}
		if taken {
			return ListResult{}, ErrUniquenessViolated
		}
	}

	visibility, _ := domain.ParseVisibility(spec.Values.Visibility)
	list.Title = title
	list.Visibility = visibility
	list.Options = spec.Values.Options
	if spec.Values.ItemSort != nil {
		list.ItemSort = itemSortOrDefault(spec.Values.ItemSort)
	}
	list.UpdatedAt = s.clock()

	if err := s.lists.Update(ctx, list); err != nil {
		if isConflict(err) {
			return ListResult{}, ErrUniquenessViolated
		}
		return ListResult{}, err
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionListUpdate, list)

	count, err := s.items.CountByList(ctx, list.OwnerID, list.ID)
	if err != nil {
		return ListResult{}, err
	}
	return newListResult(list, count), nil
}

func (s *userLists) DeleteList(ctx context.Context, spec DeleteListSpecification) error {
	auth, err := s.resolveOwned(ctx, spec.Subject, spec.ListID)
	if err != nil {
		return err
	}
	list := auth.Entity

	remove := func(ctx context.Context) error {
		items, err := s.items.ListByList(ctx, list.OwnerID, list.ID, repositories.ItemListQuery{IncludeArchived: true})
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.reservations.Delete(ctx, item.ID); err != nil && !isNotFound(err) {
				return err
			}
			if err := s.items.Delete(ctx, list.OwnerID, list.ID, item.ID); err != nil {
				return err
			}
		}
		return s.lists.Delete(ctx, list.OwnerID, list.ID)
	}
	if s.uow != nil {
		err = s.uow.RunInTx(ctx, remove)
	} else {
		err = remove(ctx)
	}
	if err != nil {
		return err
	}

	if s.imageStore != nil {
		if err := s.imageStore.DeleteListImages(ctx, list.OwnerID, list.ID); err != nil {
			s.log(ctx, "list image cleanup failed", map[string]any{
				"listId": list.ID.String(),
				"error":  err.Error(),
			})
		}
	}

	s.recordAudit(ctx, auth.Owner.ID, auditActionListDelete, list)
	return nil
}

func (s *userLists) GetList(ctx context.Context, spec GetListSpecification) (ListResult, error) {
	auth, err := s.resolveOwned(ctx, spec.Subject, spec.ListID)
	if err != nil {
		return ListResult{}, err
	}
	count, err := s.items.CountByList(ctx, auth.Entity.OwnerID, auth.Entity.ID)
	if err != nil {
		return ListResult{}, err
	}
	return newListResult(auth.Entity, count), nil
}

func (s *userLists) GetLists(ctx context.Context, spec GetListsSpecification) ([]ListResult, error) {
	if !spec.Subject.Authenticated() {
		return nil, ErrAuthenticationRequired
	}
	owner := *spec.Subject.User

	lists, err := s.lists.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	results := make([]ListResult, 0, len(lists))
	for _, list := range lists {
		count, err := s.items.CountByList(ctx, owner.ID, list.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, newListResult(list, count))
	}
	return results, nil
}

// resolveOwned loads the list and proves the subject owns it.
func (s *userLists) resolveOwned(ctx context.Context, subject Subject, listID domain.ID) (Authorization[domain.List], error) {
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

func (s *userLists) recordAudit(ctx context.Context, actorID domain.ID, action string, list domain.List) {
	if s.audit == nil {
		return
	}
	targetRef := fmt.Sprintf("/users/%s/lists/%s", list.OwnerID, list.ID)
	s.audit.Record(ctx, NewRecordAuditSpecification(actorID.String(), action, targetRef, map[string]string{
		"title": list.Title,
	}))
}

func itemSortOrDefault(raw *string) domain.ItemSort {
	if raw == nil {
		return domain.ItemSortCreatedAt
	}
	switch domain.ItemSort(strings.TrimSpace(*raw)) {
	case domain.ItemSortTitle:
		return domain.ItemSortTitle
	case domain.ItemSortPreference:
		return domain.ItemSortPreference
	default:
		return domain.ItemSortCreatedAt
	}
}
