package firestore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const listsCollectionPattern = "users/%s/lists"

// ListRepository persists wishlists underneath their owner's document.
type ListRepository struct {
	provider *pfirestore.Provider
}

// NewListRepository constructs a Firestore backed list repository.
func NewListRepository(provider *pfirestore.Provider) *ListRepository {
	return &ListRepository{provider: provider}
}

func (r *ListRepository) Insert(ctx context.Context, list domain.List) error {
	coll, err := r.collection(ctx, list.OwnerID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(list.ID.String()).Create(ctx, encodeList(list)); err != nil {
		return pfirestore.WrapError("lists.insert", err)
	}
	return nil
}

func (r *ListRepository) Update(ctx context.Context, list domain.List) error {
	coll, err := r.collection(ctx, list.OwnerID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(list.ID.String()).Set(ctx, encodeList(list)); err != nil {
		return pfirestore.WrapError("lists.update", err)
	}
	return nil
}

func (r *ListRepository) Delete(ctx context.Context, ownerID domain.ID, listID domain.ID) error {
	coll, err := r.collection(ctx, ownerID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(listID.String()).Delete(ctx); err != nil {
		return pfirestore.WrapError("lists.delete", err)
	}
	return nil
}

func (r *ListRepository) FindByID(ctx context.Context, ownerID domain.ID, listID domain.ID) (domain.List, error) {
	coll, err := r.collection(ctx, ownerID)
	if err != nil {
		return domain.List{}, err
	}
	snapshot, err := coll.Doc(listID.String()).Get(ctx)
	if err != nil {
		return domain.List{}, pfirestore.WrapError("lists.get", err)
	}
	return decodeListSnapshot(snapshot)
}

func (r *ListRepository) ListByOwner(ctx context.Context, ownerID domain.ID) ([]domain.List, error) {
	coll, err := r.collection(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	query := coll.OrderBy("createdAt", firestore.Desc)
	return collectDocuments(ctx, query, "lists.listByOwner", decodeListSnapshot)
}

func (r *ListRepository) CountByOwner(ctx context.Context, ownerID domain.ID) (int, error) {
	coll, err := r.collection(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	count, err := countDocuments(ctx, coll.Query, "lists.countByOwner")
	return int(count), err
}

// ExistsWithTitle matches on the lowercased title so the uniqueness check
// is case-insensitive.
func (r *ListRepository) ExistsWithTitle(ctx context.Context, ownerID domain.ID, title string, excludeID domain.ID) (bool, error) {
	coll, err := r.collection(ctx, ownerID)
	if err != nil {
		return false, err
	}
	query := coll.Where("titleLower", "==", strings.ToLower(strings.TrimSpace(title)))
	lists, err := collectDocuments(ctx, query, "lists.existsWithTitle", decodeListSnapshot)
	if err != nil {
		return false, err
	}
	for _, list := range lists {
		if list.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ListRepository) collection(ctx context.Context, ownerID domain.ID) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(listsCollectionPattern, ownerID.String())), nil
}

func decodeListSnapshot(snapshot *firestore.DocumentSnapshot) (domain.List, error) {
	var doc listDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.List{}, fmt.Errorf("decode list %s: %w", snapshot.Ref.ID, err)
	}
	return decodeList(snapshot.Ref.ID, doc), nil
}
