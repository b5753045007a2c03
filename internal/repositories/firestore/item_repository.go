package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

const itemsCollectionPattern = "users/%s/lists/%s/items"

// ItemRepository persists items underneath their list's document.
type ItemRepository struct {
	provider *pfirestore.Provider
}

// NewItemRepository constructs a Firestore backed item repository.
func NewItemRepository(provider *pfirestore.Provider) *ItemRepository {
	return &ItemRepository{provider: provider}
}

func (r *ItemRepository) Insert(ctx context.Context, ownerID domain.ID, item domain.Item) error {
	coll, err := r.collection(ctx, ownerID, item.ListID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(item.ID.String()).Create(ctx, encodeItem(item)); err != nil {
		return pfirestore.WrapError("items.insert", err)
	}
	return nil
}

func (r *ItemRepository) Update(ctx context.Context, ownerID domain.ID, item domain.Item) error {
	coll, err := r.collection(ctx, ownerID, item.ListID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(item.ID.String()).Set(ctx, encodeItem(item)); err != nil {
		return pfirestore.WrapError("items.update", err)
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, ownerID domain.ID, listID domain.ID, itemID domain.ID) error {
	coll, err := r.collection(ctx, ownerID, listID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(itemID.String()).Delete(ctx); err != nil {
		return pfirestore.WrapError("items.delete", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, ownerID domain.ID, listID domain.ID, itemID domain.ID) (domain.Item, error) {
	coll, err := r.collection(ctx, ownerID, listID)
	if err != nil {
		return domain.Item{}, err
	}
	snapshot, err := coll.Doc(itemID.String()).Get(ctx)
	if err != nil {
		return domain.Item{}, pfirestore.WrapError("items.get", err)
	}
	return decodeItemSnapshot(snapshot)
}

func (r *ItemRepository) ListByList(ctx context.Context, ownerID domain.ID, listID domain.ID, query repositories.ItemListQuery) ([]domain.Item, error) {
	coll, err := r.collection(ctx, ownerID, listID)
	if err != nil {
		return nil, err
	}

	q := coll.Query
	if !query.IncludeArchived {
		q = q.Where("archived", "==", false)
	}
	q = q.OrderBy(itemSortField(query.Sort), sortDirection(query.Order))

	return collectDocuments(ctx, q, "items.listByList", decodeItemSnapshot)
}

func (r *ItemRepository) CountByList(ctx context.Context, ownerID domain.ID, listID domain.ID) (int, error) {
	coll, err := r.collection(ctx, ownerID, listID)
	if err != nil {
		return 0, err
	}
	count, err := countDocuments(ctx, coll.Query, "items.countByList")
	return int(count), err
}

// MoveToList re-homes the item in one transaction: create under the target
// list, delete under the source. The item keeps its identifier.
func (r *ItemRepository) MoveToList(ctx context.Context, ownerID domain.ID, item domain.Item, targetListID domain.ID) (domain.Item, error) {
	source, err := r.collection(ctx, ownerID, item.ListID)
	if err != nil {
		return domain.Item{}, err
	}
	target, err := r.collection(ctx, ownerID, targetListID)
	if err != nil {
		return domain.Item{}, err
	}

	moved := item
	moved.ListID = targetListID

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(target.Doc(item.ID.String()), encodeItem(moved)); err != nil {
			return err
		}
		return tx.Delete(source.Doc(item.ID.String()))
	})
	if err != nil {
		return domain.Item{}, pfirestore.WrapError("items.moveToList", err)
	}
	return moved, nil
}

func (r *ItemRepository) collection(ctx context.Context, ownerID domain.ID, listID domain.ID) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(itemsCollectionPattern, ownerID.String(), listID.String())), nil
}

func itemSortField(sort domain.ItemSort) string {
	switch sort {
	case domain.ItemSortTitle:
		return "titleLower"
	case domain.ItemSortPreference:
		return "preferenceRank"
	default:
		return "createdAt"
	}
}

func sortDirection(order domain.SortOrder) firestore.Direction {
	if order == domain.SortDesc {
		return firestore.Desc
	}
	return firestore.Asc
}

func decodeItemSnapshot(snapshot *firestore.DocumentSnapshot) (domain.Item, error) {
	var doc itemDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Item{}, fmt.Errorf("decode item %s: %w", snapshot.Ref.ID, err)
	}
	return decodeItem(snapshot.Ref.ID, doc), nil
}
