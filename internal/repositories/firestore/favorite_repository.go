package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const (
	favoritesCollectionPattern = "users/%s/favorites"
	favoritesCollectionGroup   = "favorites"
)

// FavoriteRepository persists favorites underneath their user, keyed by
// the favored list. Keying by list id makes Create conflict when the same
// list is favored twice.
type FavoriteRepository struct {
	provider *pfirestore.Provider
}

// NewFavoriteRepository constructs a Firestore backed favorite repository.
func NewFavoriteRepository(provider *pfirestore.Provider) *FavoriteRepository {
	return &FavoriteRepository{provider: provider}
}

func (r *FavoriteRepository) Insert(ctx context.Context, favorite domain.Favorite) error {
	coll, err := r.collection(ctx, favorite.UserID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(favorite.ListID.String()).Create(ctx, encodeFavorite(favorite)); err != nil {
		return pfirestore.WrapError("favorites.insert", err)
	}
	return nil
}

func (r *FavoriteRepository) Update(ctx context.Context, favorite domain.Favorite) error {
	coll, err := r.collection(ctx, favorite.UserID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(favorite.ListID.String()).Set(ctx, encodeFavorite(favorite)); err != nil {
		return pfirestore.WrapError("favorites.update", err)
	}
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID domain.ID, favoriteID domain.ID) error {
	favorite, err := r.FindByID(ctx, userID, favoriteID)
	if err != nil {
		return err
	}
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(favorite.ListID.String()).Delete(ctx); err != nil {
		return pfirestore.WrapError("favorites.delete", err)
	}
	return nil
}

func (r *FavoriteRepository) FindByID(ctx context.Context, userID domain.ID, favoriteID domain.ID) (domain.Favorite, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Favorite{}, err
	}
	query := coll.Where("favoriteId", "==", favoriteID.String())
	return firstDocument(ctx, query, "favorites.findByID", decodeFavoriteSnapshot)
}

func (r *FavoriteRepository) FindByList(ctx context.Context, userID domain.ID, listID domain.ID) (domain.Favorite, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Favorite{}, err
	}
	snapshot, err := coll.Doc(listID.String()).Get(ctx)
	if err != nil {
		return domain.Favorite{}, pfirestore.WrapError("favorites.findByList", err)
	}
	return decodeFavoriteSnapshot(snapshot)
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID domain.ID) ([]domain.Favorite, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}
	query := coll.OrderBy("createdAt", firestore.Desc)
	return collectDocuments(ctx, query, "favorites.listByUser", decodeFavoriteSnapshot)
}

func (r *FavoriteRepository) CountByUser(ctx context.Context, userID domain.ID) (int, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return 0, err
	}
	count, err := countDocuments(ctx, coll.Query, "favorites.countByUser")
	return int(count), err
}

// ListSubscribers fans out over all users via a collection group query.
func (r *FavoriteRepository) ListSubscribers(ctx context.Context, listID domain.ID) ([]domain.Favorite, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	query := client.CollectionGroup(favoritesCollectionGroup).Where("listId", "==", listID.String())
	return collectDocuments(ctx, query, "favorites.listSubscribers", decodeFavoriteSnapshot)
}

func (r *FavoriteRepository) collection(ctx context.Context, userID domain.ID) (*firestore.CollectionRef, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(favoritesCollectionPattern, userID.String())), nil
}

func decodeFavoriteSnapshot(snapshot *firestore.DocumentSnapshot) (domain.Favorite, error) {
	var doc favoriteDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Favorite{}, fmt.Errorf("decode favorite %s: %w", snapshot.Ref.ID, err)
	}
	return decodeFavorite(doc), nil
}
