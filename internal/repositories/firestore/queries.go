package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"

	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

// countDocuments runs a server-side count aggregation over the query.
func countDocuments(ctx context.Context, query firestore.Query, op string) (int64, error) {
	results, err := query.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, pfirestore.WrapError(op, err)
	}
	value, ok := results["count"]
	if !ok {
		return 0, pfirestore.WrapError(op, errors.New("firestore: count aggregation missing"))
	}
	typed, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, pfirestore.WrapError(op, errors.New("firestore: unexpected count aggregation type"))
	}
	return typed.GetIntegerValue(), nil
}

// collectDocuments drains the query into decoded values.
func collectDocuments[T any](ctx context.Context, query firestore.Query, op string, decode func(snap *firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var values []T
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError(op, err)
		}
		value, err := decode(snapshot)
		if err != nil {
			return nil, pfirestore.WrapError(op, err)
		}
		values = append(values, value)
	}
	return values, nil
}

// firstDocument returns the first match of the query or a not-found error.
func firstDocument[T any](ctx context.Context, query firestore.Query, op string, decode func(snap *firestore.DocumentSnapshot) (T, error)) (T, error) {
	var zero T
	values, err := collectDocuments(ctx, query.Limit(1), op, decode)
	if err != nil {
		return zero, err
	}
	if len(values) == 0 {
		return zero, pfirestore.NewNotFound(op, errors.New("firestore: no matching document"))
	}
	return values[0], nil
}
