package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const reservationsCollection = "reservations"

// ReservationRepository persists reservations keyed by the reserved item.
// Using the item id as document id makes document existence the uniqueness
// constraint for one active reservation per item: Create on a taken item
// fails with AlreadyExists.
type ReservationRepository struct {
	provider     *pfirestore.Provider
	reservations *pfirestore.BaseRepository[reservationDocument]
}

// NewReservationRepository constructs a Firestore backed reservation repository.
func NewReservationRepository(provider *pfirestore.Provider) *ReservationRepository {
	return &ReservationRepository{
		provider:     provider,
		reservations: pfirestore.NewBaseRepository[reservationDocument](provider, reservationsCollection, nil, nil),
	}
}

func (r *ReservationRepository) Insert(ctx context.Context, reservation domain.Reservation) error {
	_, err := r.reservations.Create(ctx, reservation.ItemID.String(), encodeReservation(reservation))
	return err
}

func (r *ReservationRepository) Delete(ctx context.Context, itemID domain.ID) error {
	return r.reservations.Delete(ctx, itemID.String())
}

func (r *ReservationRepository) FindByID(ctx context.Context, reservationID domain.ID) (domain.Reservation, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Reservation{}, err
	}
	query := client.Collection(reservationsCollection).Where("reservationId", "==", reservationID.String())
	return firstDocument(ctx, query, "reservations.findByID", decodeReservationSnapshot)
}

func (r *ReservationRepository) FindByItem(ctx context.Context, itemID domain.ID) (domain.Reservation, error) {
	doc, err := r.reservations.Get(ctx, itemID.String())
	if err != nil {
		return domain.Reservation{}, err
	}
	return decodeReservation(doc.Data), nil
}

func (r *ReservationRepository) ListByList(ctx context.Context, listID domain.ID) ([]domain.Reservation, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	query := client.Collection(reservationsCollection).Where("listId", "==", listID.String())
	return collectDocuments(ctx, query, "reservations.listByList", decodeReservationSnapshot)
}

func (r *ReservationRepository) ListByHolder(ctx context.Context, holder domain.Identification) ([]domain.Reservation, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	query := client.Collection(reservationsCollection).Where("holder", "==", holder.String())
	return collectDocuments(ctx, query, "reservations.listByHolder", decodeReservationSnapshot)
}

// Transfer re-assigns every reservation held under from to to. A bulk
// writer keeps the update count bounded regardless of how many
// reservations a guest accumulated.
func (r *ReservationRepository) Transfer(ctx context.Context, from domain.Identification, to domain.Identification) (int, error) {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	query := client.Collection(reservationsCollection).Where("holder", "==", from.String())
	snapshots, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, pfirestore.WrapError("reservations.transfer", err)
	}
	if len(snapshots) == 0 {
		return 0, nil
	}

	writer := client.BulkWriter(ctx)
	for _, snapshot := range snapshots {
		if _, err := writer.Update(snapshot.Ref, []firestore.Update{
			{Path: "holder", Value: to.String()},
		}); err != nil {
			writer.End()
			return 0, pfirestore.WrapError("reservations.transfer", err)
		}
	}
	writer.End()
	return len(snapshots), nil
}

func decodeReservationSnapshot(snapshot *firestore.DocumentSnapshot) (domain.Reservation, error) {
	var doc reservationDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Reservation{}, fmt.Errorf("decode reservation %s: %w", snapshot.Ref.ID, err)
	}
	return decodeReservation(doc), nil
}
