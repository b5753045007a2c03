package domain

import "time"

// ReservationStatus describes the lifecycle state of a reservation.
// The state machine is active → deleted; deleted is terminal.
type ReservationStatus string

const (
	// ReservationActive is the only live state of a reservation.
	ReservationActive ReservationStatus = "active"
	// ReservationDeleted marks a released reservation.
	ReservationDeleted ReservationStatus = "deleted"
)

// Reservation marks an item as taken by a holder. An item has at most
// one active reservation at any time; the storage layer enforces this
// with a uniqueness constraint on the item reference.
type Reservation struct {
	ID     ID
	ItemID ID
	// ListOwnerID locates the containing list, which is stored
	// underneath its owner.
	ListOwnerID ID
	ListID      ID
	Status      ReservationStatus
	Holder      Identification
	CreatedAt   time.Time
}

// HeldBy reports whether the reservation belongs to the given holder.
func (r *Reservation) HeldBy(holder Identification) bool {
	return !r.Holder.IsZero() && r.Holder == holder
}
