// model/block.go
package model

import "time"

type BlockKind string

const (
	BlockAsset BlockKind = "asset"
	BlockOps   BlockKind = "ops"
)

type Leg string

const (
	LegDelivery Leg = "delivery"
	LegPickup   Leg = "pickup"
)

// BookingBlock is a materialized occupied interval on one resource for one
// booking. Blocks support conflict queries and the staff calendar; the
// exclusion constraint on bookings, not the block set, is what prevents
// double-booking.
type BookingBlock struct {
	ID           int64        `json:"id"`
	BookingID    int64        `json:"booking_id"`
	ResourceKind ResourceKind `json:"resource_kind"`
	ResourceID   int64        `json:"resource_id"`
	Kind         BlockKind    `json:"block_kind"`
	Leg          *Leg         `json:"leg,omitempty"`
	Start        time.Time    `json:"start"`
	End          time.Time    `json:"end"`
}
