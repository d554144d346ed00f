// model/booking.go
package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

type BookingType string

const (
	TypeDaily   BookingType = "daily"
	TypeWeekend BookingType = "weekend"
	TypeSunday  BookingType = "sunday"
	TypeSlot    BookingType = "slot"
)

type PriceBreakdown struct {
	Base     float64 `json:"base"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
	Deposit  float64 `json:"deposit"`
	Balance  float64 `json:"balance"`
}

// Booking is the reservation record. Product timing parameters are snapshotted
// onto the service window at creation, so later product edits never move an
// existing reservation. The [ServiceStart, ServiceEnd) interval on a unit is
// guarded by the bookings_unit_service_period_excl exclusion constraint.
type Booking struct {
	ID         int64         `json:"id"`
	Number     string        `json:"number"`
	CustomerID int64         `json:"customer_id"`
	ProductID  int64         `json:"product_id"`
	UnitID     int64         `json:"unit_id"`
	Type       BookingType   `json:"booking_type"`
	SlotID     *int64        `json:"slot_id,omitempty"`
	Status     BookingStatus `json:"status"`

	EventDate    time.Time `json:"event_date"`
	DeliveryDate time.Time `json:"delivery_date"`
	PickupDate   time.Time `json:"pickup_date"`
	EventStart   time.Time `json:"event_start"`
	EventEnd     time.Time `json:"event_end"`
	ServiceStart time.Time `json:"service_start"`
	ServiceEnd   time.Time `json:"service_end"`

	SameDayPickup bool `json:"same_day_pickup"`

	Price     PriceBreakdown `json:"price"`
	PromoCode *string        `json:"promo_code,omitempty"`

	DeliveryCrewID *int64 `json:"delivery_crew_id,omitempty"`
	PickupCrewID   *int64 `json:"pickup_crew_id,omitempty"`
	VehicleID      *int64 `json:"vehicle_id,omitempty"`

	PaymentRef   *string    `json:"payment_ref,omitempty"`
	PaymentLink  *string    `json:"payment_link,omitempty"`
	PaymentDueAt *time.Time `json:"payment_due_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
