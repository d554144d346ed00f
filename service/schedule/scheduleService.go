// service/schedule/schedule.go
package schedulesvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	catalogrepo "github.com/DBnexlify/popndrop-sub001/repository/catalog"
	registryrepo "github.com/DBnexlify/popndrop-sub001/repository/registry"
)

// Unavailability reasons. Both resolvers report availability as a tagged
// outcome instead of an error: only infrastructure failures surface as errors,
// and every in-process availability verdict is advisory anyway; the insert-time
// exclusion constraint has the final word.
const (
	ReasonTooSoon     = "too soon"
	ReasonFullyBooked = "fully booked"
	ReasonNoUnit      = "no unit"
)

var (
	ErrWrongMode    = errors.New("product does not support this scheduling mode")
	ErrSlotNotFound = errors.New("slot not found")
)

// SlotStatus describes one enumerated slot on a date.
type SlotStatus struct {
	Slot         model.ProductSlot `json:"slot"`
	EventStart   time.Time         `json:"event_start"`
	EventEnd     time.Time         `json:"event_end"`
	ServiceStart time.Time         `json:"service_start"`
	ServiceEnd   time.Time         `json:"service_end"`
	Available    bool              `json:"available"`
	Reason       string            `json:"reason,omitempty"`
	// Earliest service start that satisfies the lead-time rule, set with
	// reason "too soon".
	EarliestStart *time.Time `json:"earliest_start,omitempty"`
}

// Resolution is the day-rental resolver outcome.
type Resolution struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`

	UnitID       int64     `json:"unit_id,omitempty"`
	DeliveryDate time.Time `json:"delivery_date"`
	PickupDate   time.Time `json:"pickup_date"`
	// False when another product's evening use of shared resources forced
	// the pickup to the following day.
	SameDayPickup bool `json:"same_day_pickup"`

	ServiceStart time.Time `json:"service_start"`
	ServiceEnd   time.Time `json:"service_end"`

	DeliveryWindowStart time.Time `json:"delivery_window_start"`
	DeliveryWindowEnd   time.Time `json:"delivery_window_end"`
	PickupWindowStart   time.Time `json:"pickup_window_start"`
	PickupWindowEnd     time.Time `json:"pickup_window_end"`

	// Best-effort ops assignments; a nil crew never blocks the booking.
	DeliveryCrewID *int64 `json:"delivery_crew_id,omitempty"`
	PickupCrewID   *int64 `json:"pickup_crew_id,omitempty"`
	VehicleID      *int64 `json:"vehicle_id,omitempty"`

	// Earliest delivery date that looked free when the requested one was not.
	NextAvailable *time.Time `json:"next_available,omitempty"`
	// Earliest service start that satisfies the lead-time rule, set with
	// reason "too soon".
	EarliestStart *time.Time `json:"earliest_start,omitempty"`
}

type Service interface {
	// Slots enumerates the bookable slots of a slot_based product on date,
	// in configured display order, each tagged available or unavailable.
	Slots(ctx context.Context, productID int64, date time.Time) ([]SlotStatus, error)

	// SlotByID resolves a single slot's window and availability on date.
	SlotByID(ctx context.Context, productID, slotID int64, date time.Time) (*SlotStatus, error)

	// ResolveDayRental finds a unit and best-effort ops resources for a
	// delivery→pickup span of a day_rental product.
	ResolveDayRental(ctx context.Context, productID int64, deliveryDate, pickupDate time.Time) (*Resolution, error)
}

type service struct {
	catalog  catalogrepo.Repo
	registry registryrepo.Repo
	bookings bookingrepo.Repo
	blocks   blockrepo.Repo

	leadTime        time.Duration
	eveningStartMin int
	log             *slog.Logger
	now             func() time.Time
}

func New(catalog catalogrepo.Repo, registry registryrepo.Repo, bookings bookingrepo.Repo, blocks blockrepo.Repo,
	leadTimeHours, eveningStartMin int, log *slog.Logger) Service {
	return &service{
		catalog:         catalog,
		registry:        registry,
		bookings:        bookings,
		blocks:          blocks,
		leadTime:        time.Duration(leadTimeHours) * time.Hour,
		eveningStartMin: eveningStartMin,
		log:             log,
		now:             time.Now,
	}
}

// atMin returns date's midnight plus m minutes, in date's location.
func atMin(date time.Time, m int) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(time.Duration(m) * time.Minute)
}

func (s *service) earliestBookable() time.Time { return s.now().Add(s.leadTime) }
