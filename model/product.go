// model/product.go
package model

import "time"

type SchedulingMode string

const (
	ModeDayRental SchedulingMode = "day_rental"
	ModeSlotBased SchedulingMode = "slot_based"
)

type Product struct {
	ID           int64          `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Mode         SchedulingMode `json:"mode"`
	PriceDaily   float64        `json:"price_daily"`
	PriceWeekend float64        `json:"price_weekend"`
	PriceSunday  float64        `json:"price_sunday"`
	SetupMin     int            `json:"setup_min"`
	TeardownMin  int            `json:"teardown_min"`
	TravelMin    int            `json:"travel_min"`
	CleaningMin  int            `json:"cleaning_min"`
	// Working day boundaries, minutes from midnight.
	OpenMin  int  `json:"open_min"`
	CloseMin int  `json:"close_min"`
	Active   bool `json:"active"`
}

// LeadBufferMin is the pre-event portion of the service window.
func (p *Product) LeadBufferMin() int { return p.TravelMin + p.SetupMin }

// TrailBufferMin is the post-event portion of the service window.
func (p *Product) TrailBufferMin() int { return p.TeardownMin + p.TravelMin + p.CleaningMin }

// ProductSlot is a fixed bookable time-of-day slot for slot_based products.
// EventStart/EventEnd are minutes from midnight.
type ProductSlot struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Label      string  `json:"label"`
	EventStart int     `json:"event_start"`
	EventEnd   int     `json:"event_end"`
	Price      float64 `json:"price"`
	SortOrder  int     `json:"sort_order"`
}

// ServiceWindow expands the slot's event window on date by the product buffers.
func (s *ProductSlot) ServiceWindow(p *Product, date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.Add(time.Duration(s.EventStart-p.LeadBufferMin()) * time.Minute)
	end := day.Add(time.Duration(s.EventEnd+p.TrailBufferMin()) * time.Minute)
	return start, end
}
