// service/schedule/dayrental.go
package schedulesvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
)

// How far ahead the resolver scans for an alternative delivery date after a
// "no unit" verdict.
const alternativeScanDays = 14

func (s *service) ResolveDayRental(ctx context.Context, productID int64, deliveryDate, pickupDate time.Time) (*Resolution, error) {
	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Mode != model.ModeDayRental {
		return nil, ErrWrongMode
	}

	res := &Resolution{
		DeliveryDate:  deliveryDate,
		PickupDate:    pickupDate,
		SameDayPickup: sameDay(deliveryDate, pickupDate),
	}

	open := atMin(deliveryDate, p.OpenMin)
	res.ServiceStart = open.Add(-time.Duration(p.LeadBufferMin()) * time.Minute)

	if earliest := s.earliestBookable(); res.ServiceStart.Before(earliest) {
		res.Reason = ReasonTooSoon
		res.EarliestStart = &earliest
		return res, nil
	}

	// Cross-product check: another product holding shared resources on the
	// delivery evening pushes the pickup to the following day. Distinct from
	// the per-unit scan below.
	if res.SameDayPickup {
		evFrom := atMin(deliveryDate, s.eveningStartMin)
		evTo := atMin(deliveryDate, p.CloseMin)
		busy, err := s.bookings.SharedEveningBusy(ctx, p.ID, evFrom, evTo)
		if err != nil {
			return nil, err
		}
		if busy {
			res.PickupDate = pickupDate.AddDate(0, 0, 1)
			res.SameDayPickup = false
		}
	}

	res.ServiceEnd = atMin(res.PickupDate, p.CloseMin).
		Add(time.Duration(p.TrailBufferMin()) * time.Minute)

	unitID, err := s.bookings.FirstFreeUnit(ctx, productID, res.ServiceStart, res.ServiceEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			res.Reason = ReasonNoUnit
			res.NextAvailable = s.scanAlternative(ctx, p, deliveryDate, res.PickupDate)
			return res, nil
		}
		return nil, err
	}
	res.UnitID = unitID
	res.Available = true

	// Leg windows: delivery runs from service start to the opening hour,
	// pickup from closing hour to service end.
	res.DeliveryWindowStart = res.ServiceStart
	res.DeliveryWindowEnd = open
	res.PickupWindowStart = atMin(res.PickupDate, p.CloseMin)
	res.PickupWindowEnd = res.ServiceEnd

	s.assignOps(ctx, res)
	return res, nil
}

// assignOps picks a crew per leg and a vehicle covering both legs. Assignment
// is best-effort optimization metadata: a booking proceeds without ops
// resources, so failures here only log.
func (s *service) assignOps(ctx context.Context, res *Resolution) {
	res.DeliveryCrewID = s.pickResource(ctx, model.ResourceCrew, res.DeliveryWindowStart, res.DeliveryWindowEnd, nil)
	res.PickupCrewID = s.pickResource(ctx, model.ResourceCrew, res.PickupWindowStart, res.PickupWindowEnd, nil)

	// The vehicle serves both legs, so it must be free for each window.
	res.VehicleID = s.pickResource(ctx, model.ResourceVehicle, res.DeliveryWindowStart, res.DeliveryWindowEnd,
		func(id int64) bool {
			busy, err := s.blocks.ResourceBusy(ctx, model.ResourceVehicle, id, res.PickupWindowStart, res.PickupWindowEnd)
			if err != nil {
				s.log.Warn("vehicle pickup-leg check failed", "resource_id", id, "err", err)
				return false
			}
			return !busy
		})
}

// pickResource returns the first active resource of kind whose working hours
// cover [from, to) and that has no overlapping ops block, or nil.
func (s *service) pickResource(ctx context.Context, kind model.ResourceKind, from, to time.Time, extra func(int64) bool) *int64 {
	candidates, err := s.registry.ActiveByKind(ctx, kind, from.Weekday())
	if err != nil {
		s.log.Warn("resource lookup failed", "kind", kind, "err", err)
		return nil
	}
	for _, c := range candidates {
		if !c.CoversWindow(from, to) {
			continue
		}
		busy, err := s.blocks.ResourceBusy(ctx, kind, c.ID, from, to)
		if err != nil {
			s.log.Warn("resource busy check failed", "kind", kind, "resource_id", c.ID, "err", err)
			continue
		}
		if busy {
			continue
		}
		if extra != nil && !extra(c.ID) {
			continue
		}
		id := c.ID
		return &id
	}
	return nil
}

// scanAlternative looks for the earliest delivery date with a free unit over
// the same span length. Best-effort: scan errors just end the scan.
func (s *service) scanAlternative(ctx context.Context, p *model.Product, deliveryDate, pickupDate time.Time) *time.Time {
	span := pickupDate.Sub(deliveryDate)
	for i := 1; i <= alternativeScanDays; i++ {
		d := deliveryDate.AddDate(0, 0, i)
		from := atMin(d, p.OpenMin).Add(-time.Duration(p.LeadBufferMin()) * time.Minute)
		to := atMin(d.Add(span), p.CloseMin).Add(time.Duration(p.TrailBufferMin()) * time.Minute)
		free, err := s.bookings.AnyUnitFree(ctx, p.ID, from, to)
		if err != nil {
			s.log.Warn("alternative scan failed", "product_id", p.ID, "err", err)
			return nil
		}
		if free {
			return &d
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
