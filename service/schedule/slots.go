// service/schedule/slots.go
package schedulesvc

import (
	"context"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
)

func (s *service) Slots(ctx context.Context, productID int64, date time.Time) ([]SlotStatus, error) {
	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Mode != model.ModeSlotBased {
		return nil, ErrWrongMode
	}

	defs, err := s.catalog.SlotsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	out := make([]SlotStatus, 0, len(defs))
	for _, def := range defs {
		st, err := s.slotStatus(ctx, p, def, date)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, nil
}

func (s *service) SlotByID(ctx context.Context, productID, slotID int64, date time.Time) (*SlotStatus, error) {
	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Mode != model.ModeSlotBased {
		return nil, ErrWrongMode
	}
	def, err := s.catalog.SlotByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if def.ProductID != productID {
		return nil, ErrSlotNotFound
	}
	return s.slotStatus(ctx, p, *def, date)
}

// slotStatus tags one slot definition on date. Unavailable slots keep their
// place in the list with a reason, so callers can explain instead of silently
// dropping them.
func (s *service) slotStatus(ctx context.Context, p *model.Product, def model.ProductSlot, date time.Time) (*SlotStatus, error) {
	serviceStart, serviceEnd := def.ServiceWindow(p, date)
	st := &SlotStatus{
		Slot:         def,
		EventStart:   atMin(date, def.EventStart),
		EventEnd:     atMin(date, def.EventEnd),
		ServiceStart: serviceStart,
		ServiceEnd:   serviceEnd,
	}

	if earliest := s.earliestBookable(); serviceStart.Before(earliest) {
		st.Reason = ReasonTooSoon
		st.EarliestStart = &earliest
		return st, nil
	}

	free, err := s.bookings.AnyUnitFree(ctx, p.ID, serviceStart, serviceEnd)
	if err != nil {
		return nil, err
	}
	if !free {
		st.Reason = ReasonFullyBooked
		return st, nil
	}

	st.Available = true
	return st, nil
}
