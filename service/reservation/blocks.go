// service/reservation/blocks.go
package reservationsvc

import (
	"context"

	"github.com/DBnexlify/popndrop-sub001/model"
	schedulesvc "github.com/DBnexlify/popndrop-sub001/service/schedule"
)

// materializeBlocks writes the asset block for the unit and, when ops
// resources were assigned, one ops block per leg. Blocks only exist to make
// conflict queries cheap and to feed the staff calendar; the booking row's
// exclusion constraint already holds, so a failure here is logged and the
// reservation stands.
func (s *service) materializeBlocks(ctx context.Context, b *model.Booking, res *schedulesvc.Resolution) {
	if b.ID == 0 {
		// Blocks must reference a persisted booking row.
		s.log.Error("refusing blocks for unsaved booking",
			"err", makeErr(ErrIntegrity, "booking has no id"), "number", b.Number)
		return
	}
	if err := s.blocks.InsertAsset(ctx, b.ID, b.UnitID, b.ServiceStart, b.ServiceEnd); err != nil {
		s.log.Error("asset block failed", "booking_id", b.ID, "unit_id", b.UnitID, "err", err)
	}
	if res == nil {
		return
	}

	if b.DeliveryCrewID != nil {
		if err := s.blocks.InsertOps(ctx, b.ID, model.ResourceCrew, *b.DeliveryCrewID,
			model.LegDelivery, res.DeliveryWindowStart, res.DeliveryWindowEnd); err != nil {
			s.log.Error("delivery crew block failed", "booking_id", b.ID, "crew_id", *b.DeliveryCrewID, "err", err)
		}
	}
	if b.PickupCrewID != nil {
		if err := s.blocks.InsertOps(ctx, b.ID, model.ResourceCrew, *b.PickupCrewID,
			model.LegPickup, res.PickupWindowStart, res.PickupWindowEnd); err != nil {
			s.log.Error("pickup crew block failed", "booking_id", b.ID, "crew_id", *b.PickupCrewID, "err", err)
		}
	}
	if b.VehicleID != nil {
		if err := s.blocks.InsertOps(ctx, b.ID, model.ResourceVehicle, *b.VehicleID,
			model.LegDelivery, res.DeliveryWindowStart, res.DeliveryWindowEnd); err != nil {
			s.log.Error("vehicle delivery block failed", "booking_id", b.ID, "vehicle_id", *b.VehicleID, "err", err)
		}
		if err := s.blocks.InsertOps(ctx, b.ID, model.ResourceVehicle, *b.VehicleID,
			model.LegPickup, res.PickupWindowStart, res.PickupWindowEnd); err != nil {
			s.log.Error("vehicle pickup block failed", "booking_id", b.ID, "vehicle_id", *b.VehicleID, "err", err)
		}
	}
}
