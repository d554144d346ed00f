// service/reservation/reservation.go
package reservationsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DBnexlify/popndrop-sub001/model"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	catalogrepo "github.com/DBnexlify/popndrop-sub001/repository/catalog"
	customerrepo "github.com/DBnexlify/popndrop-sub001/repository/customer"
	notifyrepo "github.com/DBnexlify/popndrop-sub001/repository/notify"
	paymentrepo "github.com/DBnexlify/popndrop-sub001/repository/payment"
	pricingsvc "github.com/DBnexlify/popndrop-sub001/service/pricing"
	schedulesvc "github.com/DBnexlify/popndrop-sub001/service/schedule"
)

// CreateReq is the reservation request after controller-level validation.
type CreateReq struct {
	ProductID int64
	Type      model.BookingType
	SlotID    *int64
	// EventDate is the slot date for slot bookings and the delivery date
	// for day rentals.
	EventDate    time.Time
	DeliveryDate time.Time
	PickupDate   time.Time
	PromoCode    string

	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

type Created struct {
	BookingID     int64                `json:"booking_id"`
	Number        string               `json:"number"`
	Price         model.PriceBreakdown `json:"price"`
	PickupDate    time.Time            `json:"pickup_date"`
	SameDayPickup bool                 `json:"same_day_pickup"`
	PaymentLink   string               `json:"payment_link"`
	PaymentDueAt  string               `json:"payment_due_at"`
}

type Service interface {
	// Create runs the reservation pipeline: validate, resolve availability,
	// price, persist pending (exclusion-guarded), materialize blocks,
	// open a payment session. A failed payment session rolls the pending
	// booking and its blocks back so no phantom reservation survives.
	Create(ctx context.Context, req CreateReq) (*Created, error)

	// Cancel removes a pending booking and its blocks atomically, or flips
	// a confirmed booking to cancelled and drops its blocks. Idempotent.
	Cancel(ctx context.Context, bookingID int64) error
}

type service struct {
	db        *sql.DB
	bookings  bookingrepo.Repo
	blocks    blockrepo.Repo
	customers customerrepo.Repo
	catalog   catalogrepo.Repo
	schedule  schedulesvc.Service
	pricing   pricingsvc.Service
	pay       paymentrepo.Repo
	notify    notifyrepo.Notifier

	cutoff time.Duration
	hold   time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func New(db *sql.DB, bookings bookingrepo.Repo, blocks blockrepo.Repo, customers customerrepo.Repo,
	catalog catalogrepo.Repo, schedule schedulesvc.Service, pricing pricingsvc.Service,
	pay paymentrepo.Repo, notify notifyrepo.Notifier,
	cutoffHours, holdMinutes int, log *slog.Logger) Service {
	return &service{
		db:        db,
		bookings:  bookings,
		blocks:    blocks,
		customers: customers,
		catalog:   catalog,
		schedule:  schedule,
		pricing:   pricing,
		pay:       pay,
		notify:    notify,
		cutoff:    time.Duration(cutoffHours) * time.Hour,
		hold:      time.Duration(holdMinutes) * time.Minute,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateReq) (*Created, error) {
	// validating
	p, err := s.catalog.ProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "product not found")
		}
		return nil, makeErr(ErrDependency, "product lookup failed")
	}
	if !p.Active {
		return nil, makeErr(ErrNotFound, "product not found")
	}
	if err := s.validate(p, &req); err != nil {
		return nil, err
	}

	// resolving_availability
	b := &model.Booking{
		Number:    uuid.NewString(),
		ProductID: p.ID,
		Type:      req.Type,
		SlotID:    req.SlotID,
		Status:    model.BookingPending,
		EventDate: req.EventDate,
	}
	var slot *model.ProductSlot
	var resolution *schedulesvc.Resolution
	if p.Mode == model.ModeSlotBased {
		slot, err = s.resolveSlot(ctx, p, b, &req)
	} else {
		resolution, err = s.resolveDayRental(ctx, p, b, &req)
	}
	if err != nil {
		return nil, err
	}

	// The customer id goes into promo evaluation, so resolve it before
	// pricing runs.
	customer, err := s.customers.FindOrCreate(ctx, req.CustomerEmail, req.CustomerName, req.CustomerPhone)
	if err != nil {
		return nil, makeErr(ErrDependency, "customer lookup failed")
	}
	b.CustomerID = customer.ID

	// pricing
	quote, err := s.pricing.Price(ctx, p, req.Type, slot, req.PromoCode, customer.ID)
	if err != nil {
		var rej *pricingsvc.PromoRejection
		if errors.As(err, &rej) {
			return nil, makeErr(ErrValidation, rej.Error())
		}
		return nil, makeErr(ErrDependency, "pricing failed")
	}
	b.Price = quote.Breakdown
	b.PromoCode = quote.PromoCode

	due := s.now().Add(s.hold)
	b.PaymentDueAt = &due

	// persisting(pending): the exclusion constraint is the real guard; the
	// resolver's verdict above was advisory.
	if err := s.insertPending(ctx, b); err != nil {
		return nil, err
	}

	// materializing_blocks: best-effort, never fatal.
	s.materializeBlocks(ctx, b, resolution)

	// awaiting_payment
	amount := b.Price.Deposit
	if amount <= 0 {
		amount = b.Price.Total
	}
	session, err := s.pay.CreateSession(paymentrepo.CreateSessionReq{
		ExternalID:  fmt.Sprintf("booking:%s", b.Number),
		Amount:      amount,
		PayerEmail:  customer.Email,
		Description: fmt.Sprintf("%s (%s)", p.Name, b.Type),
		ExpirySec:   int(s.hold.Seconds()),
	})
	if err != nil {
		s.log.Error("payment session failed, rolling back booking", "booking_id", b.ID, "err", err)
		s.rollbackPending(ctx, b.ID)
		return nil, makeErr(ErrDependency, "payment session could not be created")
	}
	if err := s.bookings.SetPaymentSession(ctx, b.ID, session.Ref, session.RedirectURL, due); err != nil {
		// Without the ref the completion webhook can never find this
		// booking, so treat it like a failed session.
		s.log.Error("recording payment session failed, rolling back booking", "booking_id", b.ID, "err", err)
		if cErr := s.pay.CancelSession(session.Ref); cErr != nil {
			s.log.Warn("payment session cancel failed", "ref", session.Ref, "err", cErr)
		}
		s.rollbackPending(ctx, b.ID)
		return nil, makeErr(ErrDependency, "payment session could not be recorded")
	}

	s.notify.Send(ctx, notifyrepo.Event{
		Kind:          "booking_created",
		BookingID:     b.ID,
		BookingNumber: b.Number,
		CustomerEmail: customer.Email,
		Amount:        amount,
	})

	return &Created{
		BookingID:     b.ID,
		Number:        b.Number,
		Price:         b.Price,
		PickupDate:    b.PickupDate,
		SameDayPickup: b.SameDayPickup,
		PaymentLink:   session.RedirectURL,
		PaymentDueAt:  due.Format(time.RFC3339),
	}, nil
}

// validate applies the coarse global cutoff and mode/type consistency before
// any resolver runs.
func (s *service) validate(p *model.Product, req *CreateReq) error {
	switch p.Mode {
	case model.ModeSlotBased:
		if req.Type != model.TypeSlot || req.SlotID == nil {
			return makeErr(ErrValidation, "slot bookings require booking_type=slot and a slot_id")
		}
	case model.ModeDayRental:
		switch req.Type {
		case model.TypeDaily, model.TypeWeekend, model.TypeSunday:
		default:
			return makeErr(ErrValidation, "day rentals require booking_type daily, weekend or sunday")
		}
		if req.DeliveryDate.IsZero() || req.PickupDate.IsZero() {
			return makeErr(ErrValidation, "delivery and pickup dates are required")
		}
		if req.PickupDate.Before(req.DeliveryDate) {
			return makeErr(ErrValidation, "pickup date precedes delivery date")
		}
		req.EventDate = req.DeliveryDate
	}
	if req.EventDate.IsZero() {
		return makeErr(ErrValidation, "event date is required")
	}
	if cut := s.now().Add(s.cutoff); req.EventDate.Before(cut) {
		return makeErr(ErrLeadTime,
			fmt.Sprintf("bookings need %s notice; earliest bookable date is %s",
				s.cutoff, cut.Format("2006-01-02")))
	}
	return nil
}

func (s *service) resolveSlot(ctx context.Context, p *model.Product, b *model.Booking, req *CreateReq) (*model.ProductSlot, error) {
	st, err := s.schedule.SlotByID(ctx, p.ID, *req.SlotID, req.EventDate)
	if err != nil {
		if errors.Is(err, schedulesvc.ErrSlotNotFound) || errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound, "slot not found")
		}
		return nil, makeErr(ErrDependency, "slot lookup failed")
	}
	if !st.Available {
		if st.Reason == schedulesvc.ReasonTooSoon {
			msg := "slot starts too soon to book"
			if st.EarliestStart != nil {
				msg = fmt.Sprintf("slot starts too soon; earliest service start is %s",
					st.EarliestStart.Format(time.RFC3339))
			}
			return nil, makeErr(ErrLeadTime, msg)
		}
		return nil, makeErr(ErrConflict, fmt.Sprintf("slot unavailable: %s", st.Reason))
	}

	unitID, err := s.bookings.FirstFreeUnit(ctx, p.ID, st.ServiceStart, st.ServiceEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrConflict, "slot unavailable: fully booked")
		}
		return nil, makeErr(ErrDependency, "unit lookup failed")
	}

	b.UnitID = unitID
	b.DeliveryDate = req.EventDate
	b.PickupDate = req.EventDate
	b.SameDayPickup = true
	b.EventStart = st.EventStart
	b.EventEnd = st.EventEnd
	b.ServiceStart = st.ServiceStart
	b.ServiceEnd = st.ServiceEnd
	return &st.Slot, nil
}

func (s *service) resolveDayRental(ctx context.Context, p *model.Product, b *model.Booking, req *CreateReq) (*schedulesvc.Resolution, error) {
	res, err := s.schedule.ResolveDayRental(ctx, p.ID, req.DeliveryDate, req.PickupDate)
	if err != nil {
		return nil, makeErr(ErrDependency, "availability resolution failed")
	}
	if !res.Available {
		switch res.Reason {
		case schedulesvc.ReasonTooSoon:
			msg := "delivery date is too soon to book"
			if res.EarliestStart != nil {
				msg = fmt.Sprintf("delivery date is too soon; earliest service start is %s",
					res.EarliestStart.Format(time.RFC3339))
			}
			return nil, makeErr(ErrLeadTime, msg)
		default:
			msg := fmt.Sprintf("unavailable: %s", res.Reason)
			if res.NextAvailable != nil {
				msg = fmt.Sprintf("unavailable: %s; next free delivery date is %s",
					res.Reason, res.NextAvailable.Format("2006-01-02"))
			}
			return nil, makeErr(ErrConflict, msg)
		}
	}

	b.UnitID = res.UnitID
	b.DeliveryDate = res.DeliveryDate
	b.PickupDate = res.PickupDate
	b.SameDayPickup = res.SameDayPickup
	b.EventStart = res.DeliveryWindowEnd
	b.EventEnd = res.PickupWindowStart
	b.ServiceStart = res.ServiceStart
	b.ServiceEnd = res.ServiceEnd
	b.DeliveryCrewID = res.DeliveryCrewID
	b.PickupCrewID = res.PickupCrewID
	b.VehicleID = res.VehicleID
	return res, nil
}

// insertPending persists the booking row. A concurrent request that raced us
// to the same unit and overlapping interval fails right here with an
// exclusion violation, which surfaces as the same conflict kind a resolver
// miss would have produced.
func (s *service) insertPending(ctx context.Context, b *model.Booking) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return makeErr(ErrDependency, "could not start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.bookings.Insert(ctx, tx, b); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return makeErr(ErrConflict, "this date was just booked by someone else; please pick another")
		}
		return makeErr(ErrDependency, "could not persist booking")
	}
	return tx.Commit()
}

// rollbackPending deletes a pending booking and its blocks in one
// transaction. Idempotent: already-removed rows are a no-op.
func (s *service) rollbackPending(ctx context.Context, bookingID int64) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error("rollback begin failed", "booking_id", bookingID, "err", err)
		return
	}
	if err := s.blocks.DeleteForBooking(ctx, tx, bookingID); err != nil {
		s.log.Error("rollback block delete failed", "booking_id", bookingID, "err", err)
		_ = tx.Rollback()
		return
	}
	if err := s.bookings.Delete(ctx, tx, bookingID); err != nil {
		s.log.Error("rollback booking delete failed", "booking_id", bookingID, "err", err)
		_ = tx.Rollback()
		return
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("rollback commit failed", "booking_id", bookingID, "err", err)
	}
}

func (s *service) Cancel(ctx context.Context, bookingID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return makeErr(ErrDependency, "could not start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.bookings.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound, "booking not found")
		}
		return makeErr(ErrDependency, "booking lookup failed")
	}

	switch b.Status {
	case model.BookingCancelled, model.BookingExpired:
		// Already released.
		return tx.Commit()
	case model.BookingPending:
		if err = s.blocks.DeleteForBooking(ctx, tx, b.ID); err != nil {
			return makeErr(ErrDependency, "could not remove blocks")
		}
		if err = s.bookings.Delete(ctx, tx, b.ID); err != nil {
			return makeErr(ErrDependency, "could not remove booking")
		}
	default: // confirmed
		if err = s.blocks.DeleteForBooking(ctx, tx, b.ID); err != nil {
			return makeErr(ErrDependency, "could not remove blocks")
		}
		if err = s.bookings.UpdateStatus(ctx, tx, b.ID, model.BookingCancelled); err != nil {
			return makeErr(ErrDependency, "could not cancel booking")
		}
	}
	if err = tx.Commit(); err != nil {
		return makeErr(ErrDependency, "could not commit cancellation")
	}

	if b.Status == model.BookingPending && b.PaymentRef != nil {
		if cErr := s.pay.CancelSession(*b.PaymentRef); cErr != nil {
			s.log.Warn("payment session cancel failed", "ref", *b.PaymentRef, "err", cErr)
		}
	}
	s.notify.Send(ctx, notifyrepo.Event{
		Kind:          "booking_cancelled",
		BookingID:     b.ID,
		BookingNumber: b.Number,
	})
	return nil
}
