// service/payment/payment.go
package paymentsvc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DBnexlify/popndrop-sub001/model"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	notifyrepo "github.com/DBnexlify/popndrop-sub001/repository/notify"
	paymentrepo "github.com/DBnexlify/popndrop-sub001/repository/payment"
)

var ErrBadSignature = errors.New("bad webhook signature")

type Service interface {
	// HandleCallback processes a payment-provider webhook. PAID confirms
	// the pending booking; EXPIRED releases it. Replays and unknown events
	// are acknowledged without effect.
	HandleCallback(ctx context.Context, sigHeader string, raw []byte) error
}

type service struct {
	db       *sql.DB
	pay      paymentrepo.Repo
	bookings bookingrepo.Repo
	blocks   blockrepo.Repo
	notify   notifyrepo.Notifier
	log      *slog.Logger
}

func New(db *sql.DB, pay paymentrepo.Repo, bookings bookingrepo.Repo, blocks blockrepo.Repo,
	notify notifyrepo.Notifier, log *slog.Logger) Service {
	return &service{db: db, pay: pay, bookings: bookings, blocks: blocks, notify: notify, log: log}
}

type sessionEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *service) HandleCallback(ctx context.Context, sigHeader string, raw []byte) error {
	if err := s.pay.VerifyCallbackSignature(sigHeader, raw); err != nil {
		return ErrBadSignature
	}

	var ev sessionEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("bad webhook json: %w", err)
	}
	if ev.ID == "" || ev.Status == "" {
		return errors.New("missing session fields")
	}

	switch ev.Status {
	case "PAID":
		return s.onPaid(ctx, ev.ID)
	case "EXPIRED":
		return s.onExpired(ctx, ev.ID)
	default:
		return nil
	}
}

func (s *service) onPaid(ctx context.Context, ref string) (err error) {
	b, err := s.bookings.FindByPaymentRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A ref we never issued, or a booking rolled back before the
			// provider settled. Log loudly; nothing to confirm.
			s.log.Error("paid session maps to no booking", "ref", ref)
			return nil
		}
		return err
	}
	if b.Status == model.BookingConfirmed {
		// Replay.
		return nil
	}
	if b.Status != model.BookingPending {
		s.log.Warn("paid session for non-pending booking", "ref", ref, "booking_id", b.ID, "status", b.Status)
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.bookings.UpdateStatus(ctx, tx, b.ID, model.BookingConfirmed); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.notify.Send(ctx, notifyrepo.Event{
		Kind:          "booking_confirmed",
		BookingID:     b.ID,
		BookingNumber: b.Number,
		Amount:        b.Price.Deposit,
	})
	return nil
}

func (s *service) onExpired(ctx context.Context, ref string) (err error) {
	b, err := s.bookings.FindByPaymentRef(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if b.Status != model.BookingPending {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.blocks.DeleteForBooking(ctx, tx, b.ID); err != nil {
		return err
	}
	if err = s.bookings.UpdateStatus(ctx, tx, b.ID, model.BookingExpired); err != nil {
		return err
	}
	return tx.Commit()
}
