// repository/booking/repo.go
package bookingrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
)

type Repo interface {
	// Insert persists a pending booking. The
	// bookings_unit_service_period_excl constraint decides races: when two
	// requests claim the same unit for overlapping service periods, the
	// second insert fails with an exclusion violation surfaced unchanged to
	// the service layer.
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error

	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	Get(ctx context.Context, id int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
	SetPaymentSession(ctx context.Context, id int64, ref, link string, due time.Time) error
	FindByPaymentRef(ctx context.Context, ref string) (*model.Booking, error)

	// Advisory availability reads.
	AnyUnitFree(ctx context.Context, productID int64, from, to time.Time) (bool, error)
	FirstFreeUnit(ctx context.Context, productID int64, from, to time.Time) (int64, error)
	SharedEveningBusy(ctx context.Context, excludeProductID int64, from, to time.Time) (bool, error)

	// ExpireDue flips pending bookings past their payment deadline to
	// expired and drops their blocks, returning how many were released.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `
	INSERT INTO bookings (
		number, customer_id, product_id, unit_id, booking_type, slot_id, status,
		event_date, delivery_date, pickup_date, event_start, event_end,
		service_period, same_day_pickup,
		price_base, price_discount, price_total, price_deposit, price_balance,
		promo_code, delivery_crew_id, pickup_crew_id, vehicle_id, payment_due_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,
		tstzrange($13,$14,'[)'),$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q,
		b.Number, b.CustomerID, b.ProductID, b.UnitID, b.Type, b.SlotID, b.Status,
		b.EventDate, b.DeliveryDate, b.PickupDate, b.EventStart, b.EventEnd,
		b.ServiceStart, b.ServiceEnd, b.SameDayPickup,
		b.Price.Base, b.Price.Discount, b.Price.Total, b.Price.Deposit, b.Price.Balance,
		b.PromoCode, b.DeliveryCrewID, b.PickupCrewID, b.VehicleID, b.PaymentDueAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

const bookingCols = `
	id, number, customer_id, product_id, unit_id, booking_type, slot_id, status,
	event_date, delivery_date, pickup_date, event_start, event_end,
	lower(service_period), upper(service_period), same_day_pickup,
	price_base, price_discount, price_total, price_deposit, price_balance,
	promo_code, delivery_crew_id, pickup_crew_id, vehicle_id,
	payment_ref, payment_link, payment_due_at, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID, &b.Number, &b.CustomerID, &b.ProductID, &b.UnitID, &b.Type, &b.SlotID, &b.Status,
		&b.EventDate, &b.DeliveryDate, &b.PickupDate, &b.EventStart, &b.EventEnd,
		&b.ServiceStart, &b.ServiceEnd, &b.SameDayPickup,
		&b.Price.Base, &b.Price.Discount, &b.Price.Total, &b.Price.Deposit, &b.Price.Balance,
		&b.PromoCode, &b.DeliveryCrewID, &b.PickupCrewID, &b.VehicleID,
		&b.PaymentRef, &b.PaymentLink, &b.PaymentDueAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=$1 FOR UPDATE`, id))
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id=$1`, id))
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	const q = `
	UPDATE bookings
	SET status=$2, updated_at=now()
	WHERE id=$1`
	_, err := tx.ExecContext(ctx, q, id, status)
	return err
}

func (r *repo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	// booking_blocks go with it via ON DELETE CASCADE.
	_, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	return err
}

func (r *repo) SetPaymentSession(ctx context.Context, id int64, ref, link string, due time.Time) error {
	const q = `
	UPDATE bookings
	SET payment_ref=$2, payment_link=$3, payment_due_at=$4, updated_at=now()
	WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, ref, link, due)
	return err
}

func (r *repo) FindByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE payment_ref=$1`, ref))
}

func (r *repo) AnyUnitFree(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
	_, err := r.FirstFreeUnit(ctx, productID, from, to)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repo) FirstFreeUnit(ctx context.Context, productID int64, from, to time.Time) (int64, error) {
	const q = `
	SELECT u.id
	FROM units u
	WHERE u.product_id=$1
	  AND u.status='available'
	  AND NOT EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.unit_id=u.id
		  AND b.status IN ('pending','confirmed')
		  AND b.service_period && tstzrange($2,$3,'[)'))
	ORDER BY u.id
	LIMIT 1`
	var id int64
	err := r.db.QueryRowContext(ctx, q, productID, from, to).Scan(&id)
	return id, err
}

func (r *repo) SharedEveningBusy(ctx context.Context, excludeProductID int64, from, to time.Time) (bool, error) {
	// Any other product occupying shared resources in the evening window
	// makes same-day pickup impossible.
	const q = `
	SELECT EXISTS (
		SELECT 1 FROM resource_usage
		WHERE product_id <> $1
		  AND period && tstzrange($2,$3,'[)'))`
	var busy bool
	err := r.db.QueryRowContext(ctx, q, excludeProductID, from, to).Scan(&busy)
	return busy, err
}

func (r *repo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
	WITH expired AS (
		UPDATE bookings
		SET status='expired', updated_at=now()
		WHERE status='pending'
		  AND payment_due_at IS NOT NULL
		  AND payment_due_at < $1
		RETURNING id
	), dropped AS (
		DELETE FROM booking_blocks
		WHERE booking_id IN (SELECT id FROM expired)
	)
	SELECT COUNT(*) FROM expired`
	var n int64
	err := r.db.QueryRowContext(ctx, q, now).Scan(&n)
	return n, err
}
