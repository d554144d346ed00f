// repository/block/repo.go
package blockrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
)

// UsageRow is one occupied interval from the resource_usage view, shaped for
// the staff calendar.
type UsageRow struct {
	ResourceKind  model.ResourceKind `json:"resource_kind"`
	ResourceID    int64              `json:"resource_id"`
	BlockKind     model.BlockKind    `json:"block_kind"`
	Leg           *model.Leg         `json:"leg,omitempty"`
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	BookingID     int64              `json:"booking_id"`
	BookingNumber string             `json:"booking_number"`
	ProductID     int64              `json:"product_id"`
	Status        string             `json:"status"`
}

type Repo interface {
	InsertAsset(ctx context.Context, bookingID, unitID int64, from, to time.Time) error
	InsertOps(ctx context.Context, bookingID int64, kind model.ResourceKind, resourceID int64, leg model.Leg, from, to time.Time) error
	DeleteForBooking(ctx context.Context, tx *sql.Tx, bookingID int64) error
	ResourceBusy(ctx context.Context, kind model.ResourceKind, resourceID int64, from, to time.Time) (bool, error)
	Calendar(ctx context.Context, from, to time.Time) ([]UsageRow, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) InsertAsset(ctx context.Context, bookingID, unitID int64, from, to time.Time) error {
	const q = `
	INSERT INTO booking_blocks (booking_id, resource_kind, resource_id, block_kind, period)
	VALUES ($1,'unit',$2,'asset',tstzrange($3,$4,'[)'))`
	_, err := r.db.ExecContext(ctx, q, bookingID, unitID, from, to)
	return err
}

func (r *repo) InsertOps(ctx context.Context, bookingID int64, kind model.ResourceKind, resourceID int64, leg model.Leg, from, to time.Time) error {
	const q = `
	INSERT INTO booking_blocks (booking_id, resource_kind, resource_id, block_kind, leg, period)
	VALUES ($1,$2,$3,'ops',$4,tstzrange($5,$6,'[)'))`
	_, err := r.db.ExecContext(ctx, q, bookingID, kind, resourceID, leg, from, to)
	return err
}

func (r *repo) DeleteForBooking(ctx context.Context, tx *sql.Tx, bookingID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM booking_blocks WHERE booking_id=$1`, bookingID)
	return err
}

func (r *repo) ResourceBusy(ctx context.Context, kind model.ResourceKind, resourceID int64, from, to time.Time) (bool, error) {
	const q = `
	SELECT EXISTS (
		SELECT 1 FROM resource_usage
		WHERE resource_kind=$1
		  AND resource_id=$2
		  AND period && tstzrange($3,$4,'[)'))`
	var busy bool
	err := r.db.QueryRowContext(ctx, q, kind, resourceID, from, to).Scan(&busy)
	return busy, err
}

func (r *repo) Calendar(ctx context.Context, from, to time.Time) ([]UsageRow, error) {
	const q = `
	SELECT resource_kind, resource_id, block_kind, leg,
	       lower(period), upper(period),
	       booking_id, booking_number, product_id, status
	FROM resource_usage
	WHERE period && tstzrange($1,$2,'[)')
	ORDER BY lower(period), resource_kind, resource_id`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.ResourceKind, &u.ResourceID, &u.BlockKind, &u.Leg,
			&u.Start, &u.End, &u.BookingID, &u.BookingNumber, &u.ProductID, &u.Status); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
