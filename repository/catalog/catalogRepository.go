// repository/catalog/repo.go
package catalogrepo

import (
	"context"
	"database/sql"

	"github.com/DBnexlify/popndrop-sub001/model"
)

// ProductSummary is the public catalog row: a product with how many of its
// units are currently in rentable status.
type ProductSummary struct {
	ID           int64                `json:"id"`
	Slug         string               `json:"slug"`
	Name         string               `json:"name"`
	Mode         model.SchedulingMode `json:"mode"`
	PriceDaily   float64              `json:"price_daily"`
	PriceWeekend float64              `json:"price_weekend"`
	PriceSunday  float64              `json:"price_sunday"`
	UnitCount    int64                `json:"unit_count"`
}

type Repo interface {
	List(ctx context.Context) ([]ProductSummary, error)
	ProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	SlotsByProduct(ctx context.Context, productID int64) ([]model.ProductSlot, error)
	SlotByID(ctx context.Context, slotID int64) (*model.ProductSlot, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) List(ctx context.Context) ([]ProductSummary, error) {
	const q = `
	SELECT p.id, p.slug, p.name, p.mode, p.price_daily, p.price_weekend, p.price_sunday,
		COALESCE(COUNT(u.*) FILTER (WHERE u.status='available'),0)::BIGINT AS unit_count
	FROM products p
	LEFT JOIN units u ON u.product_id=p.id
	WHERE p.active
	GROUP BY p.id
	ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductSummary
	for rows.Next() {
		var p ProductSummary
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Mode,
			&p.PriceDaily, &p.PriceWeekend, &p.PriceSunday, &p.UnitCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const productCols = `
	id, slug, name, mode, price_daily, price_weekend, price_sunday,
	setup_min, teardown_min, travel_min, cleaning_min, open_min, close_min, active`

func (r *repo) scanProduct(row *sql.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Mode,
		&p.PriceDaily, &p.PriceWeekend, &p.PriceSunday,
		&p.SetupMin, &p.TeardownMin, &p.TravelMin, &p.CleaningMin,
		&p.OpenMin, &p.CloseMin, &p.Active)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repo) ProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE slug=$1`, slug))
}

func (r *repo) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return r.scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *repo) SlotsByProduct(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
	const q = `
	SELECT id, product_id, label, event_start, event_end, price, sort_order
	FROM product_slots
	WHERE product_id=$1
	ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProductSlot
	for rows.Next() {
		var s model.ProductSlot
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Label, &s.EventStart, &s.EventEnd, &s.Price, &s.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repo) SlotByID(ctx context.Context, slotID int64) (*model.ProductSlot, error) {
	const q = `
	SELECT id, product_id, label, event_start, event_end, price, sort_order
	FROM product_slots
	WHERE id=$1`
	s := &model.ProductSlot{}
	err := r.db.QueryRowContext(ctx, q, slotID).
		Scan(&s.ID, &s.ProductID, &s.Label, &s.EventStart, &s.EventEnd, &s.Price, &s.SortOrder)
	if err != nil {
		return nil, err
	}
	return s, nil
}
