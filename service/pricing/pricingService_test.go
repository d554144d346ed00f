// service/pricing/pricing_service_test.go
package pricingsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DBnexlify/popndrop-sub001/model"
	promorepo "github.com/DBnexlify/popndrop-sub001/repository/promo"
)

type promoMock struct {
	evaluateFn func(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error)
}

var _ promorepo.Repo = (*promoMock)(nil)

func (m *promoMock) Evaluate(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error) {
	return m.evaluateFn(ctx, req)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func product() *model.Product {
	return &model.Product{ID: 1, PriceDaily: 200, PriceWeekend: 350, PriceSunday: 260}
}

func TestPrice_BaseByType(t *testing.T) {
	s := New(nil, 0.25, discard())
	ctx := context.Background()

	cases := []struct {
		typ  model.BookingType
		slot *model.ProductSlot
		want float64
	}{
		{model.TypeDaily, nil, 200},
		{model.TypeWeekend, nil, 350},
		{model.TypeSunday, nil, 260},
		{model.TypeSlot, &model.ProductSlot{Price: 120}, 120},
	}
	for _, c := range cases {
		q, err := s.Price(ctx, product(), c.typ, c.slot, "", 0)
		require.NoError(t, err, "type %s", c.typ)
		require.Equal(t, c.want, q.Breakdown.Base, "type %s", c.typ)
	}
}

func TestPrice_SlotWithoutSlot(t *testing.T) {
	s := New(nil, 0.25, discard())
	_, err := s.Price(context.Background(), product(), model.TypeSlot, nil, "", 0)
	require.Error(t, err)
}

func TestPrice_DepositSplit(t *testing.T) {
	s := New(nil, 0.25, discard())

	q, err := s.Price(context.Background(), product(), model.TypeDaily, nil, "", 0)
	require.NoError(t, err)
	require.Equal(t, 200.0, q.Breakdown.Total)
	require.Equal(t, 50.0, q.Breakdown.Deposit)
	require.Equal(t, 150.0, q.Breakdown.Balance)
	require.Nil(t, q.PromoCode)
}

func TestPrice_PromoApplied(t *testing.T) {
	m := &promoMock{
		evaluateFn: func(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error) {
			require.Equal(t, "SUMMER10", req.Code)
			require.Equal(t, 200.0, req.OrderAmount)
			return &promorepo.EvalResult{Valid: true, Discount: 20}, nil
		},
	}
	s := New(m, 0.25, discard())

	q, err := s.Price(context.Background(), product(), model.TypeDaily, nil, "SUMMER10", 42)
	require.NoError(t, err)
	require.Equal(t, 20.0, q.Breakdown.Discount)
	require.Equal(t, 180.0, q.Breakdown.Total)
	require.Equal(t, 45.0, q.Breakdown.Deposit)
	require.Equal(t, 135.0, q.Breakdown.Balance)
	require.NotNil(t, q.PromoCode)
	require.Equal(t, "SUMMER10", *q.PromoCode)
}

func TestPrice_DiscountCappedAtBase(t *testing.T) {
	m := &promoMock{
		evaluateFn: func(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error) {
			return &promorepo.EvalResult{Valid: true, Discount: 10000}, nil
		},
	}
	s := New(m, 0.25, discard())

	q, err := s.Price(context.Background(), product(), model.TypeDaily, nil, "FREE", 42)
	require.NoError(t, err)
	require.Equal(t, 200.0, q.Breakdown.Discount)
	require.Equal(t, 0.0, q.Breakdown.Total)
}

func TestPrice_PromoRejected(t *testing.T) {
	m := &promoMock{
		evaluateFn: func(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error) {
			return &promorepo.EvalResult{Valid: false, Reason: "expired"}, nil
		},
	}
	s := New(m, 0.25, discard())

	_, err := s.Price(context.Background(), product(), model.TypeDaily, nil, "OLD", 42)
	require.ErrorIs(t, err, ErrPromoRejected)

	var rej *PromoRejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, "expired", rej.Reason)
}

func TestPrice_EvaluatorDown(t *testing.T) {
	m := &promoMock{
		evaluateFn: func(ctx context.Context, req promorepo.EvalReq) (*promorepo.EvalResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	s := New(m, 0.25, discard())

	_, err := s.Price(context.Background(), product(), model.TypeDaily, nil, "X", 42)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrPromoRejected))
}
