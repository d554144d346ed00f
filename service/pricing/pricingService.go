// service/pricing/pricing.go
package pricingsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/DBnexlify/popndrop-sub001/model"
	promorepo "github.com/DBnexlify/popndrop-sub001/repository/promo"
)

var ErrPromoRejected = errors.New("promo code rejected")

// PromoRejection carries the evaluator's reason alongside ErrPromoRejected.
type PromoRejection struct{ Reason string }

func (e *PromoRejection) Error() string { return fmt.Sprintf("promo code rejected: %s", e.Reason) }
func (e *PromoRejection) Unwrap() error { return ErrPromoRejected }

type Quote struct {
	Breakdown model.PriceBreakdown
	PromoCode *string
}

type Service interface {
	// Price computes the booking price: base rate for the booking type (or
	// slot price), optional promo discount, and the deposit/balance split.
	Price(ctx context.Context, p *model.Product, bookingType model.BookingType, slot *model.ProductSlot,
		promoCode string, customerID int64) (*Quote, error)
}

type service struct {
	promo       promorepo.Repo
	depositRate float64
	log         *slog.Logger
}

func New(promo promorepo.Repo, depositRate float64, log *slog.Logger) Service {
	return &service{promo: promo, depositRate: depositRate, log: log}
}

func (s *service) Price(ctx context.Context, p *model.Product, bookingType model.BookingType, slot *model.ProductSlot,
	promoCode string, customerID int64) (*Quote, error) {

	base, err := basePrice(p, bookingType, slot)
	if err != nil {
		return nil, err
	}

	q := &Quote{Breakdown: model.PriceBreakdown{Base: base}}

	if promoCode != "" {
		if s.promo == nil {
			return nil, &PromoRejection{Reason: "promo codes are not enabled"}
		}
		res, err := s.promo.Evaluate(ctx, promorepo.EvalReq{
			Code:        promoCode,
			CustomerID:  customerID,
			ProductID:   p.ID,
			OrderAmount: base,
		})
		if err != nil {
			return nil, fmt.Errorf("promo evaluator: %w", err)
		}
		if !res.Valid {
			return nil, &PromoRejection{Reason: res.Reason}
		}
		q.Breakdown.Discount = math.Min(res.Discount, base)
		q.PromoCode = &promoCode
	}

	q.Breakdown.Total = round2(q.Breakdown.Base - q.Breakdown.Discount)
	q.Breakdown.Deposit = round2(q.Breakdown.Total * s.depositRate)
	q.Breakdown.Balance = round2(q.Breakdown.Total - q.Breakdown.Deposit)
	return q, nil
}

func basePrice(p *model.Product, bookingType model.BookingType, slot *model.ProductSlot) (float64, error) {
	switch bookingType {
	case model.TypeDaily:
		return p.PriceDaily, nil
	case model.TypeWeekend:
		return p.PriceWeekend, nil
	case model.TypeSunday:
		return p.PriceSunday, nil
	case model.TypeSlot:
		if slot == nil {
			return 0, errors.New("slot booking without slot")
		}
		return slot.Price, nil
	default:
		return 0, fmt.Errorf("unknown booking type %q", bookingType)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
