// service/catalog/catalog.go
package catalogsvc

import (
	"context"

	"github.com/DBnexlify/popndrop-sub001/model"
	catalogrepo "github.com/DBnexlify/popndrop-sub001/repository/catalog"
)

type ProductSummary = catalogrepo.ProductSummary

// ProductDetail is a product with its slot definitions, when slot based.
type ProductDetail struct {
	Product model.Product       `json:"product"`
	Slots   []model.ProductSlot `json:"slots,omitempty"`
}

type Service interface {
	List(ctx context.Context) ([]ProductSummary, error)
	BySlug(ctx context.Context, slug string) (*ProductDetail, error)
}

type service struct{ r catalogrepo.Repo }

func New(r catalogrepo.Repo) Service { return &service{r: r} }

func (s *service) List(ctx context.Context) ([]ProductSummary, error) { return s.r.List(ctx) }

func (s *service) BySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	p, err := s.r.ProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	d := &ProductDetail{Product: *p}
	if p.Mode == model.ModeSlotBased {
		slots, err := s.r.SlotsByProduct(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		d.Slots = slots
	}
	return d, nil
}
