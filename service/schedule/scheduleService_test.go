// service/schedule/schedule_service_test.go
package schedulesvc

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DBnexlify/popndrop-sub001/model"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	catalogrepo "github.com/DBnexlify/popndrop-sub001/repository/catalog"
	registryrepo "github.com/DBnexlify/popndrop-sub001/repository/registry"
)

type catalogMock struct {
	productByIDFn    func(ctx context.Context, id int64) (*model.Product, error)
	slotsByProductFn func(ctx context.Context, productID int64) ([]model.ProductSlot, error)
	slotByIDFn       func(ctx context.Context, slotID int64) (*model.ProductSlot, error)
}

var _ catalogrepo.Repo = (*catalogMock)(nil)

func (m *catalogMock) List(ctx context.Context) ([]catalogrepo.ProductSummary, error) {
	return nil, nil
}
func (m *catalogMock) ProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return nil, sql.ErrNoRows
}
func (m *catalogMock) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return m.productByIDFn(ctx, id)
}
func (m *catalogMock) SlotsByProduct(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
	return m.slotsByProductFn(ctx, productID)
}
func (m *catalogMock) SlotByID(ctx context.Context, slotID int64) (*model.ProductSlot, error) {
	return m.slotByIDFn(ctx, slotID)
}

type bookingMock struct {
	anyUnitFreeFn       func(ctx context.Context, productID int64, from, to time.Time) (bool, error)
	firstFreeUnitFn     func(ctx context.Context, productID int64, from, to time.Time) (int64, error)
	sharedEveningBusyFn func(ctx context.Context, excludeProductID int64, from, to time.Time) (bool, error)
}

var _ bookingrepo.Repo = (*bookingMock)(nil)

func (m *bookingMock) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) error { return nil }
func (m *bookingMock) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return nil, sql.ErrNoRows
}
func (m *bookingMock) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return nil, sql.ErrNoRows
}
func (m *bookingMock) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	return nil
}
func (m *bookingMock) Delete(ctx context.Context, tx *sql.Tx, id int64) error { return nil }
func (m *bookingMock) SetPaymentSession(ctx context.Context, id int64, ref, link string, due time.Time) error {
	return nil
}
func (m *bookingMock) FindByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	return nil, sql.ErrNoRows
}
func (m *bookingMock) AnyUnitFree(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
	return m.anyUnitFreeFn(ctx, productID, from, to)
}
func (m *bookingMock) FirstFreeUnit(ctx context.Context, productID int64, from, to time.Time) (int64, error) {
	return m.firstFreeUnitFn(ctx, productID, from, to)
}
func (m *bookingMock) SharedEveningBusy(ctx context.Context, excludeProductID int64, from, to time.Time) (bool, error) {
	if m.sharedEveningBusyFn == nil {
		return false, nil
	}
	return m.sharedEveningBusyFn(ctx, excludeProductID, from, to)
}
func (m *bookingMock) ExpireDue(ctx context.Context, now time.Time) (int64, error) { return 0, nil }

type registryMock struct {
	activeByKindFn func(ctx context.Context, kind model.ResourceKind, weekday time.Weekday) ([]model.OpsResource, error)
}

var _ registryrepo.Repo = (*registryMock)(nil)

func (m *registryMock) ActiveByKind(ctx context.Context, kind model.ResourceKind, weekday time.Weekday) ([]model.OpsResource, error) {
	if m.activeByKindFn == nil {
		return nil, nil
	}
	return m.activeByKindFn(ctx, kind, weekday)
}

type blockMock struct {
	resourceBusyFn func(ctx context.Context, kind model.ResourceKind, resourceID int64, from, to time.Time) (bool, error)
}

var _ blockrepo.Repo = (*blockMock)(nil)

func (m *blockMock) InsertAsset(ctx context.Context, bookingID, unitID int64, from, to time.Time) error {
	return nil
}
func (m *blockMock) InsertOps(ctx context.Context, bookingID int64, kind model.ResourceKind, resourceID int64, leg model.Leg, from, to time.Time) error {
	return nil
}
func (m *blockMock) DeleteForBooking(ctx context.Context, tx *sql.Tx, bookingID int64) error {
	return nil
}
func (m *blockMock) ResourceBusy(ctx context.Context, kind model.ResourceKind, resourceID int64, from, to time.Time) (bool, error) {
	if m.resourceBusyFn == nil {
		return false, nil
	}
	return m.resourceBusyFn(ctx, kind, resourceID, from, to)
}
func (m *blockMock) Calendar(ctx context.Context, from, to time.Time) ([]blockrepo.UsageRow, error) {
	return nil, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestService pins the clock so lead-time math is deterministic.
func newTestService(cat *catalogMock, reg *registryMock, book *bookingMock, blk *blockMock, clock time.Time) *service {
	s := New(cat, reg, book, blk, 48, 1020, discard()).(*service)
	s.now = func() time.Time { return clock }
	return s
}

func slotProduct() *model.Product {
	return &model.Product{
		ID:       1,
		Slug:     "party-castle",
		Mode:     model.ModeSlotBased,
		SetupMin: 45, TeardownMin: 30, TravelMin: 30, CleaningMin: 15,
		OpenMin: 480, CloseMin: 1260,
	}
}

func dayProduct() *model.Product {
	return &model.Product{
		ID:       2,
		Slug:     "mega-slide",
		Mode:     model.ModeDayRental,
		SetupMin: 60, TeardownMin: 45, TravelMin: 30, CleaningMin: 15,
		OpenMin: 540, CloseMin: 1080,
	}
}

// --- slot enumeration ---

func TestSlots_WrongMode(t *testing.T) {
	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return dayProduct(), nil
		},
	}
	s := newTestService(cat, &registryMock{}, &bookingMock{}, &blockMock{}, time.Now())

	_, err := s.Slots(context.Background(), 2, time.Now())
	require.ErrorIs(t, err, ErrWrongMode)
}

func TestSlots_KeepsConfiguredOrderAndTagsReasons(t *testing.T) {
	loc := time.UTC
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, loc)
	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)

	defs := []model.ProductSlot{
		{ID: 11, ProductID: 1, Label: "morning", EventStart: 540, EventEnd: 780, SortOrder: 1},
		{ID: 12, ProductID: 1, Label: "afternoon", EventStart: 840, EventEnd: 1080, SortOrder: 2},
	}

	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return slotProduct(), nil
		},
		slotsByProductFn: func(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
			return defs, nil
		},
	}
	book := &bookingMock{
		anyUnitFreeFn: func(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
			// Only the afternoon slot has a free unit.
			return from.Hour() >= 12, nil
		},
	}
	s := newTestService(cat, &registryMock{}, book, &blockMock{}, clock)

	out, err := s.Slots(context.Background(), 1, date)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Equal(t, int64(11), out[0].Slot.ID)
	require.False(t, out[0].Available)
	require.Equal(t, ReasonFullyBooked, out[0].Reason)

	require.Equal(t, int64(12), out[1].Slot.ID)
	require.True(t, out[1].Available)
	require.Empty(t, out[1].Reason)
}

func TestSlots_ServiceWindowOverlapBlocks(t *testing.T) {
	// Event 09:00-13:00 with 75min lead and 75min trail buffers makes the
	// service window 07:45-14:15; a unit busy 06:00-13:00 overlaps it even
	// though the events themselves do not touch.
	loc := time.UTC
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, loc)
	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)

	busyFrom := time.Date(2026, 6, 10, 6, 0, 0, 0, loc)
	busyTo := time.Date(2026, 6, 10, 13, 0, 0, 0, loc)

	defs := []model.ProductSlot{
		{ID: 21, ProductID: 1, Label: "morning", EventStart: 540, EventEnd: 780},
		{ID: 22, ProductID: 1, Label: "evening", EventStart: 900, EventEnd: 1140},
	}

	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return slotProduct(), nil
		},
		slotsByProductFn: func(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
			return defs, nil
		},
	}
	book := &bookingMock{
		anyUnitFreeFn: func(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
			overlaps := from.Before(busyTo) && busyFrom.Before(to)
			return !overlaps, nil
		},
	}
	s := newTestService(cat, &registryMock{}, book, &blockMock{}, clock)

	out, err := s.Slots(context.Background(), 1, date)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Equal(t, ReasonFullyBooked, out[0].Reason)
	require.True(t, out[1].Available, "15:00 slot's service window clears the busy period")
}

func TestSlots_TooSoon(t *testing.T) {
	loc := time.UTC
	clock := time.Date(2026, 6, 9, 12, 0, 0, 0, loc)
	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)

	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return slotProduct(), nil
		},
		slotsByProductFn: func(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
			return []model.ProductSlot{{ID: 31, ProductID: 1, EventStart: 540, EventEnd: 780}}, nil
		},
	}
	book := &bookingMock{
		anyUnitFreeFn: func(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
			t.Fatal("availability must not be checked once lead time fails")
			return false, nil
		},
	}
	s := newTestService(cat, &registryMock{}, book, &blockMock{}, clock)

	out, err := s.Slots(context.Background(), 1, date)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.False(t, out[0].Available)
	require.Equal(t, ReasonTooSoon, out[0].Reason)
	require.NotNil(t, out[0].EarliestStart)
	require.Equal(t, clock.Add(48*time.Hour), *out[0].EarliestStart)
}

func TestSlots_Deterministic(t *testing.T) {
	loc := time.UTC
	clock := time.Date(2026, 6, 1, 12, 0, 0, 0, loc)
	date := time.Date(2026, 6, 10, 0, 0, 0, 0, loc)

	defs := []model.ProductSlot{
		{ID: 41, ProductID: 1, Label: "morning", EventStart: 540, EventEnd: 780, SortOrder: 1},
		{ID: 42, ProductID: 1, Label: "afternoon", EventStart: 840, EventEnd: 1080, SortOrder: 2},
		{ID: 43, ProductID: 1, Label: "evening", EventStart: 1080, EventEnd: 1260, SortOrder: 3},
	}

	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return slotProduct(), nil
		},
		slotsByProductFn: func(ctx context.Context, productID int64) ([]model.ProductSlot, error) {
			return defs, nil
		},
	}
	book := &bookingMock{
		anyUnitFreeFn: func(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
			return from.Hour() >= 12, nil
		},
	}
	s := newTestService(cat, &registryMock{}, book, &blockMock{}, clock)

	first, err := s.Slots(context.Background(), 1, date)
	require.NoError(t, err)
	second, err := s.Slots(context.Background(), 1, date)
	require.NoError(t, err)
	require.Equal(t, first, second, "identical inputs and no new bookings must enumerate identically")
}

func TestSlotByID_ProductMismatch(t *testing.T) {
	cat := &catalogMock{
		productByIDFn: func(ctx context.Context, id int64) (*model.Product, error) {
			return slotProduct(), nil
		},
		slotByIDFn: func(ctx context.Context, slotID int64) (*model.ProductSlot, error) {
			return &model.ProductSlot{ID: slotID, ProductID: 99}, nil
		},
	}
	s := newTestService(cat, &registryMock{}, &bookingMock{}, &blockMock{}, time.Now())

	_, err := s.SlotByID(context.Background(), 1, 5, time.Now())
	require.ErrorIs(t, err, ErrSlotNotFound)
}
