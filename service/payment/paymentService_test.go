// service/payment/payment_service_test.go
package paymentsvc

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DBnexlify/popndrop-sub001/model"
	blockrepo "github.com/DBnexlify/popndrop-sub001/repository/block"
	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
	notifyrepo "github.com/DBnexlify/popndrop-sub001/repository/notify"
	paymentrepo "github.com/DBnexlify/popndrop-sub001/repository/payment"
)

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConn struct{}

func (fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (fakeConn) Close() error                        { return nil }
func (fakeConn) Begin() (driver.Tx, error)           { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

func init() { sql.Register("paymentfake", fakeDriver{}) }

func fakeDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("paymentfake", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type payMock struct {
	verifyFn func(sigHeader string, rawBody []byte) error
}

var _ paymentrepo.Repo = (*payMock)(nil)

func (m *payMock) CreateSession(req paymentrepo.CreateSessionReq) (*paymentrepo.Session, error) {
	return nil, errors.New("not used")
}
func (m *payMock) CancelSession(ref string) error { return nil }
func (m *payMock) VerifyCallbackSignature(sigHeader string, rawBody []byte) error {
	if m.verifyFn == nil {
		return nil
	}
	return m.verifyFn(sigHeader, rawBody)
}

type bookingMock struct {
	findByRefFn    func(ctx context.Context, ref string) (*model.Booking, error)
	updateStatusFn func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
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
	if m.updateStatusFn == nil {
		return nil
	}
	return m.updateStatusFn(ctx, tx, id, status)
}
func (m *bookingMock) Delete(ctx context.Context, tx *sql.Tx, id int64) error { return nil }
func (m *bookingMock) SetPaymentSession(ctx context.Context, id int64, ref, link string, due time.Time) error {
	return nil
}
func (m *bookingMock) FindByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
	return m.findByRefFn(ctx, ref)
}
func (m *bookingMock) AnyUnitFree(ctx context.Context, productID int64, from, to time.Time) (bool, error) {
	return true, nil
}
func (m *bookingMock) FirstFreeUnit(ctx context.Context, productID int64, from, to time.Time) (int64, error) {
	return 0, sql.ErrNoRows
}
func (m *bookingMock) SharedEveningBusy(ctx context.Context, excludeProductID int64, from, to time.Time) (bool, error) {
	return false, nil
}
func (m *bookingMock) ExpireDue(ctx context.Context, now time.Time) (int64, error) { return 0, nil }

type blockMock struct{ deletedFor []int64 }

var _ blockrepo.Repo = (*blockMock)(nil)

func (m *blockMock) InsertAsset(ctx context.Context, bookingID, unitID int64, from, to time.Time) error {
	return nil
}
func (m *blockMock) InsertOps(ctx context.Context, bookingID int64, kind model.ResourceKind, resourceID int64, leg model.Leg, from, to time.Time) error {
	return nil
}
func (m *blockMock) DeleteForBooking(ctx context.Context, tx *sql.Tx, bookingID int64) error {
	m.deletedFor = append(m.deletedFor, bookingID)
	return nil
}
func (m *blockMock) ResourceBusy(ctx context.Context, kind model.ResourceKind, resourceID int64, from, to time.Time) (bool, error) {
	return false, nil
}
func (m *blockMock) Calendar(ctx context.Context, from, to time.Time) ([]blockrepo.UsageRow, error) {
	return nil, nil
}

type notifyMock struct{ events []notifyrepo.Event }

var _ notifyrepo.Notifier = (*notifyMock)(nil)

func (m *notifyMock) Send(ctx context.Context, ev notifyrepo.Event) {
	m.events = append(m.events, ev)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestHandleCallback_BadSignature(t *testing.T) {
	pay := &payMock{verifyFn: func(sig string, raw []byte) error { return errors.New("nope") }}
	s := New(fakeDB(t), pay, &bookingMock{}, &blockMock{}, &notifyMock{}, discard())

	err := s.HandleCallback(context.Background(), "bad", []byte(`{"id":"x","status":"PAID"}`))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestHandleCallback_BadPayload(t *testing.T) {
	s := New(fakeDB(t), &payMock{}, &bookingMock{}, &blockMock{}, &notifyMock{}, discard())

	require.Error(t, s.HandleCallback(context.Background(), "sig", []byte(`not json`)))
	require.Error(t, s.HandleCallback(context.Background(), "sig", []byte(`{"id":"","status":""}`)))
}

func TestHandleCallback_PaidConfirms(t *testing.T) {
	var statusSet model.BookingStatus
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			require.Equal(t, "sess_1", ref)
			return &model.Booking{ID: 5, Number: "n-5", Status: model.BookingPending,
				Price: model.PriceBreakdown{Deposit: 50}}, nil
		},
		updateStatusFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
			statusSet = status
			return nil
		},
	}
	notify := &notifyMock{}
	s := New(fakeDB(t), &payMock{}, book, &blockMock{}, notify, discard())

	err := s.HandleCallback(context.Background(), "sig", []byte(`{"id":"sess_1","status":"PAID"}`))
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, statusSet)
	require.Len(t, notify.events, 1)
	require.Equal(t, "booking_confirmed", notify.events[0].Kind)
	require.Equal(t, 50.0, notify.events[0].Amount)
}

func TestHandleCallback_PaidReplayIsNoop(t *testing.T) {
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			return &model.Booking{ID: 5, Status: model.BookingConfirmed}, nil
		},
		updateStatusFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
			t.Fatal("replay must not touch the booking")
			return nil
		},
	}
	notify := &notifyMock{}
	s := New(fakeDB(t), &payMock{}, book, &blockMock{}, notify, discard())

	require.NoError(t, s.HandleCallback(context.Background(), "sig", []byte(`{"id":"sess_1","status":"PAID"}`)))
	require.Empty(t, notify.events)
}

func TestHandleCallback_PaidUnknownRef(t *testing.T) {
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			return nil, sql.ErrNoRows
		},
	}
	s := New(fakeDB(t), &payMock{}, book, &blockMock{}, &notifyMock{}, discard())

	// Acknowledged so the provider stops retrying; the mismatch is logged.
	require.NoError(t, s.HandleCallback(context.Background(), "sig", []byte(`{"id":"ghost","status":"PAID"}`)))
}

func TestHandleCallback_ExpiredReleases(t *testing.T) {
	var statusSet model.BookingStatus
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			return &model.Booking{ID: 9, Status: model.BookingPending}, nil
		},
		updateStatusFn: func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
			statusSet = status
			return nil
		},
	}
	blocks := &blockMock{}
	s := New(fakeDB(t), &payMock{}, book, blocks, &notifyMock{}, discard())

	err := s.HandleCallback(context.Background(), "sig", []byte(`{"id":"sess_2","status":"EXPIRED"}`))
	require.NoError(t, err)
	require.Equal(t, model.BookingExpired, statusSet)
	require.Equal(t, []int64{9}, blocks.deletedFor)
}

func TestHandleCallback_ExpiredNonPendingIsNoop(t *testing.T) {
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			return &model.Booking{ID: 9, Status: model.BookingConfirmed}, nil
		},
	}
	blocks := &blockMock{}
	s := New(fakeDB(t), &payMock{}, book, blocks, &notifyMock{}, discard())

	require.NoError(t, s.HandleCallback(context.Background(), "sig", []byte(`{"id":"sess_2","status":"EXPIRED"}`)))
	require.Empty(t, blocks.deletedFor)
}

func TestHandleCallback_UnknownStatusIgnored(t *testing.T) {
	book := &bookingMock{
		findByRefFn: func(ctx context.Context, ref string) (*model.Booking, error) {
			t.Fatal("unknown statuses must not hit the repo")
			return nil, nil
		},
	}
	s := New(fakeDB(t), &payMock{}, book, &blockMock{}, &notifyMock{}, discard())

	require.NoError(t, s.HandleCallback(context.Background(), "sig", []byte(`{"id":"sess_3","status":"PENDING"}`)))
}
