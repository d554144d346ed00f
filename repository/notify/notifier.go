package notifyrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/DBnexlify/popndrop-sub001/util/httpx"
)

// Event is a booking lifecycle notification. Delivery is fire-and-forget:
// a failed notification never fails the booking it describes.
type Event struct {
	Kind          string  `json:"kind"` // booking_created | booking_confirmed | booking_cancelled
	BookingID     int64   `json:"booking_id"`
	BookingNumber string  `json:"booking_number"`
	CustomerEmail string  `json:"customer_email"`
	Amount        float64 `json:"amount,omitempty"`
}

type Notifier interface {
	Send(ctx context.Context, ev Event)
}

type httpNotifier struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewHTTP(url string, log *slog.Logger) Notifier {
	return &httpNotifier{url: url, client: httpx.Client(), log: log}
}

func (n *httpNotifier) Send(ctx context.Context, ev Event) {
	if n.url == "" {
		return
	}
	go func() {
		b, _ := json.Marshal(ev)
		req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(b))
		if err != nil {
			n.log.Warn("notify build request", "err", err, "kind", ev.Kind)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := n.client.Do(req)
		if err != nil {
			n.log.Warn("notify send", "err", err, "kind", ev.Kind, "booking", ev.BookingNumber)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			n.log.Warn("notify send", "err", fmt.Errorf("status %s", resp.Status), "kind", ev.Kind, "booking", ev.BookingNumber)
		}
	}()
}
