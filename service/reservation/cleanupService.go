// service/reservation/cleanup.go
package reservationsvc

import (
	"context"
	"log/slog"
	"time"

	bookingrepo "github.com/DBnexlify/popndrop-sub001/repository/booking"
)

// Cleaner releases pending bookings whose payment deadline passed. The
// payment provider enforces the session expiry on its side; this sweep just
// frees the units those abandoned holds were occupying.
type Cleaner interface {
	ReleaseExpired(ctx context.Context) (int64, error)
	// Run sweeps on every tick until ctx is done.
	Run(ctx context.Context, every time.Duration)
}

type cleaner struct {
	r   bookingrepo.Repo
	log *slog.Logger
}

func NewCleaner(r bookingrepo.Repo, log *slog.Logger) Cleaner {
	return &cleaner{r: r, log: log}
}

func (c *cleaner) ReleaseExpired(ctx context.Context) (int64, error) {
	n, err := c.r.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.log.Info("released expired bookings", "count", n)
	}
	return n, nil
}

func (c *cleaner) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := c.ReleaseExpired(ctx); err != nil {
				c.log.Error("expired booking sweep failed", "err", err)
			}
		}
	}
}
