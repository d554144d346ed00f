// repository/registry/repo.go
package registryrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/DBnexlify/popndrop-sub001/model"
)

// Repo is the read path used by the availability resolvers: which operational
// resources of a kind work on a given day, and with what hours. No side
// effects; data-access errors surface to the caller.
type Repo interface {
	ActiveByKind(ctx context.Context, kind model.ResourceKind, weekday time.Weekday) ([]model.OpsResource, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) ActiveByKind(ctx context.Context, kind model.ResourceKind, weekday time.Weekday) ([]model.OpsResource, error) {
	const q = `
	SELECT o.id, o.kind, o.name, o.active, s.start_min, s.end_min
	FROM ops_resources o
	JOIN resource_schedules s ON s.resource_id=o.id
	WHERE o.kind=$1
	  AND o.active
	  AND s.weekday=$2
	  AND s.enabled
	ORDER BY o.id`
	rows, err := r.db.QueryContext(ctx, q, kind, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OpsResource
	for rows.Next() {
		var o model.OpsResource
		if err := rows.Scan(&o.ID, &o.Kind, &o.Name, &o.Active, &o.DayStartMin, &o.DayEndMin); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
