package outbox

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/meetmatch/libs/db"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
)

// Sharer writes confirmations to the outbox; the Publisher delivers them.
type Sharer struct {
	pool *db.Pool
	repo *Repository
}

func NewSharer(pool *db.Pool, repo *Repository) *Sharer {
	return &Sharer{pool: pool, repo: repo}
}

func (s *Sharer) Share(ctx context.Context, c selection.Confirmation) error {
	evt, err := SlotConfirmedEvent(c)
	if err != nil {
		return err
	}
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		_, err := s.repo.Insert(ctx, tx, evt)
		return err
	})
}

// LogSharer only logs confirmations. It is used when no database is configured.
type LogSharer struct {
	Logger *slog.Logger
}

func (s LogSharer) Share(ctx context.Context, c selection.Confirmation) error {
	s.Logger.InfoContext(ctx, "slot confirmed",
		"confirmation_id", c.ID,
		"day_index", c.DayIndex,
		"hour_index", c.HourIndex,
		"label", c.Label24h,
		"selected", len(c.SelectedIDs),
	)
	return nil
}
