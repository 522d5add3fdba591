package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/meetmatch/libs/db"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
)

// ScheduleRepository reads participant grids from Postgres. It satisfies
// schedule.Store.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Participants(ctx context.Context) ([]schedule.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM participants
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []schedule.Participant
	index := make(map[string]int)
	for rows.Next() {
		var p schedule.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		index[p.ID] = len(participants)
		participants = append(participants, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	slots, err := r.pool.Query(ctx, `
		SELECT participant_id, day_index, hour_index, status
		FROM participant_slots
		ORDER BY participant_id, day_index, hour_index
	`)
	if err != nil {
		return nil, fmt.Errorf("query participant slots: %w", err)
	}
	defer slots.Close()

	for slots.Next() {
		var (
			id        string
			day, hour int16
			status    string
		)
		if err := slots.Scan(&id, &day, &hour, &status); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		participants[i].Schedule.Set(int(day), int(hour), schedule.ParseStatus(status))
	}
	if slots.Err() != nil {
		return nil, slots.Err()
	}
	return participants, nil
}

// Seed upserts participants and their known slots in one transaction.
// Existing slots of a seeded participant are replaced.
func (r *ScheduleRepository) Seed(ctx context.Context, participants []schedule.Participant) error {
	return r.pool.InTx(ctx, func(tx pgx.Tx) error {
		for order, p := range participants {
			if _, err := tx.Exec(ctx, `
				INSERT INTO participants (id, name, sort_order)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, sort_order = EXCLUDED.sort_order
			`, p.ID, p.Name, order); err != nil {
				return fmt.Errorf("upsert participant %s: %w", p.ID, err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM participant_slots WHERE participant_id = $1`, p.ID); err != nil {
				return err
			}

			batch := &pgx.Batch{}
			for day := schedule.Sunday; day <= schedule.Saturday; day++ {
				for _, slot := range p.Schedule.Day(day) {
					if !slot.Status.Known() {
						continue
					}
					batch.Queue(`
						INSERT INTO participant_slots (participant_id, day_index, hour_index, status)
						VALUES ($1, $2, $3, $4)
						ON CONFLICT (participant_id, day_index, hour_index) DO UPDATE SET status = EXCLUDED.status, updated_at = now()
					`, p.ID, day, slot.Hour, slot.Status.String())
				}
			}
			if batch.Len() == 0 {
				continue
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert slots for %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
