package outbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
)

// recordingTx captures the single statement Insert issues.
type recordingTx struct {
	pgx.Tx
	sql  string
	args []any
	id   string
	err  error
}

func (tx *recordingTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	tx.sql = sql
	tx.args = args
	return rowFunc(func(dest ...any) error {
		if tx.err != nil {
			return tx.err
		}
		*dest[0].(*string) = tx.id
		return nil
	})
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestInsertReturnsEventID(t *testing.T) {
	evt, err := SlotConfirmedEvent(confirmation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx := &recordingTx{id: "0b7c6f1e-1111-4c2e-9d55-5a1f2d3c4b5a"}

	id, err := NewRepository(nil).Insert(context.Background(), tx, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != tx.id {
		t.Fatalf("expected %s, got %s", tx.id, id)
	}
	if !strings.Contains(tx.sql, "RETURNING event_id") {
		t.Fatalf("expected event id to be returned, got %s", tx.sql)
	}
	if len(tx.args) != 6 || tx.args[1] != "c-1" || tx.args[2] != TopicSlotConfirmed {
		t.Fatalf("unexpected args: %v", tx.args)
	}
}

func TestInsertWrapsError(t *testing.T) {
	evt, _ := SlotConfirmedEvent(confirmation())
	dbErr := errors.New("relation outbox_events does not exist")

	_, err := NewRepository(nil).Insert(context.Background(), &recordingTx{err: dbErr}, evt)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if !strings.Contains(err.Error(), TopicSlotConfirmed) {
		t.Fatalf("expected event type in error, got %v", err)
	}
}
