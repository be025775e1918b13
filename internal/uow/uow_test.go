package uow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/events"
	"github.com/skrasekmichael/teamup/internal/integration"
	"github.com/skrasekmichael/teamup/internal/outbox"
)

// The commit-path tests run against an in-memory SQLite database so a real
// transaction flows through save funcs and the outbox store.

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE things (id TEXT PRIMARY KEY, name TEXT NOT NULL);
		CREATE TABLE outbox (
			id                 TEXT PRIMARY KEY,
			created_at         TIMESTAMP NOT NULL,
			type               TEXT NOT NULL,
			data               BLOB NOT NULL,
			processed_at       TIMESTAMP,
			error              TEXT,
			fail_count         INTEGER NOT NULL DEFAULT 0,
			next_processing_at TIMESTAMP
		);
	`)
	require.NoError(t, err)
	return db
}

// sqliteOutboxStore implements just enough of outbox.Store for commit tests.
type sqliteOutboxStore struct{}

func (sqliteOutboxStore) Insert(ctx context.Context, tx *sqlx.Tx, rec outbox.Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox (id, created_at, type, data, fail_count, next_processing_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, rec.ID, rec.CreatedAt, rec.Type, rec.Data, rec.NextProcessingAt)
	return err
}

func (sqliteOutboxStore) FetchPending(context.Context, int) ([]outbox.Record, error) {
	return nil, nil
}
func (sqliteOutboxStore) MarkProcessed(context.Context, string) error { return nil }
func (sqliteOutboxStore) MarkFailed(context.Context, string, string, time.Time) error {
	return nil
}
func (sqliteOutboxStore) MarkTerminal(context.Context, string, string) error { return nil }
func (sqliteOutboxStore) DeleteProcessedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type thing struct {
	domain.EventBuffer
	id   string
	name string
}

func (a *thing) Key() string { return "thing:" + a.id }

type thingCreated struct{ t *thing }

func (thingCreated) EventName() string { return "thing.created" }

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func saveThing(a *thing) events.SaveFunc {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO things (id, name) VALUES (?, ?)`, a.id, a.name)
		return err
	}
}

func TestUnitOfWork_Commit_PersistsAggregateAndStagedRecords(t *testing.T) {
	db := newTestDB(t)
	f := NewFactory(db, events.NewDispatcher(zap.NewNop()), sqliteOutboxStore{})

	w := f.New()
	a := &thing{id: "1", name: "first"}
	w.Track(a, saveThing(a))
	w.StageOutbox(outbox.Record{
		ID:        "R1",
		CreatedAt: time.Now().UTC(),
		Type:      integration.TypeEmailCreated,
		Data:      []byte(`{}`),
	})

	require.NoError(t, w.Commit(context.Background()))

	assert.Equal(t, 1, countRows(t, db, "things"))
	assert.Equal(t, 1, countRows(t, db, "outbox"))
}

func TestUnitOfWork_Commit_SaveErrorRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	f := NewFactory(db, events.NewDispatcher(zap.NewNop()), sqliteOutboxStore{})

	boom := errors.New("boom")
	w := f.New()
	a := &thing{id: "1", name: "first"}
	w.Track(a, saveThing(a))
	w.Track(&thing{id: "2"}, func(ctx context.Context, tx *sqlx.Tx) error { return boom })
	w.StageOutbox(outbox.Record{ID: "R1", CreatedAt: time.Now().UTC(), Type: "t", Data: []byte(`{}`)})

	require.ErrorIs(t, w.Commit(context.Background()), boom)

	assert.Zero(t, countRows(t, db, "things"))
	assert.Zero(t, countRows(t, db, "outbox"))
}

func TestUnitOfWork_Commit_HandlerStagesOutboxRecord(t *testing.T) {
	db := newTestDB(t)
	d := events.NewDispatcher(zap.NewNop())
	manager := outbox.NewManager()

	d.Register("thing.created", func(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
		return manager.Enqueue(w, integration.EmailCreated{To: "a@b.c", Subject: "s", Body: "b"})
	})

	f := NewFactory(db, d, sqliteOutboxStore{})
	w := f.New()

	a := &thing{id: "1", name: "first"}
	a.Record(thingCreated{t: a})
	w.Track(a, saveThing(a))

	require.NoError(t, w.Commit(context.Background()))

	assert.Equal(t, 1, countRows(t, db, "things"))
	assert.Equal(t, 1, countRows(t, db, "outbox"))
	assert.False(t, a.HasPending())
}

func TestUnitOfWork_Commit_HandlerTrackedAggregateIsSaved(t *testing.T) {
	db := newTestDB(t)
	d := events.NewDispatcher(zap.NewNop())

	// the handler tracks a second aggregate into the same unit of work
	d.Register("thing.created", func(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
		b := &thing{id: "2", name: "follower"}
		w.Track(b, saveThing(b))
		return nil
	})

	f := NewFactory(db, d, sqliteOutboxStore{})
	w := f.New()

	a := &thing{id: "1", name: "first"}
	a.Record(thingCreated{t: a})
	w.Track(a, saveThing(a))

	require.NoError(t, w.Commit(context.Background()))
	assert.Equal(t, 2, countRows(t, db, "things"))
}

func TestUnitOfWork_Commit_HandlerErrorAbortsBeforeAnyWrite(t *testing.T) {
	db := newTestDB(t)
	d := events.NewDispatcher(zap.NewNop())

	boom := errors.New("handler boom")
	d.Register("thing.created", func(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
		return boom
	})

	f := NewFactory(db, d, sqliteOutboxStore{})
	w := f.New()

	a := &thing{id: "1", name: "first"}
	a.Record(thingCreated{t: a})
	w.Track(a, saveThing(a))

	require.ErrorIs(t, w.Commit(context.Background()), boom)
	assert.Zero(t, countRows(t, db, "things"))
}

func TestUnitOfWork_Commit_NilSaveTracksForDispatchOnly(t *testing.T) {
	db := newTestDB(t)
	d := events.NewDispatcher(zap.NewNop())

	var handled bool
	d.Register("thing.created", func(ctx context.Context, w events.Work, ev domain.DomainEvent) error {
		handled = true
		return nil
	})

	f := NewFactory(db, d, sqliteOutboxStore{})
	w := f.New()

	a := &thing{id: "1", name: "first"}
	a.Record(thingCreated{t: a})
	w.Track(a, nil)

	require.NoError(t, w.Commit(context.Background()))
	assert.True(t, handled)
	assert.Zero(t, countRows(t, db, "things"))
}

func TestUnitOfWork_Commit_Twice(t *testing.T) {
	db := newTestDB(t)
	f := NewFactory(db, events.NewDispatcher(zap.NewNop()), sqliteOutboxStore{})

	w := f.New()
	require.NoError(t, w.Commit(context.Background()))

	err := w.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already committed")
}

func TestUnitOfWork_Commit_ConcurrencyErrorPassesThrough(t *testing.T) {
	db := newTestDB(t)
	f := NewFactory(db, events.NewDispatcher(zap.NewNop()), sqliteOutboxStore{})

	w := f.New()
	w.Track(&thing{id: "1"}, func(ctx context.Context, tx *sqlx.Tx) error {
		return &domain.ConcurrencyError{Entity: "thing", Key: "1"}
	})

	var ce *domain.ConcurrencyError
	assert.ErrorAs(t, w.Commit(context.Background()), &ce)
}
