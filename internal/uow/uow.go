// Package uow coordinates one logical transaction: domain-event dispatch to a
// fixed point, then an atomic write of every tracked aggregate plus the
// staged outbox rows, with storage conflicts translated into typed errors.
package uow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/events"
	"github.com/skrasekmichael/teamup/internal/outbox"
)

// Factory builds one UnitOfWork per inbound request or background batch.
type Factory struct {
	db         *sqlx.DB
	dispatcher *events.Dispatcher
	outbox     outbox.Store
}

func NewFactory(db *sqlx.DB, dispatcher *events.Dispatcher, store outbox.Store) *Factory {
	return &Factory{db: db, dispatcher: dispatcher, outbox: store}
}

func (f *Factory) New() *UnitOfWork {
	return &UnitOfWork{db: f.db, dispatcher: f.dispatcher, outbox: f.outbox}
}

type tracked struct {
	agg  domain.Aggregate
	save events.SaveFunc
}

// UnitOfWork tracks mutated aggregates and staged outbox rows for one
// request. Not safe for concurrent use; each request gets its own.
type UnitOfWork struct {
	db         *sqlx.DB
	dispatcher *events.Dispatcher
	outbox     outbox.Store

	entries []tracked
	staged  []outbox.Record
	done    bool
}

var _ events.Work = (*UnitOfWork)(nil)

// Track registers an aggregate and the function persisting it. A nil save
// tracks the aggregate for event dispatch only (e.g. the entity is persisted
// by a handler-tracked entry instead).
func (u *UnitOfWork) Track(agg domain.Aggregate, save events.SaveFunc) {
	u.entries = append(u.entries, tracked{agg: agg, save: save})
}

// Tracked returns every tracked aggregate, in registration order. Duplicate
// registrations of one aggregate are harmless: Drain empties the shared
// buffer on first sight.
func (u *UnitOfWork) Tracked() []domain.Aggregate {
	aggs := make([]domain.Aggregate, 0, len(u.entries))
	for _, e := range u.entries {
		aggs = append(aggs, e.agg)
	}
	return aggs
}

// StageOutbox queues an outbox record for insertion with the commit
// transaction. Aborting the unit of work discards it.
func (u *UnitOfWork) StageOutbox(rec outbox.Record) {
	u.staged = append(u.staged, rec)
}

// Commit dispatches domain events to a fixed point, then persists all
// staged changes atomically. On success every tracked aggregate's event
// buffer is empty. Conflicts come back as *domain.ConcurrencyError or
// *domain.UniqueConstraintError; there is no automatic retry.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return errors.New("unit of work already committed")
	}
	u.done = true

	if err := u.dispatcher.DispatchAll(ctx, u); err != nil {
		return fmt.Errorf("dispatch domain events: %w", err)
	}

	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range u.entries {
		if e.save == nil {
			continue
		}
		if err := e.save(ctx, tx); err != nil {
			return Translate(err)
		}
	}
	for _, rec := range u.staged {
		if err := u.outbox.Insert(ctx, tx, rec); err != nil {
			return Translate(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate maps storage-level write failures onto the domain error
// taxonomy. Version-mismatch detection happens in the repositories (0 rows
// touched by a version-checked UPDATE), so *domain.ConcurrencyError passes
// through untouched; MySQL duplicate-key errors (1062) become
// *domain.UniqueConstraintError. Everything else is an internal failure.
func Translate(err error) error {
	var my *mysql.MySQLError
	if errors.As(err, &my) && my.Number == 1062 {
		return &domain.UniqueConstraintError{Constraint: constraintFromMessage(my.Message)}
	}
	return err
}

// constraintFromMessage pulls the key name out of a 1062 message:
// "Duplicate entry 'x' for key 'teamup.uq_users_email'".
func constraintFromMessage(msg string) string {
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return msg
	}
	key := msg[i+len("for key '"):]
	key = strings.TrimSuffix(key, "'")
	if j := strings.LastIndex(key, "."); j >= 0 {
		key = key[j+1:]
	}
	return key
}
