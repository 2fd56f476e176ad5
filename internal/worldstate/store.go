/*
SPDX-License-Identifier: Apache-2.0
*/

// Package worldstate keeps the ledger's key/value world state in SQLite so
// the contract logic can run without a Fabric network. Every Update is one
// SQL transaction; the notification it sets reaches subscribers only after
// COMMIT.
package worldstate

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS world_state (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
) WITHOUT ROWID;`

type Store struct {
	db     *sql.DB
	broker *Broker
	clock  func() time.Time
	logger *zap.Logger
}

type Option func(*Store)

// WithClock replaces time.Now as the source of transaction timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema. ":memory:" gives a throwaway ledger.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	// a single connection serialises writers and keeps :memory: databases alive
	db.SetMaxOpenConns(1)

	s := New(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database. The caller is responsible for
// calling Migrate.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.broker = NewBroker(s.logger)
	return s
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "could not migrate world state")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Broker returns the broker committed notifications are published on.
func (s *Store) Broker() *Broker {
	return s.broker
}

// Update runs fn inside a read-write transaction. If fn returns an error the
// transaction is rolled back and nothing is published.
func (s *Store) Update(ctx context.Context, fn func(ledger.WorldState) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	st := newTxState(ctx, tx, s.clock(), false)

	if err := fn(st); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", zap.String("tx", st.txID), zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit transaction")
	}

	if st.event != nil {
		s.broker.Publish(*st.event)
	}
	return nil
}

// View runs fn inside a transaction that refuses writes and is always
// rolled back.
func (s *Store) View(ctx context.Context, fn func(ledger.WorldState) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	return fn(newTxState(ctx, tx, s.clock(), true))
}
