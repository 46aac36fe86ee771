// Copyright 2025 Certen Protocol
//
// Package wal implements the Bridge Action Executor's pending log: a
// durable Postgres-backed mapping from action digest to action, scanned at
// startup and mutated only by insertion (the orchestrator) and removal
// (the executor on terminal success or observed on-chain finality).
package wal

import (
	"context"
	"database/sql"
	"log"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// Codec decodes a persisted action payload back into a bridge.Action. The
// wire format of an action is out of scope for the executor; callers own
// it and supply the codec that understands it.
type Codec interface {
	Decode(payload []byte) (bridge.Action, error)
}

// Log is a Postgres-backed bridge.PendingLog. Write failures are fatal: the
// executor cannot reason about at-least-once delivery if the log silently
// drops entries, so a fatal handler (log.Fatalf by default) is invoked
// instead of returning an error. Tests override it with WithFatalHandler to
// observe the failure without killing the process.
type Log struct {
	db    *sql.DB
	codec Codec

	logger *log.Logger
	fatal  func(format string, args ...interface{})
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets a custom logger, matching database.WithLogger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// WithFatalHandler overrides how unrecoverable write failures are reported.
// Production code should never need this; it exists so tests can assert on
// the fatal path without calling os.Exit.
func WithFatalHandler(fatal func(format string, args ...interface{})) Option {
	return func(l *Log) { l.fatal = fatal }
}

// New creates a pending log backed by db. Callers are responsible for
// running database.Client.MigrateUp (which creates the pending_actions
// table) before the first call.
func New(db *sql.DB, codec Codec, opts ...Option) *Log {
	l := &Log{
		db:     db,
		codec:  codec,
		logger: log.New(log.Writer(), "[WAL] ", log.LstdFlags),
		fatal:  log.Fatalf,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Insert durably persists actions. A write failure is fatal.
func (l *Log) Insert(ctx context.Context, actions []bridge.Action) {
	if len(actions) == 0 {
		return
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.fatal("wal: begin insert transaction: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pending_actions (digest, payload)
		VALUES ($1, $2)
		ON CONFLICT (digest) DO NOTHING`)
	if err != nil {
		l.fatal("wal: prepare insert: %v", err)
		return
	}
	defer stmt.Close()

	for _, action := range actions {
		digest := action.Digest()
		if _, err := stmt.ExecContext(ctx, digest[:], action.Bytes()); err != nil {
			l.fatal("wal: insert action %s: %v", digest, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		l.fatal("wal: commit insert: %v", err)
		return
	}
	l.logger.Printf("inserted %d pending action(s)", len(actions))
}

// Remove durably deletes digests from the log. Called only on terminal
// success or observed on-chain finality. A write failure is fatal.
func (l *Log) Remove(ctx context.Context, digests []bridge.Digest) {
	if len(digests) == 0 {
		return
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.fatal("wal: begin remove transaction: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM pending_actions WHERE digest = $1`)
	if err != nil {
		l.fatal("wal: prepare remove: %v", err)
		return
	}
	defer stmt.Close()

	for _, digest := range digests {
		if _, err := stmt.ExecContext(ctx, digest[:]); err != nil {
			l.fatal("wal: remove action %s: %v", digest, err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		l.fatal("wal: commit remove: %v", err)
		return
	}
	l.logger.Printf("removed %d pending action(s)", len(digests))
}

// GetAll scans the full pending log. Called once at startup to re-enqueue
// every unfinished action into the signing stage at attempt 0.
func (l *Log) GetAll(ctx context.Context) map[bridge.Digest]bridge.Action {
	rows, err := l.db.QueryContext(ctx, `SELECT digest, payload FROM pending_actions`)
	if err != nil {
		l.fatal("wal: scan pending actions: %v", err)
		return nil
	}
	defer rows.Close()

	result := make(map[bridge.Digest]bridge.Action)
	for rows.Next() {
		var digestBytes, payload []byte
		if err := rows.Scan(&digestBytes, &payload); err != nil {
			l.fatal("wal: scan row: %v", err)
			return nil
		}
		action, err := l.codec.Decode(payload)
		if err != nil {
			l.fatal("wal: decode action payload: %v", err)
			return nil
		}
		var digest bridge.Digest
		copy(digest[:], digestBytes)
		if digest != action.Digest() {
			l.fatal("wal: decoded action digest %s does not match stored digest %s", action.Digest(), digest)
			return nil
		}
		result[digest] = action
	}
	if err := rows.Err(); err != nil {
		l.fatal("wal: iterate pending actions: %v", err)
		return nil
	}
	return result
}
