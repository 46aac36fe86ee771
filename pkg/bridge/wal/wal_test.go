// Copyright 2025 Certen Protocol

package wal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	connStr := os.Getenv("BRIDGE_TEST_DB")
	if connStr == "" {
		os.Exit(0)
	}

	var err error
	testDB, err = sql.Open("postgres", connStr)
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	if _, err := testDB.Exec(`
		CREATE TABLE IF NOT EXISTS pending_actions (
			digest  BYTEA PRIMARY KEY,
			payload BYTEA NOT NULL
		)`); err != nil {
		panic("failed to create pending_actions table: " + err.Error())
	}

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func truncate(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec(`TRUNCATE pending_actions`); err != nil {
		t.Fatalf("truncate pending_actions: %v", err)
	}
}

func TestInsertGetAllRemoveRoundTrip(t *testing.T) {
	if testDB == nil {
		t.Skip("BRIDGE_TEST_DB not configured")
	}
	truncate(t)

	l := New(testDB, bridge.TransferCodec{})
	ctx := context.Background()

	a1 := &bridge.TransferAction{SourceChain: "ethereum", Nonce: 1, Recipient: bridge.Address{1}, Amount: 100, TokenID: 1}
	a2 := &bridge.TransferAction{SourceChain: "ethereum", Nonce: 2, Recipient: bridge.Address{2}, Amount: 200, TokenID: 1}

	l.Insert(ctx, []bridge.Action{a1, a2})

	all := l.GetAll(ctx)
	if len(all) != 2 {
		t.Fatalf("got %d pending actions, want 2", len(all))
	}
	got, ok := all[a1.Digest()]
	if !ok {
		t.Fatal("a1 not found in pending log")
	}
	if got.Digest() != a1.Digest() {
		t.Fatal("decoded action digest does not match original")
	}

	l.Remove(ctx, []bridge.Digest{a1.Digest()})

	all = l.GetAll(ctx)
	if len(all) != 1 {
		t.Fatalf("got %d pending actions after removal, want 1", len(all))
	}
	if _, ok := all[a1.Digest()]; ok {
		t.Fatal("a1 still present after Remove")
	}
	if _, ok := all[a2.Digest()]; !ok {
		t.Fatal("a2 missing after removing a1")
	}
}

func TestInsertIsIdempotentOnConflict(t *testing.T) {
	if testDB == nil {
		t.Skip("BRIDGE_TEST_DB not configured")
	}
	truncate(t)

	l := New(testDB, bridge.TransferCodec{})
	ctx := context.Background()
	a := &bridge.TransferAction{SourceChain: "ethereum", Nonce: 9, Recipient: bridge.Address{3}, Amount: 50, TokenID: 1}

	l.Insert(ctx, []bridge.Action{a})
	l.Insert(ctx, []bridge.Action{a})

	all := l.GetAll(ctx)
	if len(all) != 1 {
		t.Fatalf("got %d pending actions after duplicate insert, want 1", len(all))
	}
}

func TestRemoveOfUnknownDigestIsNoop(t *testing.T) {
	if testDB == nil {
		t.Skip("BRIDGE_TEST_DB not configured")
	}
	truncate(t)

	l := New(testDB, bridge.TransferCodec{})
	ctx := context.Background()
	l.Remove(ctx, []bridge.Digest{{0xff}})

	all := l.GetAll(ctx)
	if len(all) != 0 {
		t.Fatalf("got %d pending actions, want 0", len(all))
	}
}

func TestInsertInvokesFatalHandlerOnClosedDB(t *testing.T) {
	if testDB == nil {
		t.Skip("BRIDGE_TEST_DB not configured")
	}

	db, err := sql.Open("postgres", os.Getenv("BRIDGE_TEST_DB"))
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.Close()

	var fatalMsg string
	l := New(db, bridge.TransferCodec{}, WithFatalHandler(func(format string, args ...interface{}) {
		fatalMsg = fmt.Sprintf(format, args...)
	}))

	a := &bridge.TransferAction{SourceChain: "ethereum", Nonce: 1, Recipient: bridge.Address{1}, Amount: 1, TokenID: 1}
	l.Insert(context.Background(), []bridge.Action{a})

	if fatalMsg == "" {
		t.Fatal("expected the fatal handler to be invoked for a write against a closed database")
	}
}
