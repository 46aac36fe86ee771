// Copyright 2025 Certen Protocol
//
// Package oracle implements the Bridge Action Executor's on-chain status
// oracle: a polling façade over the chain client that absorbs transport
// errors and only ever returns a definitive status.
package oracle

import (
	"context"
	"log"
	"time"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// RawStatusSource is the underlying, possibly-flaky transport the oracle
// retries against. A non-nil error means "transport failure, try again",
// never "not found" — the chain client's own RPC layer is responsible for
// distinguishing the two.
type RawStatusSource interface {
	GetActionStatus(ctx context.Context, action bridge.Action) (bridge.OnChainStatus, error)
}

// Oracle retries RawStatusSource until it gets a definitive answer. There
// is no attempt cap: a transport failure must never be conflated with
// "this action is not yet on chain".
type Oracle struct {
	source RawStatusSource
	logger *log.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Oracle) { o.logger = logger }
}

// New wraps source with retry-until-success semantics.
func New(source RawStatusSource, opts ...Option) *Oracle {
	o := &Oracle{
		source: source,
		logger: log.New(log.Writer(), "[StatusOracle] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StatusUntilSuccess polls source until it returns a non-transport-error
// status, backing off between attempts with the shared schedule. It only
// gives up early if ctx is canceled, in which case it reports Pending so
// callers treat cancellation as "keep processing" rather than "settled".
func (o *Oracle) StatusUntilSuccess(ctx context.Context, action bridge.Action) bridge.OnChainStatus {
	var attempt uint64
	for {
		status, err := o.source.GetActionStatus(ctx, action)
		if err == nil {
			return status
		}
		o.logger.Printf("transport error polling status for %s (attempt %d): %v", action.Digest(), attempt, err)

		select {
		case <-ctx.Done():
			return bridge.StatusPending
		case <-time.After(bridge.Backoff(attempt)):
		}
		attempt++
	}
}
