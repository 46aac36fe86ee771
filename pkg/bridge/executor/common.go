// Copyright 2025 Certen Protocol
package executor

import (
	"context"
	"time"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// checkAlreadyProcessed polls the chain oracle for a terminal status and,
// if the action has already settled, removes it from the pending log. Both
// stages call this before doing any work, mirroring
// handle_already_processed_action_maybe in the original executor: neither
// signing nor execution should waste effort on an action some other node
// (or a previous attempt of this one) already finished.
func checkAlreadyProcessed(ctx context.Context, chain bridge.ChainClient, wal bridge.PendingLog, action bridge.Action) bool {
	status := chain.GetActionStatusUntilSuccess(ctx, action)
	if !status.IsTerminalSuccess() {
		return false
	}
	wal.Remove(ctx, []bridge.Digest{action.Digest()})
	return true
}

// afterBackoff returns a channel that fires after the shared backoff delay
// for the given attempt. It does not watch ctx; callers select on
// ctx.Done() alongside it.
func afterBackoff(ctx context.Context, attempt uint64) <-chan time.Time {
	return time.After(bridge.Backoff(attempt))
}
