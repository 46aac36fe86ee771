// Copyright 2025 Certen Protocol
package executor

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// executionItem is one certified action in flight through the execution
// stage, carrying its retry count and the correlation ID assigned when
// the underlying action first entered the pipeline, inherited from the
// signingItem that produced it.
type executionItem struct {
	certified     *bridge.CertifiedAction
	attempt       uint64
	correlationID uuid.UUID
}

// executionStage builds, signs and submits the settlement transaction for
// each certified action it receives.
type executionStage struct {
	chain       bridge.ChainClient
	signer      bridge.Signer
	wal         bridge.PendingLog
	gasObjectID bridge.ObjectID
	buildTx     func(nodeAddress bridge.Address, gasRef bridge.ObjectRef, certified bridge.CertifiedAction) (bridge.SignedTransaction, error)
	logger      *log.Logger
	fatal       func(format string, args ...interface{})
	metrics     bridge.Metrics

	in chan executionItem
}

// run drains the execution queue until it is closed or ctx is canceled,
// dispatching each item to its own goroutine so a slow submission never
// delays the next certified action behind it.
func (e *executionStage) run(ctx context.Context) {
	e.logger.Printf("starting execution stage")
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-e.in:
			if !ok {
				return
			}
			go e.process(ctx, item)
		}
	}
}

// process runs the strictly-ordered execution algorithm: skip if already
// settled, fetch and ownership-check the gas object (fatal on mismatch),
// deterministically build and sign the transaction (abandon, do not retry,
// on a build failure since the inputs will never change), submit, and
// interpret the effects.
func (e *executionStage) process(ctx context.Context, item executionItem) {
	action := item.certified.Action

	if checkAlreadyProcessed(ctx, e.chain, e.wal, action) {
		e.logger.Printf("[%s] action %s already settled on chain, removing from pending log", item.correlationID, action.Digest())
		return
	}

	gas := e.chain.GetGasData(ctx, e.gasObjectID)
	if err := gas.AssertOwnedBy(e.signer.Address()); err != nil {
		e.fatal("[%s] execution stage: %v", item.correlationID, err)
		return
	}

	txData, err := e.buildTx(e.signer.Address(), gas.Ref, *item.certified)
	if err != nil {
		e.logger.Printf("[%s] failed to build transaction for action %s: %v (not retrying, inputs will not change)", item.correlationID, action.Digest(), err)
		return
	}

	txData.Signature = e.signer.Sign(append(txData.Payload, txData.Intent...))

	e.metrics.ObserveExecutionAttempt(item.attempt)
	e.logger.Printf("[%s] submitting settlement transaction for action %s (gas %s)", item.correlationID, action.Digest(), gas.Ref.ObjectID)

	effects, err := e.chain.ExecuteTransaction(ctx, txData)
	if err != nil {
		e.logger.Printf("[%s] transaction submission failed for action %s (attempt %d): %v", item.correlationID, action.Digest(), item.attempt, err)
		e.retry(ctx, item)
		return
	}

	e.handleEffects(ctx, item.correlationID, effects, action)
}

// retry reschedules a failed submission with backoff, in a fresh goroutine
// so a deep retry chain never holds the original goroutine's stack.
func (e *executionStage) retry(ctx context.Context, item executionItem) {
	if item.attempt >= bridge.MaxExecutionAttempts {
		e.logger.Printf("[%s] manual intervention required: gave up submitting action %s after %d attempts", item.correlationID, item.certified.Action.Digest(), bridge.MaxExecutionAttempts)
		e.metrics.IncExecutionGiveUp()
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-afterBackoff(ctx, item.attempt):
		}
		select {
		case e.in <- executionItem{certified: item.certified, attempt: item.attempt + 1, correlationID: item.correlationID}:
		case <-ctx.Done():
		}
	}()
}

// handleEffects interprets the chain's execution outcome. Success removes
// the action from the pending log. Failure means the chain ran the
// transaction and it reverted; this is not retried since a resubmission
// would revert identically, and is logged for manual intervention instead.
func (e *executionStage) handleEffects(ctx context.Context, correlationID uuid.UUID, effects bridge.Effects, action bridge.Action) {
	e.metrics.ObserveEffects(effects.Status)
	switch effects.Status {
	case bridge.EffectsSuccess:
		e.logger.Printf("[%s] settlement transaction %s for action %s executed successfully", correlationID, effects.TxDigest, action.Digest())
		e.wal.Remove(ctx, []bridge.Digest{action.Digest()})
	case bridge.EffectsFailure:
		e.logger.Printf("[%s] manual intervention required: settlement transaction %s for action %s executed and failed: %s", correlationID, effects.TxDigest, action.Digest(), effects.Error)
	}
}
