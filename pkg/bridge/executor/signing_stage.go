// Copyright 2025 Certen Protocol
//
// Package executor wires the two stages of the Bridge Action Executor
// together: signature aggregation followed by on-chain execution. It is
// grounded in action_executor.rs's run_signature_aggregation_loop and
// run_onchain_execution_loop, adapted to dispatch each queue item on its
// own goroutine so one slow action can never block the receive loop behind
// it.
package executor

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// signingItem is one action in flight through the signing stage, carrying
// its retry count and the correlation ID assigned when the action first
// entered the pipeline (via Submit or Recover), so every attempt across
// both stages and every retry goroutine can be traced back to it in logs.
type signingItem struct {
	action        bridge.Action
	attempt       uint64
	correlationID uuid.UUID
}

// signingStage collects a validity-threshold quorum of committee
// signatures for each action it receives, and on success forwards a
// CertifiedAction to the execution stage.
type signingStage struct {
	chain      bridge.ChainClient
	aggregator bridge.AuthorityAggregator
	wal        bridge.PendingLog
	threshold  uint64
	logger     *log.Logger
	metrics    bridge.Metrics

	in  chan signingItem
	out chan<- executionItem
}

// run drains the signing queue until it is closed or ctx is canceled,
// dispatching each received item to its own goroutine so an action stuck
// waiting on committee responses never delays the next one in the queue.
func (s *signingStage) run(ctx context.Context) {
	s.logger.Printf("starting signing stage")
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-s.in:
			if !ok {
				return
			}
			go s.process(ctx, item)
		}
	}
}

// process handles a single signing attempt: skip if already settled on
// chain, otherwise request a committee certificate and either forward it
// to execution or reschedule the retry with backoff.
func (s *signingStage) process(ctx context.Context, item signingItem) {
	if checkAlreadyProcessed(ctx, s.chain, s.wal, item.action) {
		s.logger.Printf("[%s] action %s already settled on chain, removing from pending log", item.correlationID, item.action.Digest())
		return
	}

	s.metrics.ObserveSigningAttempt(item.attempt)

	certified, err := s.aggregator.RequestCommitteeSignatures(ctx, item.action, s.threshold)
	if err == nil {
		select {
		case s.out <- executionItem{certified: certified, attempt: 0, correlationID: item.correlationID}:
		case <-ctx.Done():
		}
		return
	}

	s.logger.Printf("[%s] failed to collect signatures for action %s (attempt %d): %v", item.correlationID, item.action.Digest(), item.attempt, err)

	if item.attempt >= bridge.MaxSigningAttempts {
		s.logger.Printf("[%s] manual intervention required: gave up collecting signatures for action %s after %d attempts", item.correlationID, item.action.Digest(), bridge.MaxSigningAttempts)
		s.metrics.IncSigningGiveUp()
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-afterBackoff(ctx, item.attempt):
	}

	select {
	case s.in <- signingItem{action: item.action, attempt: item.attempt + 1, correlationID: item.correlationID}:
	case <-ctx.Done():
	}
}
