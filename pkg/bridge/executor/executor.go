// Copyright 2025 Certen Protocol
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// queueMetricsInterval is how often Run samples queue depths into Metrics.
const queueMetricsInterval = 5 * time.Second

// BuildTransaction builds the deterministic settlement transaction payload
// for a certified action. Satisfied by txbuilder.Build; declared here so
// the executor package depends only on bridge's interfaces, not on the
// concrete txbuilder package.
type BuildTransaction func(nodeAddress bridge.Address, gasRef bridge.ObjectRef, certified bridge.CertifiedAction) (bridge.SignedTransaction, error)

// Executor runs the Bridge Action Executor's two-stage pipeline: signature
// aggregation followed by on-chain execution, connected by bounded queues
// and backed by a durable pending log. It is grounded in
// BridgeActionExecutor::run_inner, which owns both loops and the channels
// between them.
type Executor struct {
	wal     bridge.PendingLog
	logger  *log.Logger
	metrics bridge.Metrics

	signing   *signingStage
	execution *executionStage

	signingQueue   chan signingItem
	executionQueue chan executionItem
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithMetrics attaches an observer for queue depths, attempt counts and
// effects outcomes. Defaults to bridge.NoopMetrics.
func WithMetrics(metrics bridge.Metrics) Option {
	return func(e *Executor) { e.metrics = metrics }
}

// New builds an Executor. gasObjectID names the gas coin the node's
// address must own to pay for settlement transactions; threshold is the
// committee's validity threshold in stake units.
func New(
	chain bridge.ChainClient,
	aggregator bridge.AuthorityAggregator,
	wal bridge.PendingLog,
	signer bridge.Signer,
	gasObjectID bridge.ObjectID,
	threshold uint64,
	buildTx BuildTransaction,
	opts ...Option,
) *Executor {
	signingQueue := make(chan signingItem, bridge.ChannelSize)
	executionQueue := make(chan executionItem, bridge.ChannelSize)

	e := &Executor{
		wal:            wal,
		logger:         log.New(log.Writer(), "[Executor] ", log.LstdFlags),
		metrics:        bridge.NoopMetrics{},
		signingQueue:   signingQueue,
		executionQueue: executionQueue,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.signing = &signingStage{
		chain:      chain,
		aggregator: aggregator,
		wal:        wal,
		threshold:  threshold,
		logger:     log.New(log.Writer(), "[SigningStage] ", log.LstdFlags),
		metrics:    e.metrics,
		in:         signingQueue,
		out:        executionQueue,
	}
	e.execution = &executionStage{
		chain:       chain,
		signer:      signer,
		wal:         wal,
		gasObjectID: gasObjectID,
		buildTx:     buildTx,
		logger:      log.New(log.Writer(), "[ExecutionStage] ", log.LstdFlags),
		fatal:       log.Fatalf,
		metrics:     e.metrics,
		in:          executionQueue,
	}

	return e
}

// Submit enqueues action for signature collection at attempt 0. Callers
// (the bridge orchestrator) are expected to have already durably inserted
// the action into the pending log before calling Submit; Submit itself
// never touches the WAL. Submit blocks under backpressure when the signing
// queue is full — it never drops an action — and returns an error only if
// ctx is canceled while waiting.
func (e *Executor) Submit(ctx context.Context, action bridge.Action) error {
	select {
	case e.signingQueue <- signingItem{action: action, attempt: 0, correlationID: uuid.New()}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("executor: submit action %s: %w", action.Digest(), ctx.Err())
	}
}

// Recover scans the pending log and re-enqueues every entry found there at
// attempt 0, restoring in-flight actions lost to a restart. It must run
// before Run's stages start draining their queues, so startup recovery
// volume doesn't race a freshly submitted action past its place in the WAL.
func (e *Executor) Recover(ctx context.Context) {
	pending := e.wal.GetAll(ctx)
	e.logger.Printf("recovering %d pending action(s) from the log", len(pending))
	for _, action := range pending {
		correlationID := uuid.New()
		e.logger.Printf("[%s] recovered action %s from pending log", correlationID, action.Digest())
		select {
		case e.signingQueue <- signingItem{action: action, attempt: 0, correlationID: correlationID}:
		case <-ctx.Done():
			return
		}
	}
}

// Run starts both pipeline stages and blocks until ctx is canceled.
func (e *Executor) Run(ctx context.Context) {
	done := make(chan struct{}, 2)
	go func() {
		e.signing.run(ctx)
		done <- struct{}{}
	}()
	go func() {
		e.execution.run(ctx)
		done <- struct{}{}
	}()
	go e.reportQueueDepths(ctx)
	<-done
	<-done
}

// reportQueueDepths periodically samples both queue lengths into Metrics.
func (e *Executor) reportQueueDepths(ctx context.Context) {
	ticker := time.NewTicker(queueMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.metrics.SetQueueDepth("signing", len(e.signingQueue))
			e.metrics.SetQueueDepth("execution", len(e.executionQueue))
		}
	}
}
