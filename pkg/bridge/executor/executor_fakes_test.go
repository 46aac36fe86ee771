// Copyright 2025 Certen Protocol

package executor

import (
	"context"
	"sync"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

type fakeAction struct{ digest bridge.Digest }

func (f fakeAction) Digest() bridge.Digest { return f.digest }
func (f fakeAction) Bytes() []byte         { return f.digest[:] }

// fakeChain is a bridge.ChainClient test double whose every behavior is
// configurable per test without needing a real JSON-RPC server.
type fakeChain struct {
	mu sync.Mutex

	status         bridge.OnChainStatus
	gas            bridge.GasObject
	executeEffects bridge.Effects
	executeErr     error
	executeCalls   int
	digests        chan bridge.Digest
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		status:         bridge.StatusPending,
		executeEffects: bridge.Effects{Status: bridge.EffectsSuccess},
		digests:        make(chan bridge.Digest, 16),
	}
}

func (c *fakeChain) GetActionStatusUntilSuccess(ctx context.Context, action bridge.Action) bridge.OnChainStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeChain) GetGasData(ctx context.Context, objectID bridge.ObjectID) bridge.GasObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gas
}

func (c *fakeChain) ExecuteTransaction(ctx context.Context, tx bridge.SignedTransaction) (bridge.Effects, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executeCalls++
	if c.executeErr != nil {
		return bridge.Effects{}, c.executeErr
	}
	effects := c.executeEffects
	if effects.TxDigest == (bridge.Digest{}) {
		effects.TxDigest = tx.Digest()
	}
	c.digests <- effects.TxDigest
	return effects, nil
}

func (c *fakeChain) SubscribeDigests() <-chan bridge.Digest { return c.digests }

func (c *fakeChain) setExecuteCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executeCalls
}

// fakeAggregator is a bridge.AuthorityAggregator test double.
type fakeAggregator struct {
	mu       sync.Mutex
	err      error
	calls    int
	response *bridge.CertifiedAction
}

func (a *fakeAggregator) RequestCommitteeSignatures(ctx context.Context, action bridge.Action, threshold uint64) (*bridge.CertifiedAction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	if a.response != nil {
		return a.response, nil
	}
	return &bridge.CertifiedAction{
		Action: action,
		Signatures: bridge.SignatureSet{
			Signers:     []bridge.AuthorityID{"a1"},
			Aggregate:   []byte{0x01},
			StakeWeight: threshold,
		},
	}, nil
}

func (a *fakeAggregator) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// fakeWAL is a bridge.PendingLog test double.
type fakeWAL struct {
	mu      sync.Mutex
	entries map[bridge.Digest]bridge.Action
	removed []bridge.Digest
}

func newFakeWAL() *fakeWAL {
	return &fakeWAL{entries: make(map[bridge.Digest]bridge.Action)}
}

func (w *fakeWAL) Insert(ctx context.Context, actions []bridge.Action) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range actions {
		w.entries[a.Digest()] = a
	}
}

func (w *fakeWAL) Remove(ctx context.Context, digests []bridge.Digest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range digests {
		delete(w.entries, d)
		w.removed = append(w.removed, d)
	}
}

func (w *fakeWAL) GetAll(ctx context.Context) map[bridge.Digest]bridge.Action {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[bridge.Digest]bridge.Action, len(w.entries))
	for d, a := range w.entries {
		out[d] = a
	}
	return out
}

func (w *fakeWAL) wasRemoved(d bridge.Digest) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.removed {
		if r == d {
			return true
		}
	}
	return false
}

// fakeSigner is a bridge.Signer test double.
type fakeSigner struct{ addr bridge.Address }

func (s fakeSigner) Address() bridge.Address    { return s.addr }
func (s fakeSigner) Sign(msg []byte) []byte     { return []byte("signed:" + string(msg)) }

// fakeMetrics is a bridge.Metrics test double recording every call.
type fakeMetrics struct {
	mu               sync.Mutex
	signingGiveUps   int
	executionGiveUps int
	effectsObserved  []bridge.EffectsStatus
}

func (m *fakeMetrics) SetQueueDepth(queue string, depth int)    {}
func (m *fakeMetrics) ObserveSigningAttempt(attempt uint64)     {}
func (m *fakeMetrics) ObserveExecutionAttempt(attempt uint64)   {}
func (m *fakeMetrics) IncSigningGiveUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signingGiveUps++
}
func (m *fakeMetrics) IncExecutionGiveUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executionGiveUps++
}
func (m *fakeMetrics) ObserveEffects(status bridge.EffectsStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.effectsObserved = append(m.effectsObserved, status)
}

func (m *fakeMetrics) signingGiveUpCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signingGiveUps
}

func (m *fakeMetrics) executionGiveUpCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionGiveUps
}

func sampleBuildTx(nodeAddress bridge.Address, gasRef bridge.ObjectRef, certified bridge.CertifiedAction) (bridge.SignedTransaction, error) {
	return bridge.SignedTransaction{
		Sender:     nodeAddress,
		GasPayment: bridge.GasObject{Ref: gasRef},
		Payload:    certified.Action.Bytes(),
		Intent:     []byte("intent"),
	}, nil
}
