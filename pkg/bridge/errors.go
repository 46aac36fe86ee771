// Copyright 2025 Certen Protocol

package bridge

import "errors"

// Sentinel errors for the bridge action executor. F.4-style: explicit
// errors instead of nil, nil or bare bool returns.
var (
	// ErrActionNotFound names a digest with no corresponding entry in the
	// pending log. PendingLog's methods return no errors, so nothing in
	// this repository returns it.
	ErrActionNotFound = errors.New("bridge: action not found in pending log")

	// ErrGasOwnerMismatch is returned by GasObject.AssertOwnedBy when the
	// gas object is not owned by the node address. The execution stage
	// treats this as fatal: the node is misconfigured or the gas object
	// has been transferred out.
	ErrGasOwnerMismatch = errors.New("bridge: gas object not owned by node address")

	// ErrSignatureThresholdNotMet is returned by an AuthorityAggregator
	// when collected stake never reached the validity threshold.
	ErrSignatureThresholdNotMet = errors.New("bridge: committee signatures did not reach validity threshold")

	// ErrAttemptsExhausted describes a stage giving up after its attempt
	// cap. The stages do not return or log this value; their give-up log
	// lines carry the same "manual intervention required" wording.
	ErrAttemptsExhausted = errors.New("bridge: attempt cap exhausted, manual intervention required")

	// ErrQueueClosed names a send on a queue closed for shutdown. The
	// Executor never closes its queues and Submit fails only when its
	// context is canceled, so nothing in this repository returns it.
	ErrQueueClosed = errors.New("bridge: queue closed")

	// ErrBuildFailed wraps a deterministic transaction-build failure.
	// This is treated as a defect, not a transient condition: the item is
	// logged and abandoned rather than retried.
	ErrBuildFailed = errors.New("bridge: failed to build settlement transaction")
)
