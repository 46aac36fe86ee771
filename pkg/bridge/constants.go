// Copyright 2025 Certen Protocol

package bridge

// Constants shared by both pipeline stages, per spec.
const (
	// ChannelSize is the capacity of the signing and execution queues.
	ChannelSize = 1000

	// MaxSigningAttempts bounds how many times the signing stage retries
	// committee signature collection for one action before giving up and
	// leaving it for a restart to pick back up from the WAL.
	MaxSigningAttempts = 16

	// MaxExecutionAttempts bounds how many times the execution stage
	// retries submitting a certified action after a transient submission
	// failure.
	MaxExecutionAttempts = 16
)
