// Copyright 2025 Certen Protocol
//
// Package bridge implements the Bridge Action Executor: the durable,
// two-stage pipeline that turns a bridge action into a signed, submitted
// settlement transaction on the destination chain.
package bridge

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Digest is a collision-resistant content hash and the equality key for a
// bridge action. Two actions with the same Digest are the same action.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Address is a 20-byte chain address, compatible with go-ethereum's
// common.Address encoding.
type Address [20]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ObjectID identifies an on-chain object (the Move/Sui-style object model
// spec.md's GasObject is built on).
type ObjectID [32]byte

func (o ObjectID) String() string {
	return hex.EncodeToString(o[:])
}

// ObjectIDFromHex parses a hex-encoded object ID, tolerating an optional
// 0x prefix.
func ObjectIDFromHex(s string) (ObjectID, error) {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ObjectID{}, fmt.Errorf("bridge: decode object id: %w", err)
	}
	var id ObjectID
	if len(b) != len(id) {
		return ObjectID{}, fmt.Errorf("bridge: object id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ObjectRef pins an object to a specific version, the way Move/Sui
// reference objects for deterministic transaction construction.
type ObjectRef struct {
	ObjectID ObjectID
	Version  uint64
	Digest   Digest
}

// AuthorityID names a member of the signing committee.
type AuthorityID string

// Action is an opaque bridge action: a request to settle a cross-chain
// transfer on the destination chain. The executor never interprets its
// contents; it only needs a stable digest and canonical bytes to persist
// and to fold into the settlement transaction payload.
type Action interface {
	Digest() Digest
	Bytes() []byte
}

// TransferAction is a minimal concrete Action: a cross-chain transfer
// request identified by its source chain, nonce and recipient. Real
// deployments carry richer, versioned action payloads; this type exists so
// the executor has something concrete to drive through its pipeline and
// tests.
type TransferAction struct {
	SourceChain string
	Nonce       uint64
	Recipient   Address
	Amount      uint64
	TokenID     uint8
}

// Bytes returns a canonical big-endian encoding of the action, the same
// bytes that feed Digest() and the settlement transaction payload.
func (a *TransferAction) Bytes() []byte {
	buf := make([]byte, 0, len(a.SourceChain)+1+8+20+8+1)
	buf = append(buf, byte(len(a.SourceChain)))
	buf = append(buf, a.SourceChain...)
	buf = appendUint64(buf, a.Nonce)
	buf = append(buf, a.Recipient[:]...)
	buf = appendUint64(buf, a.Amount)
	buf = append(buf, a.TokenID)
	return buf
}

// Digest hashes the canonical encoding with Keccak256, mirroring how
// go-ethereum derives transaction and object hashes.
func (a *TransferAction) Digest() Digest {
	return Digest(crypto.Keccak256Hash(a.Bytes()))
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	return append(buf, tmp[:]...)
}

// SignatureSet is the set of distinct committee signatures backing a
// CertifiedAction, along with the stake they represent.
type SignatureSet struct {
	Signers     []AuthorityID
	Aggregate   []byte // aggregate BLS signature bytes
	StakeWeight uint64
}

// CertifiedAction is a bridge action accompanied by a signature set meeting
// the validity threshold. It is produced by the signing stage, never
// persisted, and reconstructible by re-running signature collection.
type CertifiedAction struct {
	Action     Action
	Signatures SignatureSet
}

// GasObject is the coin object that pays for the settlement transaction.
// Its invariant (Owner == node address) is checked once per execution
// attempt and is fatal if violated.
type GasObject struct {
	Coin    uint64
	Ref     ObjectRef
	Owner   Address
}

// AssertOwnedBy returns ErrGasOwnerMismatch if the gas object is not owned
// by addr. Callers that treat ownership as a hard precondition (the
// execution stage) escalate this to a fatal abort per spec.
func (g GasObject) AssertOwnedBy(addr Address) error {
	if g.Owner != addr {
		return fmt.Errorf("%w: gas object %s owned by %s, node address is %s",
			ErrGasOwnerMismatch, g.Ref.ObjectID, g.Owner, addr)
	}
	return nil
}

// OnChainStatus is the destination chain's authoritative answer to "has
// this action already been settled".
type OnChainStatus int

const (
	StatusPending OnChainStatus = iota
	StatusApproved
	StatusClaimed
	StatusRecordNotFound
)

func (s OnChainStatus) String() string {
	switch s {
	case StatusApproved:
		return "approved"
	case StatusClaimed:
		return "claimed"
	case StatusPending:
		return "pending"
	case StatusRecordNotFound:
		return "record_not_found"
	default:
		return "unknown"
	}
}

// IsTerminalSuccess reports whether the status means the action is already
// finalized on chain and the WAL entry can be removed.
func (s OnChainStatus) IsTerminalSuccess() bool {
	return s == StatusApproved || s == StatusClaimed
}

// EffectsStatus is the outcome of an executed transaction.
type EffectsStatus int

const (
	EffectsSuccess EffectsStatus = iota
	EffectsFailure
)

// Effects is the destination chain's report of what a submitted
// transaction did.
type Effects struct {
	Status   EffectsStatus
	Error    string
	TxDigest Digest
}

// SignedTransaction is a fully built and signed settlement transaction,
// ready for submission.
type SignedTransaction struct {
	Sender     Address
	GasPayment ObjectRef
	Payload    []byte
	Intent     []byte
	Signature  []byte
}

// Digest is the transaction digest: Keccak256 over the signed bytes. Given
// identical Payload/Intent/Signature this is always the same value, which
// is what makes retrying a submission idempotent on chain.
func (tx SignedTransaction) Digest() Digest {
	h := crypto.Keccak256Hash(tx.Sender[:], tx.GasPayment.ObjectID[:], tx.Payload, tx.Intent, tx.Signature)
	return Digest(h)
}

// PendingLog is the durable, at-least-once store of not-yet-finalized
// actions (the write-ahead log). Implementations must treat write failure
// as fatal: a silent drop here breaks at-least-once delivery.
type PendingLog interface {
	Insert(ctx context.Context, actions []Action)
	Remove(ctx context.Context, digests []Digest)
	GetAll(ctx context.Context) map[Digest]Action
}

// ChainClient is the destination chain client the executor consumes. Its
// serialization, transport and the cryptographic primitives underneath are
// out of scope; only this method set matters to the executor.
type ChainClient interface {
	// GetActionStatusUntilSuccess retries internally until a definitive,
	// non-transport-error status is obtained.
	GetActionStatusUntilSuccess(ctx context.Context, action Action) OnChainStatus
	// GetGasData panics if objectID does not refer to a gas coin.
	GetGasData(ctx context.Context, objectID ObjectID) GasObject
	ExecuteTransaction(ctx context.Context, tx SignedTransaction) (Effects, error)
	// SubscribeDigests returns a channel broadcasting every transaction
	// digest this client has submitted, for observability and tests.
	SubscribeDigests() <-chan Digest
}

// AuthorityAggregator collects a validity-threshold quorum of committee
// signatures for an action. Its internal RPC fan-out is an external
// collaborator; only this contract is consumed by the signing stage.
type AuthorityAggregator interface {
	RequestCommitteeSignatures(ctx context.Context, action Action, threshold uint64) (*CertifiedAction, error)
}

// Signer produces the node's own signature over a transaction intent
// message, using the node's held private key.
type Signer interface {
	Address() Address
	Sign(intentMessage []byte) []byte
}
