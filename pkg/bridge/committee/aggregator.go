// Copyright 2025 Certen Protocol
//
// Package committee implements the authority aggregator the signing stage
// consumes: it fans a signature request out to every committee member
// concurrently and combines whatever arrives into a CertifiedAction once
// enough stake has signed. spec.md treats this fan-out as an external
// collaborator and specifies only its request_committee_signatures
// contract; this is a concrete implementation supplementing that contract,
// grounded in pkg/attestation/service.go's peer-broadcast pattern.
package committee

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
	"github.com/mangonet-labs/bridge-node/pkg/crypto/bls"
)

// AuthoritySignatureResponse is one authority's signed response to a
// signature request.
type AuthoritySignatureResponse struct {
	AuthorityID bridge.AuthorityID
	PublicKey   *bls.PublicKey
	Signature   *bls.Signature
}

// AuthorityClient requests a single authority's signature over an action.
type AuthorityClient interface {
	RequestSignature(ctx context.Context, action bridge.Action) (*AuthoritySignatureResponse, error)
}

// Member is one committee member as configured for the aggregator.
type Member struct {
	ID        bridge.AuthorityID
	PublicKey *bls.PublicKey
	Stake     uint64
	Client    AuthorityClient
}

// Aggregator implements bridge.AuthorityAggregator.
type Aggregator struct {
	members []Member
	logger  *log.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// NewAggregator builds an aggregator over the given committee members.
func NewAggregator(members []Member, opts ...Option) *Aggregator {
	a := &Aggregator{
		members: members,
		logger:  log.New(log.Writer(), "[Committee] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type signatureResult struct {
	member Member
	resp   *AuthoritySignatureResponse
	err    error
}

// RequestCommitteeSignatures fans the request out to every member
// concurrently, verifies each individual signature against the action
// digest, and returns as soon as enough stake has signed to cross
// threshold. If every member has answered and threshold was never
// reached, it returns ErrSignatureThresholdNotMet.
func (a *Aggregator) RequestCommitteeSignatures(ctx context.Context, action bridge.Action, threshold uint64) (*bridge.CertifiedAction, error) {
	message := action.Digest()
	results := make(chan signatureResult, len(a.members))

	for _, m := range a.members {
		go func(m Member) {
			resp, err := m.Client.RequestSignature(ctx, action)
			results <- signatureResult{member: m, resp: resp, err: err}
		}(m)
	}

	var (
		collectedStake uint64
		signatures     []*bls.Signature
		publicKeys     []*bls.PublicKey
		signers        []bridge.AuthorityID
	)

	for i := 0; i < len(a.members); i++ {
		r := <-results
		if r.err != nil {
			a.logger.Printf("authority %s failed to sign: %v", r.member.ID, r.err)
			continue
		}
		if !r.resp.PublicKey.Equal(r.member.PublicKey) {
			a.logger.Printf("authority %s returned a public key mismatch, rejecting", r.member.ID)
			continue
		}
		if !r.resp.PublicKey.Verify(r.resp.Signature, message[:]) {
			a.logger.Printf("authority %s signature failed verification, rejecting", r.member.ID)
			continue
		}

		signatures = append(signatures, r.resp.Signature)
		publicKeys = append(publicKeys, r.resp.PublicKey)
		signers = append(signers, r.member.ID)
		collectedStake += r.member.Stake

		if collectedStake >= threshold {
			break
		}
	}

	if collectedStake < threshold {
		return nil, fmt.Errorf("%w: collected stake %d of required %d from %d/%d authorities",
			bridge.ErrSignatureThresholdNotMet, collectedStake, threshold, len(signers), len(a.members))
	}

	aggSig, err := bls.AggregateSignatures(signatures)
	if err != nil {
		return nil, fmt.Errorf("committee: aggregate signatures: %w", err)
	}
	if !bls.VerifyAggregateSignature(aggSig, publicKeys, message[:]) {
		return nil, fmt.Errorf("committee: aggregate signature failed verification")
	}

	return &bridge.CertifiedAction{
		Action: action,
		Signatures: bridge.SignatureSet{
			Signers:     signers,
			Aggregate:   aggSig.Bytes(),
			StakeWeight: collectedStake,
		},
	}, nil
}

// httpRequestTimeout is the default per-request timeout of
// HTTPAuthorityClient. A request that exceeds it fails, and the aggregator
// counts that authority as not having signed (the fan-out loop above
// already stops waiting once threshold is met).
const httpRequestTimeout = 30 * time.Second
