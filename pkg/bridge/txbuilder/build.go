// Copyright 2025 Certen Protocol
//
// Package txbuilder builds the settlement transaction that carries a
// CertifiedAction on-chain, and implements the bridge.ChainClient contract
// that submits it. The build step is grounded in
// mgo_transaction_builder::build_transaction from the original executor;
// the client is grounded in the RPC-endpoint/config shape of
// pkg/chain/strategy/move_strategy.go's stub, narrowed to the four-method
// contract spec.md §6 actually requires.
package txbuilder

import (
	"encoding/binary"
	"fmt"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// intentScope tags the payload so a signature over a settlement
// transaction can never be replayed as a signature over unrelated data.
const intentScope = "bridge-settlement-tx-v1"

// Build constructs the settlement transaction payload for a certified
// action. The result is a pure function of its inputs: the same node
// address, gas object reference and certified action always produce
// byte-identical payload bytes, so a crash-and-retry rebuild digests
// identically to the original attempt and never double-submits a
// divergent transaction.
func Build(nodeAddress bridge.Address, gasRef bridge.ObjectRef, certified bridge.CertifiedAction) (bridge.SignedTransaction, error) {
	if certified.Action == nil {
		return bridge.SignedTransaction{}, fmt.Errorf("txbuilder: certified action has no action")
	}
	if len(certified.Signatures.Signers) == 0 {
		return bridge.SignedTransaction{}, fmt.Errorf("txbuilder: certified action carries no signatures")
	}

	payload := encodePayload(nodeAddress, gasRef, certified)

	return bridge.SignedTransaction{
		Sender:     nodeAddress,
		GasPayment: gasRef,
		Payload:    payload,
		Intent:     []byte(intentScope),
	}, nil
}

// encodePayload deterministically serializes the transaction body: sender,
// gas reference, the action bytes, the ordered signer set, and the
// aggregate signature. Sender and gas reference are fixed-size; every
// variable-length field is length-prefixed so no field can bleed into the
// next.
func encodePayload(nodeAddress bridge.Address, gasRef bridge.ObjectRef, certified bridge.CertifiedAction) []byte {
	actionBytes := certified.Action.Bytes()

	var buf []byte
	buf = append(buf, nodeAddress[:]...)
	buf = append(buf, gasRef.ObjectID[:]...)
	buf = appendUint64(buf, gasRef.Version)
	buf = append(buf, gasRef.Digest[:]...)

	buf = appendUint64(buf, uint64(len(actionBytes)))
	buf = append(buf, actionBytes...)

	buf = appendUint64(buf, uint64(len(certified.Signatures.Signers)))
	for _, signer := range certified.Signatures.Signers {
		signerBytes := []byte(signer)
		buf = appendUint64(buf, uint64(len(signerBytes)))
		buf = append(buf, signerBytes...)
	}

	buf = appendUint64(buf, uint64(len(certified.Signatures.Aggregate)))
	buf = append(buf, certified.Signatures.Aggregate...)

	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
