// Copyright 2025 Certen Protocol
package txbuilder

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mangonet-labs/bridge-node/pkg/bridge"
)

// NodeSigner signs settlement transactions with the node's own ECDSA key,
// using go-ethereum's secp256k1 implementation (the same library the node
// already depends on for Keccak256 digests).
type NodeSigner struct {
	key     *ecdsa.PrivateKey
	address bridge.Address
}

// NewNodeSigner loads a node signing key from its hex-encoded secp256k1
// private key.
func NewNodeSigner(hexKey string) (*NodeSigner, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: parse node signing key: %w", err)
	}
	return &NodeSigner{
		key:     key,
		address: bridge.Address(crypto.PubkeyToAddress(key.PublicKey)),
	}, nil
}

// Address implements bridge.Signer.
func (s *NodeSigner) Address() bridge.Address {
	return s.address
}

// Sign implements bridge.Signer, signing the Keccak256 hash of the intent
// message the same way go-ethereum signs transaction hashes.
func (s *NodeSigner) Sign(intentMessage []byte) []byte {
	hash := crypto.Keccak256Hash(intentMessage)
	sig, err := crypto.Sign(hash[:], s.key)
	if err != nil {
		panic(fmt.Sprintf("txbuilder: sign intent message: %v", err))
	}
	return sig
}
