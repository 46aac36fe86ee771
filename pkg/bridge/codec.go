// Copyright 2025 Certen Protocol

package bridge

import "fmt"

// TransferCodec decodes the canonical TransferAction.Bytes() encoding
// persisted by the pending log back into a *TransferAction. It is the only
// Action variant this repository defines; a deployment with richer action
// types supplies its own wal.Codec.
type TransferCodec struct{}

// Decode implements wal.Codec.
func (TransferCodec) Decode(payload []byte) (Action, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("bridge: decode transfer action: empty payload")
	}
	sourceLen := int(payload[0])
	offset := 1 + sourceLen
	const fixedLen = 8 + 20 + 8 + 1 // nonce + recipient + amount + tokenID
	if len(payload) != offset+fixedLen {
		return nil, fmt.Errorf("bridge: decode transfer action: want %d bytes, got %d", offset+fixedLen, len(payload))
	}

	a := &TransferAction{
		SourceChain: string(payload[1:offset]),
	}
	a.Nonce = decodeUint64(payload[offset : offset+8])
	offset += 8
	copy(a.Recipient[:], payload[offset:offset+20])
	offset += 20
	a.Amount = decodeUint64(payload[offset : offset+8])
	offset += 8
	a.TokenID = payload[offset]

	return a, nil
}

func decodeUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
