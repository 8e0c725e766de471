package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Script is an ordered sequence of opcode/literal tokens, evaluated by
// pkg/script against a shared stack. The core treats scripts as opaque
// token lists — see spec.md §4.1 and §9's open question on
// unlocking/locking pairing.
type Script []string

// UTXOKey formats the canonical "{tx_hash}:{output_index}" identifier
// used to key the UTXO set (spec.md §3).
func UTXOKey(txHash Hash, outputIndex uint32) string {
	return fmt.Sprintf("%s:%d", txHash, outputIndex)
}

// ParseUTXOKey splits a "{tx_hash}:{output_index}" identifier back into
// its parts, the inverse of UTXOKey.
func ParseUTXOKey(id string) (Hash, uint32, error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return Hash{}, 0, fmt.Errorf("invalid utxo id %q", id)
	}
	h, err := HexToHash(parts[0])
	if err != nil {
		return Hash{}, 0, err
	}
	idx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Hash{}, 0, fmt.Errorf("invalid utxo id %q: %w", id, err)
	}
	return h, uint32(idx), nil
}
