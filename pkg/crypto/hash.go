// Package crypto provides cryptographic primitives for the chain: content
// hashing and address derivation. The signature primitive lives in
// signature.go.
package crypto

import (
	"github.com/cindermesh/cinderchain/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// AddressFromPubKey derives an address from a compressed public key:
// Address = BLAKE3(compressed_pubkey) (spec.md §2, "Address derivation").
func AddressFromPubKey(pubKey []byte) types.Address {
	return types.Address(Hash(pubKey))
}
