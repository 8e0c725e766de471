// Package block defines the Block type, its Merkle commitment, and the
// proof-of-work/temporal validity predicates checked on acceptance
// (spec.md §3 "Block", §4.4 "Block & Proof-of-Work").
package block

import (
	"encoding/binary"
	"strings"

	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/merkle"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Block is a single link in the chain: an index, the previous block's
// hash, a timestamp, a proof-of-work nonce, and the transaction set
// committed to by a Merkle tree. There is no separate header type — the
// block's identity is exactly this tuple.
type Block struct {
	Index        uint64
	PreviousHash types.Hash
	Timestamp    int64
	Nonce        int64
	Transactions []*tx.Transaction
	MerkleTree   merkle.Tree
}

// NewBlock builds a block over txs (the first of which must be the
// coinbase) with the Merkle tree already computed.
func NewBlock(index uint64, previousHash types.Hash, timestamp int64, txs []*tx.Transaction) *Block {
	b := &Block{
		Index:        index,
		PreviousHash: previousHash,
		Timestamp:    timestamp,
		Transactions: txs,
	}
	b.RebuildMerkleTree()
	return b
}

// RebuildMerkleTree recomputes MerkleTree from the current
// Transactions. Callers must call this after mutating Transactions.
func (b *Block) RebuildMerkleTree() {
	leaves := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		leaves[i] = t.Hash()
	}
	b.MerkleTree = merkle.Build(leaves)
}

// MerkleRoot returns the root of MerkleTree.
func (b *Block) MerkleRoot() types.Hash {
	return b.MerkleTree.Root()
}

// Hash computes the block's content hash over
// (index, previous_hash, merkle_root, nonce, timestamp), recomputed on
// demand rather than cached.
func (b *Block) Hash() types.Hash {
	return crypto.Hash(b.signingBytes())
}

func (b *Block) signingBytes() []byte {
	root := b.MerkleRoot()
	var buf []byte
	buf = binary.BigEndian.AppendUint64(buf, b.Index)
	buf = append(buf, b.PreviousHash[:]...)
	buf = append(buf, root[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Nonce))
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Timestamp))
	return buf
}

// Equal compares two blocks by (previous_hash, hash, timestamp, nonce),
// the equality relation spec.md §3 defines for Block.
func (b *Block) Equal(other *Block) bool {
	if other == nil {
		return false
	}
	return b.PreviousHash == other.PreviousHash &&
		b.Hash() == other.Hash() &&
		b.Timestamp == other.Timestamp &&
		b.Nonce == other.Nonce
}

// IsProofOfWorkValid reports whether the block's hash has at least
// difficulty leading hex-zero characters.
func (b *Block) IsProofOfWorkValid(difficulty int) bool {
	h := b.Hash().String()
	if difficulty > len(h) {
		return false
	}
	return strings.HasPrefix(h, strings.Repeat("0", difficulty))
}

// SatisfiesTemporalRule reports whether Nonce >= Timestamp: the
// anti-cheating rule that prevents fabricating an instant solve after
// the fact, since Nonce is itself the ns-timestamp captured at the
// moment a solution was found.
func (b *Block) SatisfiesTemporalRule() bool {
	return b.Nonce >= b.Timestamp
}

// IsValidSolution reports whether the block independently satisfies
// both PoW validity and the temporal rule.
func (b *Block) IsValidSolution(difficulty int) bool {
	return b.IsProofOfWorkValid(difficulty) && b.SatisfiesTemporalRule()
}
