// Package merkle builds the commutative Merkle tree committed to by each
// block and verifies inclusion proofs against it (spec.md §4.3).
package merkle

import (
	"math/big"

	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Tree is an indexed-array representation of a Merkle tree: Levels[0] is
// the leaf layer and the last entry is the single-element root layer.
// Parent/child relationships are derived from index arithmetic rather
// than pointers, so the tree has no cyclic ownership to manage.
type Tree struct {
	Levels [][]types.Hash
}

// Build constructs a Tree over the given leaf hashes. At each level,
// pairs combine left-to-right via Combine; an unpaired trailing leaf
// promotes to the next level unchanged (it is never duplicated).
func Build(leaves []types.Hash) Tree {
	if len(leaves) == 0 {
		return Tree{}
	}

	cur := make([]types.Hash, len(leaves))
	copy(cur, leaves)
	levels := [][]types.Hash{cur}

	for len(cur) > 1 {
		next := make([]types.Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, Combine(cur[i], cur[i+1]))
			} else {
				next = append(next, cur[i])
			}
		}
		levels = append(levels, next)
		cur = next
	}

	return Tree{Levels: levels}
}

// Root returns the tree's root hash, or the zero hash if it has no
// leaves.
func (t Tree) Root() types.Hash {
	if len(t.Levels) == 0 {
		return types.Hash{}
	}
	top := t.Levels[len(t.Levels)-1]
	if len(top) == 0 {
		return types.Hash{}
	}
	return top[0]
}

// Combine is the commutative combiner: hash of the decimal string of
// the sum of the two hashes interpreted as base-16 integers. Sibling
// order never affects the result.
func Combine(a, b types.Hash) types.Hash {
	x := new(big.Int).SetBytes(a[:])
	y := new(big.Int).SetBytes(b[:])
	sum := new(big.Int).Add(x, y)
	return crypto.Hash([]byte(sum.String()))
}

// GetProof finds the leaf equal to txHash and returns the sibling
// hashes encountered walking up to the root, in leaf-to-root order. A
// promoted lone node contributes no entry at that level, since it has
// no sibling. Returns ok=false if txHash is not a leaf.
func (t Tree) GetProof(txHash types.Hash) (proof []types.Hash, ok bool) {
	if len(t.Levels) == 0 {
		return nil, false
	}

	idx := -1
	for i, h := range t.Levels[0] {
		if h == txHash {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}

	for level := 0; level < len(t.Levels)-1; level++ {
		cur := t.Levels[level]
		if idx%2 == 0 {
			if idx+1 < len(cur) {
				proof = append(proof, cur[idx+1])
			}
		} else {
			proof = append(proof, cur[idx-1])
		}
		idx /= 2
	}

	return proof, true
}

// VerifyProof folds the proof into txHash via Combine and reports
// whether the result equals root.
func VerifyProof(txHash types.Hash, proof []types.Hash, root types.Hash) bool {
	acc := txHash
	for _, next := range proof {
		acc = Combine(acc, next)
	}
	return acc == root
}
