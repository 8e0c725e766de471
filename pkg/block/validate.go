package block

import (
	"errors"
	"fmt"

	"github.com/cindermesh/cinderchain/pkg/types"
)

// Validation errors.
var (
	ErrNoTransactions  = errors.New("block has no transactions")
	ErrNoCoinbase      = errors.New("first transaction must be coinbase")
	ErrInvalidPoW      = errors.New("block fails proof-of-work predicate")
	ErrTemporalRule    = errors.New("block nonce precedes its own timestamp")
	ErrBadIndex        = errors.New("block index does not follow the chain tip")
	ErrBadPreviousHash = errors.New("block previous_hash does not match the chain tip")
)

// Validate checks a single block's internal shape: it has a coinbase
// first transaction, and every transaction's script pairs succeed. It
// does not check PoW/temporal validity (IsValidSolution) or chain
// linkage (ValidateLink) — callers run those separately since they
// need a difficulty parameter and a predecessor, respectively.
func (b *Block) Validate() error {
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if !b.Transactions[0].IsCoinbase() {
		return ErrNoCoinbase
	}
	for i, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}
	return nil
}

// ValidateLink checks that b correctly extends prev in the chain:
// b.Index == prev.Index+1 and b.PreviousHash == hash(prev) (spec.md
// §3 "Chain" invariants). Pass a nil prev only for the genesis block,
// which must have Index 0 and PreviousHash equal to the all-zeros hash.
func (b *Block) ValidateLink(prev *Block) error {
	if prev == nil {
		if b.Index != 0 {
			return fmt.Errorf("%w: genesis index %d, want 0", ErrBadIndex, b.Index)
		}
		zero, _ := types.HexToHash(types.ZeroHashHex)
		if b.PreviousHash != zero {
			return fmt.Errorf("%w: genesis previous_hash must be all zeros", ErrBadPreviousHash)
		}
		return nil
	}
	if b.Index != prev.Index+1 {
		return fmt.Errorf("%w: got %d, want %d", ErrBadIndex, b.Index, prev.Index+1)
	}
	if b.PreviousHash != prev.Hash() {
		return fmt.Errorf("%w: got %s, want %s", ErrBadPreviousHash, b.PreviousHash, prev.Hash())
	}
	return nil
}

// ValidateSolution checks PoW validity and the temporal rule at the
// given difficulty (spec.md §4.4).
func (b *Block) ValidateSolution(difficulty int) error {
	if !b.IsProofOfWorkValid(difficulty) {
		return ErrInvalidPoW
	}
	if !b.SatisfiesTemporalRule() {
		return ErrTemporalRule
	}
	return nil
}
