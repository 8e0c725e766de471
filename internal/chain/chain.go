// Package chain holds the ordered block list each miner maintains
// locally and enforces its structural invariants (spec.md §3 "Chain").
package chain

import (
	"errors"
	"sync"

	"github.com/cindermesh/cinderchain/pkg/block"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// ErrEmptyAppend is returned by Append when called with a nil block.
var ErrEmptyAppend = errors.New("chain: cannot append a nil block")

// Chain is a miner's local, ordered view of the blockchain. It is
// exclusively owned by the miner that holds it (spec.md §3
// "Ownership"); other nodes only ever see serialized copies.
type Chain struct {
	mu     sync.RWMutex
	blocks []*block.Block
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{}
}

// FromBlocks builds a chain from an already-ordered block slice, as
// happens when adopting a blockchain_update (spec.md §4.6). The slice
// is copied; it is not validated here — callers that need the
// structural invariants checked should call Validate.
func FromBlocks(blocks []*block.Block) *Chain {
	c := &Chain{blocks: append([]*block.Block(nil), blocks...)}
	return c
}

// Len returns the number of blocks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// Tip returns the highest-index block, or nil if the chain is empty.
func (c *Chain) Tip() *block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// TipHash returns the tip's hash, or the all-zeros genesis previous-hash
// if the chain is empty (spec.md §4.5 step 2).
func (c *Chain) TipHash() types.Hash {
	tip := c.Tip()
	if tip == nil {
		zero, _ := types.HexToHash(types.ZeroHashHex)
		return zero
	}
	return tip.Hash()
}

// Blocks returns a copy of the chain's blocks in order.
func (c *Chain) Blocks() []*block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*block.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// At returns the block at index i, or nil if out of range.
func (c *Chain) At(i uint64) *block.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i >= uint64(len(c.blocks)) {
		return nil
	}
	return c.blocks[i]
}

// Append adds b to the end of the chain without re-validating linkage;
// callers are expected to have already checked ValidateLink (spec.md
// §4.6) before calling Append.
func (c *Chain) Append(b *block.Block) error {
	if b == nil {
		return ErrEmptyAppend
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, b)
	return nil
}

// Replace atomically swaps the entire block list — used when adopting
// a longer blockchain_update (spec.md §4.6).
func (c *Chain) Replace(blocks []*block.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append([]*block.Block(nil), blocks...)
}

// Validate checks the structural invariants of spec.md §3 "Chain": the
// genesis block has index 0, and every subsequent block's index and
// previous_hash correctly follow its predecessor.
func (c *Chain) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	if c.blocks[0].Index != 0 {
		return errors.New("chain: genesis block must have index 0")
	}
	var prev *block.Block
	for i, b := range c.blocks {
		if i == 0 {
			prev = b
			continue
		}
		if err := b.ValidateLink(prev); err != nil {
			return err
		}
		prev = b
	}
	return nil
}
