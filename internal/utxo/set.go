// Package utxo maintains the unspent-transaction-output index derived
// from a chain (spec.md §3 "UTXO set", §4.7 "UTXO Maintenance").
package utxo

import (
	"sync"

	"github.com/cindermesh/cinderchain/pkg/block"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Entry is an unspent output, keyed by its "{tx_hash}:{output_index}"
// UTXO id (spec.md §3).
type Entry struct {
	Amount        uint64       `json:"amount"`
	LockingScript types.Script `json:"locking_script"`
}

// Set is the mapping from UTXO id to unspent output. It is fully
// derived from a chain — RebuildFromChain is the authoritative
// construction; incremental mutation during block acceptance must
// produce an equivalent result (spec.md §4.7, §8 invariant 3).
type Set struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty UTXO set.
func New() *Set {
	return &Set{entries: make(map[string]Entry)}
}

// Get returns the entry for id, if present.
func (s *Set) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Len returns the number of unspent outputs.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of the full set, keyed by UTXO id.
func (s *Set) Snapshot() map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// ForAddress returns the subset of the set whose locking script names
// address — the predicate the overlay uses to answer utxos_request
// (spec.md §4.8). A locking script names an address when its token
// list begins with that address's hex string, matching the
// [address, "OP_EQUAL"] shape §4.2 documents.
func (s *Set) ForAddress(address types.Address) map[string]Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrHex := address.String()
	out := make(map[string]Entry)
	for k, v := range s.entries {
		if len(v.LockingScript) > 0 && v.LockingScript[0] == addrHex {
			out[k] = v
		}
	}
	return out
}

// ApplyTransaction inserts t's outputs and removes the UTXOs consumed
// by its inputs (spec.md §4.7 step applied per-transaction).
func (s *Set) ApplyTransaction(t *tx.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(t)
}

func (s *Set) applyLocked(t *tx.Transaction) {
	txHash := t.Hash()
	for i, out := range t.Outputs {
		id := types.UTXOKey(txHash, uint32(i))
		s.entries[id] = Entry{Amount: out.Amount, LockingScript: out.LockingScript}
	}
	for _, in := range t.Inputs {
		id := types.UTXOKey(in.TransactionHash, in.OutputIndex)
		delete(s.entries, id)
	}
}

// ApplyBlock applies every transaction in a block, in order.
func (s *Set) ApplyBlock(b *block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range b.Transactions {
		s.applyLocked(t)
	}
}

// RebuildFromChain clears the set and replays every block in order
// (spec.md §4.7). This is the authoritative derivation: any
// incrementally-maintained set must equal this result after the same
// sequence of blocks (spec.md §8 invariant 3).
func (s *Set) RebuildFromChain(blocks []*block.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	for _, b := range blocks {
		for _, t := range b.Transactions {
			s.applyLocked(t)
		}
	}
}

// Equal reports whether two sets hold the same entries — used by tests
// asserting the convergence invariant (spec.md §8 invariant 3).
func Equal(a, b *Set) bool {
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != len(sb) {
		return false
	}
	for k, va := range sa {
		vb, ok := sb[k]
		if !ok || va.Amount != vb.Amount || !scriptsEqual(va.LockingScript, vb.LockingScript) {
			return false
		}
	}
	return true
}

func scriptsEqual(a, b types.Script) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
