// Package mempool holds the pending-transaction pool each miner keeps
// between broadcast and block inclusion (spec.md §2 "Mempool", §3
// "Lifecycles").
package mempool

import (
	"errors"
	"sync"

	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// ErrAlreadyPresent is returned by Add when a transaction with the same
// hash is already pending.
var ErrAlreadyPresent = errors.New("mempool: transaction already present")

// Pool is an ordered set of pending transactions. Order is
// insertion order, since both the mining loop's candidate-block
// selection and the wallet's UTXO iteration rely on a stable,
// deterministic ordering rather than a fee-priority one — fee markets
// are explicitly out of scope (spec.md §1).
type Pool struct {
	mu    sync.RWMutex
	order []types.Hash
	byTx  map[types.Hash]*tx.Transaction
}

// New returns an empty mempool.
func New() *Pool {
	return &Pool{byTx: make(map[types.Hash]*tx.Transaction)}
}

// Add validates t (spec.md §4.2 "execute") and, if it passes and is
// not already present, appends it to the pool.
func (p *Pool) Add(t *tx.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	h := t.Hash()

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byTx[h]; exists {
		return ErrAlreadyPresent
	}
	p.byTx[h] = t
	p.order = append(p.order, h)
	return nil
}

// Has reports whether a transaction with hash h is currently pending.
func (p *Pool) Has(h types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byTx[h]
	return ok
}

// Remove drops a transaction by hash, if present.
func (p *Pool) Remove(h types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(h)
}

func (p *Pool) removeLocked(h types.Hash) {
	if _, ok := p.byTx[h]; !ok {
		return
	}
	delete(p.byTx, h)
	for i, oh := range p.order {
		if oh == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// RemoveIncluded removes every transaction in txs from the pool — used
// after a block mines or is accepted, to drop the non-coinbase
// transactions it carried (spec.md §4.5 step 6, §4.6 step 2).
func (p *Pool) RemoveIncluded(txs []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range txs {
		p.removeLocked(t.Hash())
	}
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Snapshot returns the pending transactions in insertion order. The
// returned slice is a copy; mutating it does not affect the pool.
func (p *Pool) Snapshot() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*tx.Transaction, len(p.order))
	for i, h := range p.order {
		out[i] = p.byTx[h]
	}
	return out
}

// Equal reports whether two mempools hold the same set of transaction
// hashes, ignoring order — the comparison spec.md §8 scenario S2 uses
// to assert convergence across miners.
func Equal(a, b *Pool) bool {
	a.mu.RLock()
	b.mu.RLock()
	defer a.mu.RUnlock()
	defer b.mu.RUnlock()
	if len(a.byTx) != len(b.byTx) {
		return false
	}
	for h := range a.byTx {
		if _, ok := b.byTx[h]; !ok {
			return false
		}
	}
	return true
}
