// Package wallet implements the UTXO-mirror wallet of spec.md §4.9:
// refresh_balance, get_balance, and send_crypto, layered on the peer
// overlay rather than on a miner's authoritative UTXO index.
package wallet

import (
	"encoding/json"
	"sync"

	"github.com/cindermesh/cinderchain/internal/p2p"
	"github.com/cindermesh/cinderchain/internal/utxo"
	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Wallet holds its own UTXO mirror, populated only by replies to the
// utxos_request it broadcasts (spec.md §4.9). It never reads a
// miner's UTXO index directly.
type Wallet struct {
	node    *p2p.Node
	priv    *crypto.PrivateKey
	address types.Address

	mu           sync.Mutex
	cond         *sync.Cond
	utxos        []utxoEntry
	haveResponse bool
}

// New builds a Wallet for priv and registers its utxos_response
// handler on node.
func New(node *p2p.Node, priv *crypto.PrivateKey) *Wallet {
	w := &Wallet{
		node:    node,
		priv:    priv,
		address: crypto.AddressFromPubKey(priv.PublicKey()),
	}
	w.cond = sync.NewCond(&w.mu)
	node.RegisterHandler(p2p.MsgUTXOsResponse, w.handleUTXOsResponse)
	return w
}

// Address returns the wallet's own address.
func (w *Wallet) Address() types.Address { return w.address }

// RefreshBalance broadcasts a utxos_request carrying the wallet's own
// address and blocks until the corresponding utxos_response arrives
// (spec.md §4.9, §5 "wallets wait on a condition variable").
func (w *Wallet) RefreshBalance() error {
	w.mu.Lock()
	w.haveResponse = false
	w.mu.Unlock()

	if err := w.node.Send(w.address, p2p.MsgUTXOsRequest, nil); err != nil {
		return err
	}

	w.mu.Lock()
	for !w.haveResponse {
		w.cond.Wait()
	}
	w.mu.Unlock()
	return nil
}

func (w *Wallet) handleUTXOsResponse(_ *p2p.Node, env *p2p.Envelope) {
	var subset map[string]utxo.Entry
	if err := json.Unmarshal(env.Data, &subset); err != nil {
		return
	}
	entries := orderedEntries(subset)

	w.mu.Lock()
	w.utxos = entries
	w.haveResponse = true
	w.mu.Unlock()
	w.cond.Broadcast()
}

// GetBalance returns the sum of amounts currently held in the UTXO
// mirror (spec.md §4.9).
func (w *Wallet) GetBalance() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total uint64
	for _, e := range w.utxos {
		total += e.Entry.Amount
	}
	return total
}

// SendCrypto selects UTXOs greedily in iteration order until they cover
// amount, signs and broadcasts the resulting transaction, and updates
// the local mirror directly: spent UTXOs are removed and a change
// entry is added rather than waiting for a fresh utxos_response
// (spec.md §4.9).
func (w *Wallet) SendCrypto(receiver types.Address, amount uint64) (*tx.Transaction, error) {
	w.mu.Lock()
	available := make([]tx.SpendableUTXO, len(w.utxos))
	for i, e := range w.utxos {
		available[i] = tx.SpendableUTXO{ID: e.ID, Amount: e.Entry.Amount}
	}
	w.mu.Unlock()

	selected, total, ok := tx.SelectCoins(available, amount)
	if !ok {
		return nil, tx.ErrInsufficientBalance
	}

	t, err := tx.BuildSpend(w.priv, selected, amount, receiver)
	if err != nil {
		return nil, err
	}

	if err := w.node.Send(t, p2p.MsgTransaction, nil); err != nil {
		return nil, err
	}

	w.applyLocalSpend(selected, t, total, amount)
	return t, nil
}

func (w *Wallet) applyLocalSpend(selected []tx.SpendableUTXO, t *tx.Transaction, total, amount uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	spent := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		spent[s.ID] = struct{}{}
	}

	remaining := make([]utxoEntry, 0, len(w.utxos))
	for _, e := range w.utxos {
		if _, ok := spent[e.ID]; !ok {
			remaining = append(remaining, e)
		}
	}

	if change := total - amount; change > 0 {
		changeIdx := uint32(len(t.Outputs) - 1)
		id := types.UTXOKey(t.Hash(), changeIdx)
		remaining = append(remaining, utxoEntry{
			ID:    id,
			Entry: utxo.Entry{Amount: change, LockingScript: t.Outputs[changeIdx].LockingScript},
		})
	}

	w.utxos = remaining
}
