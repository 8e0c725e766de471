package wallet

// UTXOEntry is a single unspent output in the wallet's mirror, as last
// populated by RefreshBalance.
type UTXOEntry struct {
	ID     string
	Amount uint64
}

// Snapshot returns the current UTXO mirror as an ordered list, for
// callers (e.g. a CLI) that want more than just the summed balance.
func (w *Wallet) Snapshot() []UTXOEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]UTXOEntry, len(w.utxos))
	for i, e := range w.utxos {
		out[i] = UTXOEntry{ID: e.ID, Amount: e.Entry.Amount}
	}
	return out
}
