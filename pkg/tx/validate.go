package tx

import "errors"

// ErrScriptFailed is returned when a transaction's script pairs do not
// all evaluate successfully (spec.md §7, "Transaction invalid").
var ErrScriptFailed = errors.New("tx: script evaluation failed")

// Validate checks a transaction against the rules a mempool or miner
// applies before accepting it: its script pairs must all succeed. This
// is a structural check only; it does not consult the UTXO set (see the
// open question in spec.md §9 about unlocking/locking pairing).
func (t *Transaction) Validate() error {
	if !t.Execute() {
		return ErrScriptFailed
	}
	return nil
}
