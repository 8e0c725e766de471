package wallet

import (
	"sort"

	"github.com/cindermesh/cinderchain/internal/utxo"
)

// utxoEntry pairs a UTXO id with its entry, kept in the order the
// mirror should be walked for greedy coin selection (spec.md §4.9
// "select UTXOs greedily in iteration order").
type utxoEntry struct {
	ID    string
	Entry utxo.Entry
}

// orderedEntries turns a utxos_response's id->entry map into a
// deterministic slice. encoding/json always marshals map keys in
// sorted order, so sorting here reproduces the exact order the sender
// encoded the response in, rather than Go's randomized map iteration.
func orderedEntries(subset map[string]utxo.Entry) []utxoEntry {
	ids := make([]string, 0, len(subset))
	for id := range subset {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]utxoEntry, len(ids))
	for i, id := range ids {
		out[i] = utxoEntry{ID: id, Entry: subset[id]}
	}
	return out
}
