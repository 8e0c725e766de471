// Package tx defines the transaction type, its canonical hashing, and
// script-pair execution (spec.md §2 "Transaction" and §4.1 "execute").
package tx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/script"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Input references the output of a (not-necessarily-the-same) transaction
// being spent, carrying the unlocking script that authorizes the spend.
type Input struct {
	TransactionHash types.Hash   `json:"transaction_hash"`
	OutputIndex     uint32       `json:"output_index"`
	UnlockingScript types.Script `json:"unlocking_script"`
}

// Output defines a new spendable amount guarded by a locking script.
type Output struct {
	Amount        uint64       `json:"amount"`
	LockingScript types.Script `json:"locking_script"`
}

// Transaction moves value from existing outputs to new ones. A
// Transaction with no Inputs is a coinbase transaction.
type Transaction struct {
	Inputs    []Input   `json:"inputs"`
	Outputs   []Output  `json:"outputs"`
	Timestamp int64     `json:"timestamp"`
	H         types.Hash `json:"h"`
}

// Hash returns the transaction's content hash over its canonical
// encoding (inputs, outputs, timestamp — never the cached H field
// itself, so Hash is stable regardless of what H currently holds).
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.signingBytes())
}

// SetHash computes and stores the transaction's hash in H. Callers must
// call this once a transaction is fully built and before broadcasting
// or mining it, since wire messages carry H explicitly (spec.md §7).
func (t *Transaction) SetHash() {
	t.H = t.Hash()
}

func (t *Transaction) signingBytes() []byte {
	var buf []byte

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf = append(buf, in.TransactionHash[:]...)
		buf = binary.BigEndian.AppendUint32(buf, in.OutputIndex)
		buf = appendScript(buf, in.UnlockingScript)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.BigEndian.AppendUint64(buf, out.Amount)
		buf = appendScript(buf, out.LockingScript)
	}

	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Timestamp))
	return buf
}

func appendScript(buf []byte, s types.Script) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	for _, tok := range s {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(tok)))
		buf = append(buf, tok...)
	}
	return buf
}

// IsCoinbase reports whether t has no inputs, the spec's definition of
// a coinbase (reward) transaction.
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 0
}

// Execute evaluates t's script pairs (spec.md §4.1): input[i] is paired
// with output[i] of the SAME transaction, zipped only to the shorter of
// the two slices. A coinbase transaction (no inputs) trivially succeeds.
//
// This does not validate that inputs reference real spendable UTXOs —
// that is left to the wallet's off-chain signature discipline (spec.md
// §9 open question; preserved intentionally, not a bug).
func (t *Transaction) Execute() bool {
	if t.IsCoinbase() {
		return true
	}
	n := len(t.Inputs)
	if len(t.Outputs) < n {
		n = len(t.Outputs)
	}
	for i := 0; i < n; i++ {
		if !script.Pair(t.Inputs[i].UnlockingScript, t.Outputs[i].LockingScript) {
			return false
		}
	}
	return true
}

// TotalOutputValue sums all output amounts, erroring on uint64 overflow.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Amount {
			return 0, fmt.Errorf("tx: output value overflow")
		}
		total += out.Amount
	}
	return total, nil
}
