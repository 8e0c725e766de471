package tx

import (
	"encoding/base64"
	"errors"

	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// ErrInsufficientBalance is returned by BuildSpend when the supplied
// UTXOs do not cover amount (spec.md §4.9 "send_crypto returns a
// no-transaction signal to caller").
var ErrInsufficientBalance = errors.New("tx: insufficient balance")

// SpendableUTXO is the minimal view a coin-selector needs of an unspent
// output: its UTXO id ("{tx_hash}:{output_index}") and amount.
type SpendableUTXO struct {
	ID     string
	Amount uint64
}

// SelectCoins walks utxos in order, accumulating until the running
// total covers amount (spec.md §4.9 "select UTXOs greedily in
// iteration order"). ok is false if the total never reaches amount.
func SelectCoins(utxos []SpendableUTXO, amount uint64) (selected []SpendableUTXO, total uint64, ok bool) {
	for _, u := range utxos {
		selected = append(selected, u)
		total += u.Amount
		if total >= amount {
			return selected, total, true
		}
	}
	return selected, total, false
}

// SigningChallenge is the hash signed to authorize spending a UTXO:
// hash("{tx_hash}:{output_index}") (spec.md §4.2).
func SigningChallenge(utxoID string) []byte {
	h := crypto.Hash([]byte(utxoID))
	return h[:]
}

// LockingScript builds the [address, "OP_EQUAL"] locking script
// spec.md §4.2 specifies for an output paying addr.
func LockingScript(addr types.Address) types.Script {
	return types.Script{addr.String(), "OP_EQUAL"}
}

// UnlockingScript builds the [base64(sig), "{tx_hash}:{output_index}"]
// unlocking script spec.md §4.2 specifies for spending utxoID.
func UnlockingScript(sig []byte, utxoID string) types.Script {
	return types.Script{base64.StdEncoding.EncodeToString(sig), utxoID}
}

// BuildSpend constructs and signs a transaction spending the given
// UTXOs: one output paying amount to receiver, plus a change output
// back to the signer's own address when the selected total exceeds
// amount (spec.md §4.9 "send_crypto"). The signer's address is derived
// from priv's public key.
func BuildSpend(priv *crypto.PrivateKey, selected []SpendableUTXO, amount uint64, receiver types.Address) (*Transaction, error) {
	var total uint64
	for _, u := range selected {
		total += u.Amount
	}
	if total < amount {
		return nil, ErrInsufficientBalance
	}

	self := crypto.AddressFromPubKey(priv.PublicKey())

	inputs := make([]Input, 0, len(selected))
	for _, u := range selected {
		txHash, outIdx, err := types.ParseUTXOKey(u.ID)
		if err != nil {
			return nil, err
		}
		sig, err := priv.Sign(SigningChallenge(u.ID))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{
			TransactionHash: txHash,
			OutputIndex:     outIdx,
			UnlockingScript: UnlockingScript(sig, u.ID),
		})
	}

	outputs := []Output{{Amount: amount, LockingScript: LockingScript(receiver)}}
	if change := total - amount; change > 0 {
		outputs = append(outputs, Output{Amount: change, LockingScript: LockingScript(self)})
	}

	t := &Transaction{Inputs: inputs, Outputs: outputs}
	t.SetHash()
	return t, nil
}
