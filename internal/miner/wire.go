package miner

import (
	"encoding/json"

	"github.com/cindermesh/cinderchain/pkg/block"
	"github.com/cindermesh/cinderchain/pkg/tx"
)

// chainUpdate is the blockchain_update payload: a (chain, mempool) pair,
// wire-encoded as a 2-element array rather than a named object (spec.md
// §4.6, §6).
type chainUpdate struct {
	Chain   []*block.Block
	Mempool []*tx.Transaction
}

func (u chainUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{u.Chain, u.Mempool})
}

func (u *chainUpdate) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &u.Chain); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &u.Mempool)
}
