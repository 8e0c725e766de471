package block

import (
	"encoding/json"

	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

func hexOrZero(s string) (types.Hash, error) {
	if s == "" {
		return types.Hash{}, nil
	}
	return types.HexToHash(s)
}

// wireMerkleTree is the informational merkle_tree sub-object spec.md §6
// documents: only Transactions is semantically required to reconstruct
// a block; Tree itself is never parsed back.
type wireMerkleTree struct {
	Transactions []*tx.Transaction `json:"transactions"`
	Tree         json.RawMessage   `json:"tree,omitempty"`
}

// wireBlock mirrors the mined_block / blockchain_update data subschema
// of spec.md §6.
type wireBlock struct {
	Index        uint64         `json:"index"`
	Hash         string         `json:"h"`
	PreviousHash string         `json:"previous_hash"`
	Timestamp    int64          `json:"timestamp"`
	Nonce        int64          `json:"nonce"`
	MerkleTree   wireMerkleTree `json:"merkle_tree"`
}

// MarshalJSON encodes the block in the wire shape documented by
// spec.md §6, rather than Block's in-memory field layout.
func (b *Block) MarshalJSON() ([]byte, error) {
	w := wireBlock{
		Index:        b.Index,
		Hash:         b.Hash().String(),
		PreviousHash: b.PreviousHash.String(),
		Timestamp:    b.Timestamp,
		Nonce:        b.Nonce,
		MerkleTree: wireMerkleTree{
			Transactions: b.Transactions,
		},
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire shape and rebuilds the Merkle tree
// locally — the wire's "h" and "tree" fields are informational only
// and never trusted (spec.md §6: "Only index, previous_hash,
// merkle_tree.transactions, nonce, timestamp are semantically
// required for reconstruction").
func (b *Block) UnmarshalJSON(data []byte) error {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	prevHash, err := hexOrZero(w.PreviousHash)
	if err != nil {
		return err
	}
	b.Index = w.Index
	b.PreviousHash = prevHash
	b.Timestamp = w.Timestamp
	b.Nonce = w.Nonce
	b.Transactions = w.MerkleTree.Transactions
	b.RebuildMerkleTree()
	return nil
}
