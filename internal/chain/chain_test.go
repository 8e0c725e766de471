package chain

import (
	"testing"

	"github.com/cindermesh/cinderchain/pkg/block"
	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

func testCoinbase(t *testing.T, amount uint64) *tx.Transaction {
	t.Helper()
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := crypto.AddressFromPubKey(priv.PublicKey())
	txn := &tx.Transaction{
		Outputs:   []tx.Output{{Amount: amount, LockingScript: tx.LockingScript(addr)}},
		Timestamp: 1700000000,
	}
	txn.SetHash()
	return txn
}

func TestChain_New_Empty(t *testing.T) {
	c := New()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.Tip() != nil {
		t.Error("Tip() should be nil for an empty chain")
	}
	zero, _ := types.HexToHash(types.ZeroHashHex)
	if c.TipHash() != zero {
		t.Error("TipHash() should be all-zeros for an empty chain")
	}
}

func TestChain_Append(t *testing.T) {
	c := New()
	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	if err := c.Append(genesis); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if c.Tip().Hash() != genesis.Hash() {
		t.Error("Tip() should be the appended block")
	}
	if c.TipHash() != genesis.Hash() {
		t.Error("TipHash() should match the appended block's hash")
	}
}

func TestChain_Append_Nil(t *testing.T) {
	c := New()
	if err := c.Append(nil); err == nil {
		t.Error("Append(nil) should fail")
	}
}

func TestChain_At(t *testing.T) {
	c := New()
	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	c.Append(genesis)

	if got := c.At(0); got == nil || got.Hash() != genesis.Hash() {
		t.Error("At(0) should return the genesis block")
	}
	if got := c.At(1); got != nil {
		t.Error("At(1) should be nil on a 1-block chain")
	}
}

func TestChain_Blocks_IsCopy(t *testing.T) {
	c := New()
	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	c.Append(genesis)

	blocks := c.Blocks()
	blocks[0] = nil
	if c.At(0) == nil {
		t.Error("mutating the returned slice should not affect the chain")
	}
}

func TestChain_FromBlocks(t *testing.T) {
	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	next := block.NewBlock(1, genesis.Hash(), 1700000001, []*tx.Transaction{testCoinbase(t, 50)})

	c := FromBlocks([]*block.Block{genesis, next})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestChain_Replace(t *testing.T) {
	c := New()
	c.Append(block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)}))

	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	next := block.NewBlock(1, genesis.Hash(), 1700000001, []*tx.Transaction{testCoinbase(t, 50)})
	c.Replace([]*block.Block{genesis, next})

	if c.Len() != 2 {
		t.Errorf("Len() after Replace = %d, want 2", c.Len())
	}
}

func TestChain_Validate_Empty(t *testing.T) {
	c := New()
	if err := c.Validate(); err != nil {
		t.Errorf("empty chain should validate: %v", err)
	}
}

func TestChain_Validate_BadGenesisIndex(t *testing.T) {
	bad := block.NewBlock(1, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	c := FromBlocks([]*block.Block{bad})
	if err := c.Validate(); err == nil {
		t.Error("chain whose first block has nonzero index should fail to validate")
	}
}

func TestChain_Validate_BadLink(t *testing.T) {
	genesis := block.NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(t, 50)})
	broken := block.NewBlock(1, types.Hash{0xff}, 1700000001, []*tx.Transaction{testCoinbase(t, 50)})

	c := FromBlocks([]*block.Block{genesis, broken})
	if err := c.Validate(); err == nil {
		t.Error("chain with a broken previous_hash link should fail to validate")
	}
}
