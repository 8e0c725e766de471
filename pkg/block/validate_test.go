package block

import (
	"errors"
	"testing"

	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

func testCoinbase(addr types.Address, amount uint64) *tx.Transaction {
	t := &tx.Transaction{
		Outputs: []tx.Output{{
			Amount:        amount,
			LockingScript: tx.LockingScript(addr),
		}},
		Timestamp: 1700000000,
	}
	t.SetHash()
	return t
}

func signedSpend(t *testing.T, priv *crypto.PrivateKey, spentTxHash types.Hash, outIdx uint32, addr types.Address, amount uint64) *tx.Transaction {
	t.Helper()
	id := types.UTXOKey(spentTxHash, outIdx)
	sig, err := priv.Sign(tx.SigningChallenge(id))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	txn := &tx.Transaction{
		Inputs: []tx.Input{{
			TransactionHash: spentTxHash,
			OutputIndex:     outIdx,
			UnlockingScript: tx.UnlockingScript(sig, id),
		}},
		Outputs: []tx.Output{{
			Amount:        amount,
			LockingScript: tx.LockingScript(addr),
		}},
		Timestamp: 1700000001,
	}
	txn.SetHash()
	return txn
}

func validBlock(t *testing.T) *Block {
	t.Helper()
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := crypto.AddressFromPubKey(priv.PublicKey())
	coinbase := testCoinbase(addr, 50)
	return NewBlock(1, types.Hash{0xaa}, 1700000000, []*tx.Transaction{coinbase})
}

func TestBlock_Validate_Valid(t *testing.T) {
	blk := validBlock(t)
	if err := blk.Validate(); err != nil {
		t.Errorf("valid block should pass: %v", err)
	}
}

func TestBlock_Validate_NoTransactions(t *testing.T) {
	blk := &Block{Index: 1, Timestamp: 1700000000}
	err := blk.Validate()
	if !errors.Is(err, ErrNoTransactions) {
		t.Errorf("expected ErrNoTransactions, got: %v", err)
	}
}

func TestBlock_Validate_NoCoinbase(t *testing.T) {
	priv, _ := crypto.GenerateKey()
	addr := crypto.AddressFromPubKey(priv.PublicKey())
	spendOnly := signedSpend(t, priv, types.Hash{0x01}, 0, addr, 1000)

	blk := NewBlock(1, types.Hash{0xaa}, 1700000000, []*tx.Transaction{spendOnly})

	err := blk.Validate()
	if !errors.Is(err, ErrNoCoinbase) {
		t.Errorf("expected ErrNoCoinbase, got: %v", err)
	}
}

func TestBlock_Validate_MultipleTxs(t *testing.T) {
	priv, _ := crypto.GenerateKey()
	addr := crypto.AddressFromPubKey(priv.PublicKey())

	coinbase := testCoinbase(addr, 50)
	spend := signedSpend(t, priv, types.Hash{0x01}, 0, addr, 1000)

	blk := NewBlock(5, types.Hash{0xbb}, 1700000000, []*tx.Transaction{coinbase, spend})

	if err := blk.Validate(); err != nil {
		t.Errorf("multi-tx block should validate: %v", err)
	}
}

func TestBlock_RebuildMerkleTree_Idempotent(t *testing.T) {
	blk := validBlock(t)
	root1 := blk.MerkleRoot()
	blk.RebuildMerkleTree()
	root2 := blk.MerkleRoot()
	if root1 != root2 {
		t.Errorf("RebuildMerkleTree changed the root: %x != %x", root1, root2)
	}
}

func TestBlock_ValidateLink_Genesis(t *testing.T) {
	genesis := NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(types.Address{0x01}, 50)})
	if err := genesis.ValidateLink(nil); err != nil {
		t.Errorf("genesis should validate against nil predecessor: %v", err)
	}
}

func TestBlock_ValidateLink_BadIndex(t *testing.T) {
	genesis := NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(types.Address{0x01}, 50)})
	next := NewBlock(5, genesis.Hash(), 1700000001, []*tx.Transaction{testCoinbase(types.Address{0x02}, 50)})
	err := next.ValidateLink(genesis)
	if !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected ErrBadIndex, got: %v", err)
	}
}

func TestBlock_ValidateLink_BadPreviousHash(t *testing.T) {
	genesis := NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(types.Address{0x01}, 50)})
	next := NewBlock(1, types.Hash{0xff}, 1700000001, []*tx.Transaction{testCoinbase(types.Address{0x02}, 50)})
	err := next.ValidateLink(genesis)
	if !errors.Is(err, ErrBadPreviousHash) {
		t.Errorf("expected ErrBadPreviousHash, got: %v", err)
	}
}

func TestBlock_ValidateLink_Valid(t *testing.T) {
	genesis := NewBlock(0, types.Hash{}, 1700000000, []*tx.Transaction{testCoinbase(types.Address{0x01}, 50)})
	next := NewBlock(1, genesis.Hash(), 1700000001, []*tx.Transaction{testCoinbase(types.Address{0x02}, 50)})
	if err := next.ValidateLink(genesis); err != nil {
		t.Errorf("valid link should pass: %v", err)
	}
}

func TestBlock_ValidateSolution(t *testing.T) {
	blk := validBlock(t)
	blk.Nonce = blk.Timestamp + 1
	if err := blk.ValidateSolution(0); err != nil {
		t.Errorf("difficulty 0 should always be PoW-valid: %v", err)
	}
}

func TestBlock_ValidateSolution_TemporalRuleFails(t *testing.T) {
	blk := validBlock(t)
	blk.Nonce = blk.Timestamp - 1
	err := blk.ValidateSolution(0)
	if !errors.Is(err, ErrTemporalRule) {
		t.Errorf("expected ErrTemporalRule, got: %v", err)
	}
}

func TestBlock_ValidateSolution_PoWFails(t *testing.T) {
	blk := validBlock(t)
	blk.Nonce = blk.Timestamp
	err := blk.ValidateSolution(len(blk.Hash().String()) + 1)
	if !errors.Is(err, ErrInvalidPoW) {
		t.Errorf("expected ErrInvalidPoW, got: %v", err)
	}
}

func TestBlock_Hash_Deterministic(t *testing.T) {
	blk := validBlock(t)
	h1 := blk.Hash()
	h2 := blk.Hash()
	if h1 != h2 {
		t.Error("Block.Hash() should be deterministic")
	}
	if h1.IsZero() {
		t.Error("Block.Hash() should not be zero")
	}
}

func TestBlock_Equal(t *testing.T) {
	blk := validBlock(t)
	other := *blk
	if !blk.Equal(&other) {
		t.Error("a block should equal a copy of itself")
	}

	other.Nonce++
	if blk.Equal(&other) {
		t.Error("blocks with different nonces should not be equal")
	}
}
