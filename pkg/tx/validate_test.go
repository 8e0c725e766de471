package tx

import (
	"errors"
	"testing"

	"github.com/cindermesh/cinderchain/pkg/types"
)

func TestValidate_Coinbase(t *testing.T) {
	coinbase := &Transaction{Outputs: []Output{{Amount: 50}}}
	if err := coinbase.Validate(); err != nil {
		t.Errorf("coinbase tx should pass Validate: %v", err)
	}
}

func TestValidate_LiteralPushPairAlwaysPasses(t *testing.T) {
	tx := &Transaction{
		Inputs:  []Input{{TransactionHash: types.Hash{0x01}, UnlockingScript: types.Script{"sig", "challenge"}}},
		Outputs: []Output{{Amount: 1000, LockingScript: types.Script{"address", "OP_EQUAL"}}},
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("literal-only script pair should validate: %v", err)
	}
}

func TestValidate_ScriptFailure(t *testing.T) {
	tx := &Transaction{
		Inputs:  []Input{{TransactionHash: types.Hash{0x01}, UnlockingScript: types.Script{"x"}}},
		Outputs: []Output{{Amount: 1000, LockingScript: types.Script{"y", "OP_EQUALVERIFY"}}},
	}
	err := tx.Validate()
	if !errors.Is(err, ErrScriptFailed) {
		t.Errorf("expected ErrScriptFailed, got: %v", err)
	}
}
