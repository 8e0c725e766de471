// Package script evaluates the locking/unlocking token-sequence scripts
// carried by transaction inputs and outputs. It is a tiny stack machine,
// not a general script language (spec.md §1 non-goal: script language
// completeness).
package script

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	opDup            = "OP_DUP"
	opHash160        = "OP_HASH160"
	opEqualVerifyTag = "OP_EQUALVERIFY"
)

// Hash160 returns the hex-encoded SHA256 digest of data — the opcode
// is named after its Bitcoin counterpart, but its hash step matches
// the ground-truth Script.execute()'s plain hashlib.sha256, not
// Bitcoin's RIPEMD160(SHA256(·)) (see DESIGN.md).
func Hash160(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Execute runs a single token sequence against a shared stack, mutating
// it in place. It returns false the first time an OP_EQUALVERIFY-prefixed
// token finds unequal operands, or an opcode finds too few values on the
// stack (OP_DUP/OP_HASH160 on an empty stack, OP_EQUALVERIFY with fewer
// than two); otherwise it succeeds.
//
// Tokens recognized:
//
//	OP_DUP               duplicate the top of the stack
//	OP_HASH160           pop, push Hash160 of the popped value
//	OP_EQUALVERIFY*       pop two, fail the script if they differ
//	anything else        push the token itself (a literal)
func Execute(stack *[]string, code []string) bool {
	for _, op := range code {
		switch {
		case op == opDup:
			if len(*stack) == 0 {
				return false
			}
			top := (*stack)[len(*stack)-1]
			*stack = append(*stack, top)
		case op == opHash160:
			if len(*stack) == 0 {
				return false
			}
			top := (*stack)[len(*stack)-1]
			*stack = (*stack)[:len(*stack)-1]
			*stack = append(*stack, Hash160([]byte(top)))
		case strings.HasPrefix(op, opEqualVerifyTag):
			if len(*stack) < 2 {
				return false
			}
			a := (*stack)[len(*stack)-1]
			b := (*stack)[len(*stack)-2]
			*stack = (*stack)[:len(*stack)-2]
			if a != b {
				return false
			}
		default:
			*stack = append(*stack, op)
		}
	}
	return true
}

// Pair runs an unlocking script followed by its paired locking script on
// a fresh stack and reports whether the pair succeeds. Each input/output
// pair gets its own stack — scripts do not share state across pairs.
func Pair(unlocking, locking []string) bool {
	stack := make([]string, 0, len(unlocking)+len(locking))
	if !Execute(&stack, unlocking) {
		return false
	}
	return Execute(&stack, locking)
}
