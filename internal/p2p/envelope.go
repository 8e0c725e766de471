package p2p

import (
	"encoding/json"
	"fmt"

	"github.com/cindermesh/cinderchain/config"
	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// Message type strings (spec.md §4.8, §6). These are wire-level
// constants — peers of any implementation must use the exact strings.
const (
	MsgNewNode           = "new_node"
	MsgKnownNodes        = "known_nodes"
	MsgTransaction       = "transaction"
	MsgMinedBlock        = "mined_block"
	MsgRequestBlockchain = "request_blockchain"
	MsgBlockchainUpdate  = "blockchain_update"
	MsgUTXOsRequest      = "utxos_request"
	MsgUTXOsResponse     = "utxos_response"
)

// Envelope is the wire record every gossip message is carried in
// (spec.md §6). Data is kept as raw JSON so the overlay never needs to
// know the shape of role-specific payloads.
type Envelope struct {
	Hash       types.Hash      `json:"hash"`
	Type       string          `json:"type"`
	Sender     config.NodeID   `json:"sender"`
	SenderName string          `json:"sender_name"`
	Receiver   *config.NodeID  `json:"receiver"`
	SentAt     int64           `json:"sent_at"`
	Data       json.RawMessage `json:"data"`
}

// envelopeHash computes the dedup hash over the canonical tuple
// (type, data, sender, sender_name, receiver, sent_at) — spec.md §4.8.
func envelopeHash(msgType string, data json.RawMessage, sender config.NodeID, senderName string, receiver *config.NodeID, sentAt int64) types.Hash {
	var buf []byte
	buf = append(buf, msgType...)
	buf = append(buf, 0)
	buf = append(buf, data...)
	buf = append(buf, 0)
	buf = append(buf, sender.Host...)
	buf = append(buf, ':')
	buf = append(buf, []byte(fmt.Sprintf("%d", sender.Port))...)
	buf = append(buf, 0)
	buf = append(buf, senderName...)
	buf = append(buf, 0)
	if receiver != nil {
		buf = append(buf, receiver.Host...)
		buf = append(buf, ':')
		buf = append(buf, []byte(fmt.Sprintf("%d", receiver.Port))...)
	}
	buf = append(buf, 0)
	buf = append(buf, []byte(fmt.Sprintf("%d", sentAt))...)
	return crypto.Hash(buf)
}

// newEnvelope builds and hashes an envelope for an outbound message.
func newEnvelope(msgType string, data any, sender config.NodeID, senderName string, receiver *config.NodeID, sentAt int64) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("p2p: marshal %s payload: %w", msgType, err)
	}
	env := &Envelope{
		Type:       msgType,
		Sender:     sender,
		SenderName: senderName,
		Receiver:   receiver,
		SentAt:     sentAt,
		Data:       raw,
	}
	env.Hash = envelopeHash(msgType, raw, sender, senderName, receiver, sentAt)
	return env, nil
}
