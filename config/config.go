// Package config holds the runtime options shared by every node role
// (relay, miner, wallet): the overlay's listen/gossip parameters and,
// for miners, the consensus parameters of spec.md §6.
package config

import (
	"encoding/json"
	"fmt"
)

// NodeID identifies a peer by its (host, port) pair — the sole identity
// the gossip overlay ever uses (spec.md §3 "Peer membership"). It
// marshals as the 2-element JSON array spec.md §6 requires for
// sender/receiver/new_node/known_nodes fields, not as an object.
type NodeID struct {
	Host string
	Port int
}

// MarshalJSON encodes the id as ["host", port].
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{id.Host, id.Port})
}

// UnmarshalJSON decodes ["host", port] into the id.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	var pair [2]any
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	host, ok := pair[0].(string)
	if !ok {
		return fmt.Errorf("config: NodeID host must be a string")
	}
	portF, ok := pair[1].(float64)
	if !ok {
		return fmt.Errorf("config: NodeID port must be a number")
	}
	id.Host = host
	id.Port = int(portF)
	return nil
}

// Options holds the node-wide configuration. Every field maps directly
// onto a normative name from spec.md §6; there is no separate
// network/rpc/wallet sub-config because this overlay has no RPC
// surface and no persisted wallet file (both are non-goals).
type Options struct {
	// Host is the interface the listener binds to.
	Host string
	// Port is the TCP port to listen on. 0 means OS-assigned.
	Port int
	// NodeName is a human-readable label used only in logs and in the
	// (diagnostic-only) sender_name envelope field.
	NodeName string
	// MaxListens holds the max_listens option. The Node records it, but
	// its listener is opened with net.Listen and this value is not
	// passed to the socket.
	MaxListens int
	// MaxRecvSize caps how many bytes are read per inbound connection.
	MaxRecvSize int
	// LoggingLevel selects verbosity: 0=parse-failures only, 1=connection
	// events, 2=connect/disconnect detail, 3=full payload dumps.
	LoggingLevel int
	// KnownNodes seeds the peer set before the bootstrap new_node
	// announcement is sent.
	KnownNodes []NodeID

	// Difficulty is the number of leading hex zeros a block hash must
	// have to be PoW-valid (spec.md §4.4). Only meaningful for miners.
	Difficulty int
	// BlockMinTransactions is the mempool size threshold the mining
	// loop waits for before attempting a candidate block (spec.md §4.5).
	BlockMinTransactions int
	// Reward is the coinbase amount minted per mined block.
	Reward uint64
}

// Default returns the normative defaults from spec.md §6.
func Default() Options {
	return Options{
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		NodeName:             "",
		MaxListens:           DefaultMaxListens,
		MaxRecvSize:          DefaultMaxRecvSize,
		LoggingLevel:         DefaultLoggingLevel,
		KnownNodes:           nil,
		Difficulty:           DefaultDifficulty,
		BlockMinTransactions: DefaultBlockMinTransactions,
		Reward:               DefaultReward,
	}
}
