// Package p2p implements the gossip/flood overlay described in
// spec.md §4.8: peer discovery via known_nodes gossip, a deduplicated
// flood of typed messages, and directed delivery to a specific peer.
// Node is the base overlay; role-specific behavior (miner, wallet) is
// added by registering HandlerFuncs for message types rather than by
// subclassing, per spec.md §9's capability-based design note.
package p2p

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cindermesh/cinderchain/config"
	"github.com/cindermesh/cinderchain/internal/log"
	"github.com/cindermesh/cinderchain/pkg/types"
	"github.com/google/uuid"
)

// HandlerFunc processes a decoded envelope addressed to (or flooded
// past) this node. Implementations unmarshal env.Data for their
// message type.
type HandlerFunc func(n *Node, env *Envelope)

// Node is a gossip overlay peer: a TCP listener/sender, a peer set,
// and a deduplication history, plus whatever role handlers have been
// registered for non-overlay message types.
type Node struct {
	host         string
	port         int
	nodeName     string
	maxListens   int
	maxRecvSize  int
	loggingLevel int
	instanceID   uuid.UUID

	mu         sync.Mutex
	knownNodes map[config.NodeID]struct{}
	seen       map[types.Hash]struct{}
	handlers   map[string]HandlerFunc

	listener net.Listener
}

// New creates a Node, binds its listener, starts the accept loop, and
// sends the bootstrap new_node announcement to every seed in
// opts.KnownNodes (spec.md §4.8 "Bootstrap").
func New(opts config.Options, handlers map[string]HandlerFunc) (*Node, error) {
	n := &Node{
		host:         opts.Host,
		nodeName:     opts.NodeName,
		maxListens:   opts.MaxListens,
		maxRecvSize:  opts.MaxRecvSize,
		loggingLevel: opts.LoggingLevel,
		instanceID:   uuid.New(),
		knownNodes:   make(map[config.NodeID]struct{}),
		seen:         make(map[types.Hash]struct{}),
		handlers:     make(map[string]HandlerFunc),
	}
	for k, v := range handlers {
		n.handlers[k] = v
	}
	n.handlers[MsgNewNode] = handleNewNode
	n.handlers[MsgKnownNodes] = handleKnownNodes

	for _, seed := range opts.KnownNodes {
		n.knownNodes[seed] = struct{}{}
	}

	if err := n.listen(opts.Port); err != nil {
		return nil, err
	}

	if err := n.Send(config.NodeID{Host: n.host, Port: n.port}, MsgNewNode, nil); err != nil {
		log.P2P.Warn().Err(err).Msg("failed to announce new_node to seeds")
	}

	return n, nil
}

// ID returns this node's (host, port) protocol identity.
func (n *Node) ID() config.NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return config.NodeID{Host: n.host, Port: n.port}
}

// InstanceID returns the diagnostic-only UUID assigned at construction,
// distinct from the protocol (host, port) identity (spec.md §3's
// DOMAIN STACK wiring of github.com/google/uuid).
func (n *Node) InstanceID() uuid.UUID {
	return n.instanceID
}

// KnownNodes returns a snapshot of the current peer set.
func (n *Node) KnownNodes() []config.NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]config.NodeID, 0, len(n.knownNodes))
	for id := range n.knownNodes {
		out = append(out, id)
	}
	return out
}

// AddKnownNode inserts a peer into the local set, ignoring self.
func (n *Node) AddKnownNode(id config.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id == (config.NodeID{Host: n.host, Port: n.port}) {
		return
	}
	n.knownNodes[id] = struct{}{}
}

// RegisterHandler installs (or replaces) the handler for a message
// type. Callers register their role-specific handlers (transaction,
// mined_block, request_blockchain, blockchain_update, utxos_request,
// utxos_response) after constructing the Node.
func (n *Node) RegisterHandler(msgType string, fn HandlerFunc) {
	n.mu.Lock()
	n.handlers[msgType] = fn
	n.mu.Unlock()
}

func (n *Node) listen(port int) error {
	l, err := net.Listen("tcp", net.JoinHostPort(n.host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("p2p: listen: %w", err)
	}
	n.listener = l
	n.port = l.Addr().(*net.TCPAddr).Port

	if n.loggingLevel >= 1 {
		log.P2P.Info().Str("node", n.label()).Str("addr", l.Addr().String()).Msg("listening")
	}

	go n.acceptLoop()
	return nil
}

func (n *Node) label() string {
	if n.nodeName != "" {
		return n.nodeName
	}
	return fmt.Sprintf("%s:%d", n.host, n.port)
}

func (n *Node) acceptLoop() {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			return
		}
		if n.loggingLevel >= 1 {
			log.P2P.Info().Str("node", n.label()).Str("remote", conn.RemoteAddr().String()).Msg("accepted connection")
		}
		go n.handleConn(conn)
	}
}

// handleConn reads a single message off conn (one envelope per
// connection, per spec.md §6) and hands it to handleIncoming.
func (n *Node) handleConn(conn net.Conn) {
	defer conn.Close()
	payload, err := io.ReadAll(io.LimitReader(conn, int64(n.maxRecvSize)))
	if err != nil {
		return
	}
	n.handleIncoming(payload)
}

func (n *Node) handleIncoming(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if n.loggingLevel >= 0 {
			log.P2P.Error().Str("node", n.label()).Msg("received invalid payload")
		}
		return
	}
	n.process(&env)
}

// process implements spec.md §4.8's dedup + dispatch + flood algorithm.
func (n *Node) process(env *Envelope) {
	n.mu.Lock()
	if _, ok := n.seen[env.Hash]; ok {
		n.mu.Unlock()
		return
	}
	n.seen[env.Hash] = struct{}{}
	self := config.NodeID{Host: n.host, Port: n.port}
	n.mu.Unlock()

	isSelf := env.Receiver != nil && *env.Receiver == self
	shouldHandle := env.Receiver == nil || isSelf
	shouldFlood := env.Receiver == nil || !isSelf

	if shouldHandle {
		n.dispatch(env)
	}
	if shouldFlood {
		n.relay(env)
	}
}

func (n *Node) dispatch(env *Envelope) {
	n.mu.Lock()
	fn, ok := n.handlers[env.Type]
	n.mu.Unlock()
	if !ok {
		return
	}
	fn(n, env)
}

// relay forwards an already-built envelope to every known peer,
// preserving hash/sender/sent_at so peers dedup correctly.
func (n *Node) relay(env *Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	n.broadcast(payload)
}

// Send builds a fresh envelope for data under msgType and floods it to
// every known peer. receiver, when non-nil, directs the message at a
// specific peer without preventing other peers from relaying it.
func (n *Node) Send(data any, msgType string, receiver *config.NodeID) error {
	n.mu.Lock()
	sender := config.NodeID{Host: n.host, Port: n.port}
	name := n.nodeName
	n.mu.Unlock()

	env, err := newEnvelope(msgType, data, sender, name, receiver, time.Now().UnixNano())
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.seen[env.Hash] = struct{}{}
	n.mu.Unlock()

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("p2p: marshal envelope: %w", err)
	}
	n.broadcast(payload)
	return nil
}

func (n *Node) broadcast(payload []byte) {
	n.mu.Lock()
	peers := make([]config.NodeID, 0, len(n.knownNodes))
	for id := range n.knownNodes {
		peers = append(peers, id)
	}
	n.mu.Unlock()

	for _, peer := range peers {
		n.sendTo(peer, payload)
	}
}

func (n *Node) sendTo(peer config.NodeID, payload []byte) {
	addr := net.JoinHostPort(peer.Host, strconv.Itoa(peer.Port))
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		log.P2P.Warn().Str("node", n.label()).Str("peer", addr).Err(err).Msg("send failed")
		return
	}
	defer conn.Close()

	if n.loggingLevel >= 2 {
		log.P2P.Debug().Str("node", n.label()).Str("peer", addr).Msg("connected")
	}
	if _, err := conn.Write(payload); err != nil {
		log.P2P.Warn().Str("node", n.label()).Str("peer", addr).Err(err).Msg("send failed")
	}
	if n.loggingLevel >= 3 {
		log.P2P.Trace().Str("node", n.label()).Str("peer", addr).Bytes("payload", payload).Msg("sent")
	}
}

// Close stops accepting new connections.
func (n *Node) Close() error {
	if n.listener != nil {
		return n.listener.Close()
	}
	return nil
}

// handleNewNode adds the newcomer to the peer set, then floods the
// full peer set back out as known_nodes (spec.md §4.8).
func handleNewNode(n *Node, env *Envelope) {
	var id config.NodeID
	if err := json.Unmarshal(env.Data, &id); err != nil {
		return
	}
	n.AddKnownNode(id)

	n.mu.Lock()
	peers := make([]config.NodeID, 0, len(n.knownNodes))
	for p := range n.knownNodes {
		peers = append(peers, p)
	}
	n.mu.Unlock()

	_ = n.Send(peers, MsgKnownNodes, nil)
}

// handleKnownNodes unions the received peer list into the local set,
// excluding self (spec.md §4.8).
func handleKnownNodes(n *Node, env *Envelope) {
	var ids []config.NodeID
	if err := json.Unmarshal(env.Data, &ids); err != nil {
		return
	}
	for _, id := range ids {
		n.AddKnownNode(id)
	}
}
