// Package miner implements the mining loop, block-acceptance state
// machine, and UTXO maintenance a full node runs (spec.md §4.5–§4.7).
package miner

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cindermesh/cinderchain/config"
	"github.com/cindermesh/cinderchain/internal/chain"
	"github.com/cindermesh/cinderchain/internal/log"
	"github.com/cindermesh/cinderchain/internal/mempool"
	"github.com/cindermesh/cinderchain/internal/p2p"
	"github.com/cindermesh/cinderchain/internal/utxo"
	"github.com/cindermesh/cinderchain/pkg/block"
	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/tx"
	"github.com/cindermesh/cinderchain/pkg/types"
)

// idleSleep is how long the mining loop sleeps between idle cycles when
// it has nothing to mine (spec.md §4.5 step 1, §5 "suspension points").
const idleSleep = 50 * time.Millisecond

// Miner owns a chain, mempool, and UTXO index, mines blocks paying
// itself a coinbase reward, and runs the acceptance/fork-resolution
// state machine of spec.md §4.6 against its peer overlay.
type Miner struct {
	node    *p2p.Node
	chain   *chain.Chain
	pool    *mempool.Pool
	utxos   *utxo.Set
	priv    *crypto.PrivateKey
	address types.Address

	difficulty int
	blockMinTx int
	reward     uint64

	stopMining atomic.Bool
}

// New builds a Miner and registers its handlers on node for every
// message type the acceptance state machine and mempool/UTXO
// maintenance react to (spec.md §4.6, §4.7, §4.8).
func New(opts config.Options, node *p2p.Node, priv *crypto.PrivateKey) *Miner {
	m := &Miner{
		node:       node,
		chain:      chain.New(),
		pool:       mempool.New(),
		utxos:      utxo.New(),
		priv:       priv,
		address:    crypto.AddressFromPubKey(priv.PublicKey()),
		difficulty: opts.Difficulty,
		blockMinTx: opts.BlockMinTransactions,
		reward:     opts.Reward,
	}

	node.RegisterHandler(p2p.MsgTransaction, m.handleTransaction)
	node.RegisterHandler(p2p.MsgMinedBlock, m.handleMinedBlock)
	node.RegisterHandler(p2p.MsgRequestBlockchain, m.handleRequestBlockchain)
	node.RegisterHandler(p2p.MsgBlockchainUpdate, m.handleBlockchainUpdate)
	node.RegisterHandler(p2p.MsgUTXOsRequest, m.handleUTXOsRequest)

	return m
}

// Chain returns the miner's local chain.
func (m *Miner) Chain() *chain.Chain { return m.chain }

// Mempool returns the miner's pending-transaction pool.
func (m *Miner) Mempool() *mempool.Pool { return m.pool }

// UTXOs returns the miner's UTXO index.
func (m *Miner) UTXOs() *utxo.Set { return m.utxos }

// Address returns the address mining rewards are paid to.
func (m *Miner) Address() types.Address { return m.address }

// Run drives the mining loop (spec.md §4.5) until ctx is cancelled.
func (m *Miner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if m.stopMining.Load() || m.pool.Len() < m.blockMinTx {
			time.Sleep(idleSleep)
			continue
		}

		m.mineOnce(ctx)
	}
}

// mineOnce runs one attempt at the mining loop body (spec.md §4.5
// steps 2-6): build a candidate over the current mempool snapshot, and
// search for a PoW-valid nonce until success, cancellation, or staleness.
func (m *Miner) mineOnce(ctx context.Context) {
	prevHash := m.chain.TipHash()
	index := uint64(m.chain.Len())

	pending := m.pool.Snapshot()
	coinbase := m.buildCoinbase()
	coinbase.SetHash()
	txs := make([]*tx.Transaction, 0, len(pending)+1)
	txs = append(txs, coinbase)
	txs = append(txs, pending...)

	candidate := block.NewBlock(index, prevHash, time.Now().UnixNano(), txs)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if m.stopMining.Load() {
			return
		}
		if m.candidateStale(pending) {
			return
		}

		candidate.Nonce = time.Now().UnixNano()
		if candidate.IsValidSolution(m.difficulty) {
			break
		}
	}

	if err := m.chain.Append(candidate); err != nil {
		return
	}
	m.utxos.RebuildFromChain(m.chain.Blocks())
	m.pool.RemoveIncluded(pending)

	log.Miner.Info().
		Uint64("index", candidate.Index).
		Str("hash", candidate.Hash().String()).
		Msg("mined block")

	if err := m.node.Send(candidate, p2p.MsgMinedBlock, nil); err != nil {
		log.Miner.Warn().Err(err).Msg("failed to broadcast mined block")
	}
}

// candidateStale reports whether any non-coinbase transaction in
// pending has since left the mempool (spec.md §4.5 step 5(c)).
func (m *Miner) candidateStale(pending []*tx.Transaction) bool {
	for _, t := range pending {
		if !m.pool.Has(t.Hash()) {
			return true
		}
	}
	return false
}

// buildCoinbase mints a fresh reward transaction paying m.address.
func (m *Miner) buildCoinbase() *tx.Transaction {
	return &tx.Transaction{
		Outputs: []tx.Output{{
			Amount:        m.reward,
			LockingScript: tx.LockingScript(m.address),
		}},
		Timestamp: time.Now().UnixNano(),
	}
}

// handleTransaction validates an incoming transaction and, if valid,
// adds it to the mempool (spec.md §4.8 "transaction").
func (m *Miner) handleTransaction(_ *p2p.Node, env *p2p.Envelope) {
	var t tx.Transaction
	if err := json.Unmarshal(env.Data, &t); err != nil {
		return
	}
	_ = m.pool.Add(&t)
}

// handleMinedBlock implements the acceptance/fork-resolution state
// machine of spec.md §4.6.
func (m *Miner) handleMinedBlock(_ *p2p.Node, env *p2p.Envelope) {
	var b block.Block
	if err := json.Unmarshal(env.Data, &b); err != nil {
		return
	}
	if !b.IsValidSolution(m.difficulty) {
		return
	}

	tip := m.chain.Tip()
	chainLen := uint64(m.chain.Len())

	// Fast-forward case: the block extends our tip and was mined after it.
	if tip != nil && b.Index == chainLen && b.PreviousHash == tip.Hash() && tip.Nonce < b.Timestamp {
		m.acceptFastForward(&b)
		return
	}
	if tip == nil && b.Index == 0 {
		m.acceptFastForward(&b)
		return
	}

	// Future case: valid but doesn't attach to our tip.
	if b.Index >= chainLen && (tip == nil || b.PreviousHash != tip.Hash()) {
		m.requestBlockchain(env.Sender)
		return
	}

	// Tie case: same height as tip, compare (nonce, timestamp) lexicographically.
	if tip != nil && chainLen > 0 && b.Index == chainLen-1 {
		incoming := [2]int64{b.Nonce, b.Timestamp}
		current := [2]int64{tip.Nonce, tip.Timestamp}
		if lexLess(incoming, current) {
			m.requestBlockchain(env.Sender)
		}
		return
	}
}

func lexLess(a, b [2]int64) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

func (m *Miner) acceptFastForward(b *block.Block) {
	m.stopMining.Store(true)
	if err := m.chain.Append(b); err != nil {
		m.stopMining.Store(false)
		return
	}
	m.utxos.RebuildFromChain(m.chain.Blocks())
	m.pool.RemoveIncluded(b.Transactions)
	m.stopMining.Store(false)
}

func (m *Miner) requestBlockchain(sender config.NodeID) {
	m.stopMining.Store(true)
	if err := m.node.Send(m.node.ID(), p2p.MsgRequestBlockchain, &sender); err != nil {
		log.Miner.Warn().Err(err).Msg("failed to request blockchain")
	}
}

// handleRequestBlockchain replies directly to the requester with the
// local chain and mempool (spec.md §4.6).
func (m *Miner) handleRequestBlockchain(_ *p2p.Node, env *p2p.Envelope) {
	update := chainUpdate{Chain: m.chain.Blocks(), Mempool: m.pool.Snapshot()}
	sender := env.Sender
	if err := m.node.Send(update, p2p.MsgBlockchainUpdate, &sender); err != nil {
		log.Miner.Warn().Err(err).Msg("failed to reply with blockchain update")
	}
}

// handleBlockchainUpdate adopts the received chain and mempool if they
// are at least as long as the local ones (spec.md §4.6).
func (m *Miner) handleBlockchainUpdate(_ *p2p.Node, env *p2p.Envelope) {
	var update chainUpdate
	if err := json.Unmarshal(env.Data, &update); err != nil {
		return
	}
	if len(update.Chain) >= m.chain.Len() {
		m.chain.Replace(update.Chain)
		m.utxos.RebuildFromChain(m.chain.Blocks())

		newPool := mempool.New()
		for _, t := range update.Mempool {
			_ = newPool.Add(t)
		}
		m.pool = newPool
	}
	m.stopMining.Store(false)
}

// handleUTXOsRequest replies with the UTXO subset paying the requested
// address (spec.md §4.8 "utxos_request").
func (m *Miner) handleUTXOsRequest(_ *p2p.Node, env *p2p.Envelope) {
	var addr types.Address
	if err := json.Unmarshal(env.Data, &addr); err != nil {
		return
	}
	subset := m.utxos.ForAddress(addr)
	sender := env.Sender
	if err := m.node.Send(subset, p2p.MsgUTXOsResponse, &sender); err != nil {
		log.Miner.Warn().Err(err).Msg("failed to reply with utxos response")
	}
}

// SpendReward builds and broadcasts a transaction spending amount from
// the miner's own coinbase proceeds to receiver. A mining node never
// waits on a utxos_response for its own funds — it already
// authoritatively holds the UTXO index — so this mirrors
// Wallet.SendCrypto's coin selection and signing directly against
// m.utxos rather than against a mirror (spec.md §4.9, supplemented for
// mining nodes).
func (m *Miner) SpendReward(receiver types.Address, amount uint64) (*tx.Transaction, error) {
	owned := m.utxos.ForAddress(m.address)

	ids := make([]string, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	available := make([]tx.SpendableUTXO, 0, len(owned))
	for _, id := range ids {
		available = append(available, tx.SpendableUTXO{ID: id, Amount: owned[id].Amount})
	}

	selected, _, ok := tx.SelectCoins(available, amount)
	if !ok {
		return nil, tx.ErrInsufficientBalance
	}

	t, err := tx.BuildSpend(m.priv, selected, amount, receiver)
	if err != nil {
		return nil, err
	}

	if err := m.node.Send(t, p2p.MsgTransaction, nil); err != nil {
		return nil, err
	}
	return t, nil
}
