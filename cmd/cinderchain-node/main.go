// cinderchain-node runs a full peer: it joins the gossip overlay, mines
// blocks once its mempool crosses the configured threshold, and serves
// utxos_request/request_blockchain replies for the peers around it.
//
// Usage:
//
//	cinderchain-node [flags]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cindermesh/cinderchain/config"
	"github.com/cindermesh/cinderchain/internal/log"
	"github.com/cindermesh/cinderchain/internal/miner"
	"github.com/cindermesh/cinderchain/internal/p2p"
	"github.com/cindermesh/cinderchain/pkg/crypto"
)

func main() {
	host := flag.String("host", config.DefaultHost, "interface to listen on")
	port := flag.Int("port", config.DefaultPort, "TCP port to listen on (0 = OS-assigned)")
	name := flag.String("name", "", "human-readable node name, used in logs only")
	known := flag.String("known-nodes", "", "comma-separated host:port seed peers")
	difficulty := flag.Int("difficulty", config.DefaultDifficulty, "leading hex zeros required for a valid block hash")
	minTx := flag.Int("block-min-tx", config.DefaultBlockMinTransactions, "mempool size before a candidate block is attempted")
	reward := flag.Uint64("reward", config.DefaultReward, "coinbase amount minted per mined block")
	logLevel := flag.Int("log-level", config.DefaultLoggingLevel, "0=errors only, 1=connections, 2=connect detail, 3=full payloads")
	jsonLogs := flag.Bool("json-logs", false, "emit logs as JSON instead of a colored console")
	flag.Parse()

	if err := log.Init(log.LevelFromOption(*logLevel), *jsonLogs, ""); err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-node: failed to init logging: %v\n", err)
		os.Exit(1)
	}

	seeds, err := parseSeeds(*known)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-node: %v\n", err)
		os.Exit(1)
	}

	priv, err := crypto.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-node: failed to generate mining key: %v\n", err)
		os.Exit(1)
	}
	addr := crypto.AddressFromPubKey(priv.PublicKey())

	opts := config.Options{
		Host:                 *host,
		Port:                 *port,
		NodeName:             *name,
		MaxListens:           config.DefaultMaxListens,
		MaxRecvSize:          config.DefaultMaxRecvSize,
		LoggingLevel:         *logLevel,
		KnownNodes:           seeds,
		Difficulty:           *difficulty,
		BlockMinTransactions: *minTx,
		Reward:               *reward,
	}

	node, err := p2p.New(opts, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-node: failed to start node: %v\n", err)
		os.Exit(1)
	}
	defer node.Close()

	m := miner.New(opts, node, priv)

	log.Miner.Info().
		Str("node", node.ID().Host+":"+strconv.Itoa(node.ID().Port)).
		Str("address", addr.String()).
		Int("difficulty", *difficulty).
		Msg("mining")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	m.Run(ctx)
}

func parseSeeds(raw string) ([]config.NodeID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	seeds := make([]config.NodeID, 0, len(parts))
	for _, p := range parts {
		host, portStr, err := splitHostPort(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", p, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seed port %q: %w", p, err)
		}
		seeds = append(seeds, config.NodeID{Host: host, Port: port})
	}
	return seeds, nil
}

func splitHostPort(hostport string) (host, port string, err error) {
	i := strings.LastIndex(hostport, ":")
	if i < 0 {
		return "", "", fmt.Errorf("missing port")
	}
	return hostport[:i], hostport[i+1:], nil
}
