// cinderchain-wallet joins the gossip overlay as a lightweight peer: it
// mirrors its own UTXOs via utxos_request/utxos_response and can send
// funds by broadcasting a signed transaction, without ever mining.
//
// Usage:
//
//	cinderchain-wallet balance --known-nodes=host:port
//	cinderchain-wallet send --known-nodes=host:port --to=<address-hex> --amount=<n>
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cindermesh/cinderchain/config"
	"github.com/cindermesh/cinderchain/internal/log"
	"github.com/cindermesh/cinderchain/internal/p2p"
	"github.com/cindermesh/cinderchain/internal/wallet"
	"github.com/cindermesh/cinderchain/pkg/crypto"
	"github.com/cindermesh/cinderchain/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "balance":
		runBalance(os.Args[2:])
	case "send":
		runSend(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cinderchain-wallet <balance|send> [flags]")
}

func commonFlags(fs *flag.FlagSet) (*string, *string) {
	known := fs.String("known-nodes", "", "comma-separated host:port peers to join through")
	host := fs.String("host", config.DefaultHost, "interface to listen on")
	return known, host
}

func joinNetwork(known, host string) (*p2p.Node, *wallet.Wallet, *crypto.PrivateKey, error) {
	seeds, err := parseSeeds(known)
	if err != nil {
		return nil, nil, nil, err
	}
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, nil, err
	}
	opts := config.Default()
	opts.Host = host
	opts.KnownNodes = seeds
	opts.LoggingLevel = 0

	node, err := p2p.New(opts, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	w := wallet.New(node, priv)
	// Let the bootstrap new_node/known_nodes exchange settle before
	// issuing a utxos_request.
	time.Sleep(200 * time.Millisecond)
	return node, w, priv, nil
}

func runBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	known, host := commonFlags(fs)
	fs.Parse(args)

	node, w, _, err := joinNetwork(*known, *host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: %v\n", err)
		os.Exit(1)
	}
	defer node.Close()

	if err := w.RefreshBalance(); err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: refresh balance: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("address: %s\n", w.Address().String())
	fmt.Printf("balance: %d\n", w.GetBalance())
	for _, e := range w.Snapshot() {
		fmt.Printf("  %s  %d\n", e.ID, e.Amount)
	}
}

func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	known, host := commonFlags(fs)
	to := fs.String("to", "", "recipient address, hex-encoded")
	amount := fs.Uint64("amount", 0, "amount to send")
	fs.Parse(args)

	if *to == "" || *amount == 0 {
		fmt.Fprintln(os.Stderr, "cinderchain-wallet: --to and --amount are required")
		os.Exit(1)
	}
	receiver, err := types.HexToAddress(*to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: invalid --to: %v\n", err)
		os.Exit(1)
	}

	node, w, _, err := joinNetwork(*known, *host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: %v\n", err)
		os.Exit(1)
	}
	defer node.Close()

	if err := w.RefreshBalance(); err != nil {
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: refresh balance: %v\n", err)
		os.Exit(1)
	}

	txn, err := w.SendCrypto(receiver, *amount)
	if err != nil {
		log.Wallet.Error().Err(err).Msg("send_crypto failed")
		fmt.Fprintf(os.Stderr, "cinderchain-wallet: send: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sent: %s\n", txn.Hash().String())
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
