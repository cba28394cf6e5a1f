// btcz-shielded CLI - BitcoinZ v4 Sapling transaction builder
//
// Example usage:
//
//	# Build and sign a transaction described by a YAML request
//	btcz-shielded build --config config.yml --request tx.yml
//
//	# Summarize a serialized transaction
//	btcz-shielded decode 04000080...
//
//	# Parse a payment request
//	btcz-shielded parse-uri "bitcoinz:t1...?amount=1.5"
//
//	# Show the network upgrade and branch id at a height
//	btcz-shielded branch 1200000
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/suffix-labs/btcz-shielded/pkg/api"
	"github.com/suffix-labs/btcz-shielded/pkg/builder"
	"github.com/suffix-labs/btcz-shielded/pkg/config"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
	"github.com/suffix-labs/btcz-shielded/pkg/payreq"
	"github.com/suffix-labs/btcz-shielded/pkg/txerr"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		cmdBuild(args)
	case "decode":
		cmdDecode(args)
	case "parse-uri":
		cmdParseURI(args)
	case "branch":
		cmdBranch(args)
	case "version":
		cmdVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`btcz-shielded - BitcoinZ Sapling transaction builder

Usage:
  btcz-shielded <command> [options]

Commands:
  build --request <file>       Build and sign a transaction
  decode <hex>                 Summarize a serialized transaction
  parse-uri <uri>              Parse a bitcoinz: payment request URI
  branch <height>              Show the consensus branch at a height
  version                      Show version information
  help                         Show this help message

Common options:
  --config <file>              YAML config (network, builder policies, fee)
  --debug                      Enable debug logging

Requests with sapling recipients need a Groth16 prover and are only
buildable through the Go API.`)
}

func cmdVersion() {
	fmt.Println("btcz-shielded " + version)
	fmt.Println("Transaction builder for BitcoinZ v4 (Sapling) transactions")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	return cfg
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", "", "config file")
	requestPath := fs.String("request", "", "request file")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	if *requestPath == "" {
		fail("Error: --request is required\nUsage: btcz-shielded build --request <file> [--config <file>]")
	}

	cfg := loadConfig(*configPath)
	logger, err := cfg.CreateLogger(*debug)
	if err != nil {
		fail("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	data, err := os.ReadFile(*requestPath)
	if err != nil {
		fail("Failed to read request: %v", err)
	}
	req, err := api.ParseRequest(data)
	if err != nil {
		fail("Failed to parse request: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := api.BuildTransaction(ctx, cfg, req, nil, builder.WithLogger(logger))
	if err != nil {
		logger.Error("build failed", zap.String("kind", string(txerr.KindOf(err))), zap.Error(err))
		fail("Build failed: %v", err)
	}

	fmt.Printf("txid: %s\n", res.TxID)
	fmt.Printf("fee:  %s BTCZ\n", payreq.FormatAmount(res.Fee))
	if res.Change > 0 {
		fmt.Printf("change: %s BTCZ\n", payreq.FormatAmount(res.Change))
	}
	fmt.Println(hex.EncodeToString(res.Raw))
}

func cmdDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	configPath := fs.String("config", "", "config file")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Error: transaction hex required\nUsage: btcz-shielded decode <hex>")
	}

	net, err := loadConfig(*configPath).Params()
	if err != nil {
		fail("Invalid network: %v", err)
	}
	raw, err := hex.DecodeString(fs.Arg(0))
	if err != nil {
		fail("Invalid hex: %v", err)
	}
	sum, err := api.DecodeTransaction(raw, net)
	if err != nil {
		fail("Failed to decode transaction: %v", err)
	}
	out, err := yaml.Marshal(sum)
	if err != nil {
		fail("Failed to encode summary: %v", err)
	}
	fmt.Print(string(out))
}

func cmdParseURI(args []string) {
	if len(args) < 1 {
		fail("Error: URI argument required\nUsage: btcz-shielded parse-uri <uri>")
	}

	req, err := payreq.Parse(args[0])
	if err != nil {
		fail("Failed to parse URI: %v", err)
	}

	fmt.Println("Payment Request:")
	fmt.Printf("  Payments: %d\n\n", len(req.Payments))

	for i, payment := range req.Payments {
		fmt.Printf("Payment %d:\n", i+1)
		fmt.Printf("  Address: %s\n", payment.Address)
		if payment.Amount != nil {
			fmt.Printf("  Amount:  %s BTCZ\n", payreq.FormatAmount(*payment.Amount))
		} else {
			fmt.Println("  Amount:  (user specified)")
		}
		if len(payment.Memo) > 0 {
			fmt.Printf("  Memo:    %q\n", payment.Memo)
		}
		if payment.Label != "" {
			fmt.Printf("  Label:   %s\n", payment.Label)
		}
		if payment.Message != "" {
			fmt.Printf("  Message: %s\n", payment.Message)
		}
		fmt.Println()
	}

	if total, err := req.Total(); err == nil {
		fmt.Printf("Total: %s BTCZ\n", payreq.FormatAmount(total))
	}
	fmt.Printf("Re-encoded URI:\n%s\n", req.Encode())
}

func cmdBranch(args []string) {
	fs := flag.NewFlagSet("branch", flag.ExitOnError)
	network := fs.String("network", "mainnet", "mainnet or regtest")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Error: height required\nUsage: btcz-shielded branch <height>")
	}
	height, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		fail("Invalid height: %v", err)
	}
	net, err := params.ByName(*network)
	if err != nil {
		fail("Invalid network: %v", err)
	}

	h := uint32(height)
	upgrade := net.CurrentUpgrade(h)
	fmt.Printf("network:   %s\n", net.Name)
	fmt.Printf("upgrade:   %s\n", upgrade)
	fmt.Printf("branch id: 0x%08x\n", net.BranchIDForHeight(h))
	if id, err := net.SighashBranchID(h); err == nil {
		fmt.Printf("sighash:   0x%08x\n", id)
	} else {
		fmt.Printf("sighash:   %v\n", err)
	}
	fmt.Printf("zip212:    %t\n", net.AfterZip212(h))
	fmt.Printf("expiry:    %d\n", net.ExpiryHeight(h, 0))
}
