// Package ethbridge implements evaldefs.Bridge on an Ethereum JSON-RPC node.
//
// Artifacts are deployed with eth_sendTransaction from an account unlocked on
// the node, and invoked with eth_call.
package ethbridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"src.solrepl.sh/pkg/eval/evaldefs"
	"src.solrepl.sh/pkg/logutil"
)

var logger = logutil.GetLogger("[ethbridge] ")

// DefaultGas is the gas limit of deployment transactions.
const DefaultGas = 3000000

// DefaultPollInterval is the interval of polling for transaction receipts.
const DefaultPollInterval = 100 * time.Millisecond

// Errors.
var (
	ErrNoAccounts = errors.New("node has no accounts")
	ErrReverted   = errors.New("deployment transaction reverted")
)

// Config keeps the configuration of a Bridge.
type Config struct {
	URL string
	// Sender of transactions. If empty, the first account of the node is used.
	Account string
	// Defaults to DefaultGas.
	Gas uint64
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// Bridge is a connection to a node.
type Bridge struct {
	rpc          *rpc.Client
	client       *ethclient.Client
	from         common.Address
	gas          uint64
	pollInterval time.Duration
}

var _ evaldefs.Bridge = (*Bridge)(nil)

// Dial connects to the node at cfg.URL and resolves the sender account.
func Dial(ctx context.Context, cfg Config) (*Bridge, error) {
	c, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	b := &Bridge{
		rpc:          c,
		client:       ethclient.NewClient(c),
		gas:          cfg.Gas,
		pollInterval: cfg.PollInterval,
	}
	if b.gas == 0 {
		b.gas = DefaultGas
	}
	if b.pollInterval == 0 {
		b.pollInterval = DefaultPollInterval
	}
	if cfg.Account != "" {
		if !common.IsHexAddress(cfg.Account) {
			c.Close()
			return nil, fmt.Errorf("invalid account %q", cfg.Account)
		}
		b.from = common.HexToAddress(cfg.Account)
	} else {
		var accounts []common.Address
		if err := c.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
			c.Close()
			return nil, fmt.Errorf("eth_accounts: %w", err)
		}
		if len(accounts) == 0 {
			c.Close()
			return nil, ErrNoAccounts
		}
		b.from = accounts[0]
	}
	logger.Printf("connected to %s as %s", cfg.URL, b.from.Hex())
	return b, nil
}

// From returns the sender account.
func (b *Bridge) From() common.Address { return b.from }

// Close closes the connection.
func (b *Bridge) Close() { b.rpc.Close() }

type sendTxArgs struct {
	From common.Address `json:"from"`
	Data hexutil.Bytes  `json:"data"`
	Gas  hexutil.Uint64 `json:"gas"`
}

// Deploy implements evaldefs.Bridge.
func (b *Bridge) Deploy(ctx context.Context, a evaldefs.Artifact) (evaldefs.Handle, error) {
	var hash common.Hash
	err := b.rpc.CallContext(ctx, &hash, "eth_sendTransaction",
		sendTxArgs{From: b.from, Data: a.Bytecode, Gas: hexutil.Uint64(b.gas)})
	if err != nil {
		return evaldefs.Handle{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	receipt, err := b.waitMined(ctx, hash)
	if err != nil {
		return evaldefs.Handle{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return evaldefs.Handle{}, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}
	return evaldefs.Handle{Address: receipt.ContractAddress.Hex(), ABI: a.ABI}, nil
}

func (b *Bridge) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt of %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Invoke implements evaldefs.Bridge.
func (b *Bridge) Invoke(ctx context.Context, h evaldefs.Handle, entry string) ([]any, error) {
	parsed, err := abi.JSON(strings.NewReader(h.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	input, err := parsed.Pack(entry)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(h.Address)
	output, err := b.client.CallContract(ctx, ethereum.CallMsg{From: b.from, To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call: %w", err)
	}
	return parsed.Unpack(entry, output)
}
