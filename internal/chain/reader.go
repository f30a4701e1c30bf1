package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const (
	erc20ABIJSON = `[{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
)

// ErrRPC marks transport or contract-call failures against the chain endpoint.
var ErrRPC = errors.New("chain rpc call failed")

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC-20 ABI: " + err.Error())
	}
	erc20ABI = parsed
}

// Options parameterise the on-chain reader.
type Options struct {
	RPCURL  string
	Timeout time.Duration
}

// Reader issues read-only ERC-20 calls against a single RPC endpoint.
type Reader struct {
	opts      Options
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex
}

// NewReader builds a new chain reader.
func NewReader(opts Options, logger zerolog.Logger) *Reader {
	return &Reader{opts: opts, logger: logger.With().Str("component", "chain_reader").Logger()}
}

// Decimals returns the decimal precision reported by the token contract.
func (r *Reader) Decimals(ctx context.Context, token string) (uint8, error) {
	out, err := r.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	dec, ok := out.(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals output is not uint8", ErrRPC)
	}
	return dec, nil
}

// BalanceOf returns the smallest-unit balance of wallet for the token contract.
func (r *Reader) BalanceOf(ctx context.Context, token, wallet string) (*big.Int, error) {
	out, err := r.call(ctx, token, "balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, err
	}
	balance, ok := out.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: balanceOf output is not *big.Int", ErrRPC)
	}
	if balance.Sign() < 0 {
		return nil, fmt.Errorf("%w: balanceOf returned negative value", ErrRPC)
	}
	return balance, nil
}

func (r *Reader) call(ctx context.Context, token, method string, args ...any) (any, error) {
	if r.opts.RPCURL == "" {
		return nil, fmt.Errorf("%w: rpc url not configured", ErrRPC)
	}

	timeout := r.opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := r.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrRPC, r.opts.RPCURL, err)
	}

	addr := common.HexToAddress(token)
	payload, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrRPC, method, err)
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s(%s): %v", ErrRPC, method, token, err)
	}

	outputs, err := erc20ABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %v", ErrRPC, method, err)
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("%w: unexpected %s response arity %d", ErrRPC, method, len(outputs))
	}

	return outputs[0], nil
}

func (r *Reader) getClient(ctx context.Context) (*ethclient.Client, error) {
	r.clientMux.Lock()
	defer r.clientMux.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	client, err := ethclient.DialContext(ctx, r.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}
