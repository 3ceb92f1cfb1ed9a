// Package uniswap provides the on-chain client for Uniswap V2 style
// liquidity pools (Uniswap, Sushiswap, and other V2 forks share the pair
// contract interface): reserve reads over JSON-RPC and Swap log
// subscriptions over a WebSocket RPC endpoint.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// pairABIJSON is the subset of the V2 pair contract the scanner uses.
const pairABIJSON = `[
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"_reserve0","type":"uint112"},{"name":"_reserve1","type":"uint112"},{"name":"_blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"sender","type":"address"},{"indexed":false,"name":"amount0In","type":"uint256"},{"indexed":false,"name":"amount1In","type":"uint256"},{"indexed":false,"name":"amount0Out","type":"uint256"},{"indexed":false,"name":"amount1Out","type":"uint256"},{"indexed":true,"name":"to","type":"address"}],"name":"Swap","type":"event"}
]`

// pairABI is parsed once at package init; the JSON is a compile-time constant.
var pairABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		panic(fmt.Sprintf("uniswap: parse pair ABI: %v", err))
	}
	return parsed
}()

// Client reads pool state over JSON-RPC.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to the given RPC endpoint and verifies it answers.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("uniswap: dial %s: %w", rpcURL, err)
	}
	if _, err := eth.ChainID(ctx); err != nil {
		eth.Close()
		return nil, fmt.Errorf("uniswap: chain id: %w", err)
	}
	return &Client{eth: eth}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// GetReserves calls getReserves() on the pair contract at pool and returns
// the raw token0/token1 reserves. The caller applies decimal scaling.
func (c *Client) GetReserves(ctx context.Context, pool common.Address) (reserve0, reserve1 *big.Int, err error) {
	data, err := pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("uniswap: pack getReserves: %w", err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: data}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("uniswap: call getReserves %s: %w", pool.Hex(), err)
	}

	vals, err := pairABI.Unpack("getReserves", out)
	if err != nil {
		return nil, nil, fmt.Errorf("uniswap: unpack getReserves %s: %w", pool.Hex(), err)
	}
	if len(vals) < 2 {
		return nil, nil, fmt.Errorf("uniswap: getReserves %s: unexpected output length %d", pool.Hex(), len(vals))
	}

	reserve0, ok0 := vals[0].(*big.Int)
	reserve1, ok1 := vals[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, fmt.Errorf("uniswap: getReserves %s: unexpected output types", pool.Hex())
	}
	return reserve0, reserve1, nil
}
