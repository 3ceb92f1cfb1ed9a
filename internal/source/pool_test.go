package source

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
)

var poolAddr = common.HexToAddress("0x0d4a11d5EEaaC28EC3F61d100daF4d40471f1852")

// stubReserves is a scripted ReserveReader.
type stubReserves struct {
	reserve0, reserve1 *big.Int
	err                error
}

func (s *stubReserves) GetReserves(_ context.Context, _ common.Address) (*big.Int, *big.Int, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.reserve0, s.reserve1, nil
}

// stubFees is a scripted domain.FeeRegistry.
type stubFees struct {
	fee float64
	err error
}

func (s *stubFees) Fee(_ context.Context, _ domain.Pair) (float64, error) {
	return s.fee, s.err
}

// units scales n by 10^decimals.
func units(n int64, decimals int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func newTestPool(client ReserveReader, fees domain.FeeRegistry, baseIsToken0 bool) *Pool {
	return NewPool("uniswap", client, map[string]PoolBinding{
		"ETH/USDT": {Address: poolAddr, BaseIsToken0: baseIsToken0},
	}, 0.002, 0.003, fees, nopLimiter{}, testLogger())
}

func TestPoolFetchScalesReserves(t *testing.T) {
	// 10 ETH (18 decimals) against 20000 USDT (6 decimals): mid is 2000.
	client := &stubReserves{reserve0: units(10, 18), reserve1: units(20000, 6)}
	src := newTestPool(client, nil, true)

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)

	assert.Equal(t, "uniswap", q.Venue)
	assert.Equal(t, "ETH/USDT", q.Pair)
	assert.InDelta(t, 1996.0, q.Bid, 1e-6)
	assert.InDelta(t, 2004.0, q.Ask, 1e-6)
	assert.Equal(t, 0.003, q.FeeFraction)
}

func TestPoolFetchInvertedTokenOrder(t *testing.T) {
	// Same pool with USDT as token0: orientation comes from the binding.
	client := &stubReserves{reserve0: units(20000, 6), reserve1: units(10, 18)}
	src := newTestPool(client, nil, false)

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)

	assert.InDelta(t, 1996.0, q.Bid, 1e-6)
	assert.InDelta(t, 2004.0, q.Ask, 1e-6)
}

func TestPoolFetchUsesFeeRegistry(t *testing.T) {
	client := &stubReserves{reserve0: units(10, 18), reserve1: units(20000, 6)}
	src := newTestPool(client, &stubFees{fee: 0.0025}, true)

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 0.0025, q.FeeFraction)
}

func TestPoolFetchFeeRegistryFailureFallsBack(t *testing.T) {
	client := &stubReserves{reserve0: units(10, 18), reserve1: units(20000, 6)}
	src := newTestPool(client, &stubFees{err: errors.New("fee api down")}, true)

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 0.003, q.FeeFraction)
}

func TestPoolFetchEmptyBaseReserve(t *testing.T) {
	client := &stubReserves{reserve0: big.NewInt(0), reserve1: units(20000, 6)}
	src := newTestPool(client, nil, true)

	_, err := src.Fetch(context.Background(), ethUSDT)
	require.Error(t, err)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestPoolFetchEmptyQuoteReserve(t *testing.T) {
	// A pool drained to one side must not quote a zero price.
	client := &stubReserves{reserve0: units(10, 18), reserve1: big.NewInt(0)}
	src := newTestPool(client, nil, true)

	_, err := src.Fetch(context.Background(), ethUSDT)
	require.Error(t, err)

	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
}

func TestPoolFetchReserveError(t *testing.T) {
	cause := errors.New("rpc timeout")
	src := newTestPool(&stubReserves{err: cause}, nil, true)

	_, err := src.Fetch(context.Background(), ethUSDT)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestPoolCovers(t *testing.T) {
	src := newTestPool(&stubReserves{}, nil, true)

	assert.True(t, src.Covers(ethUSDT))
	assert.False(t, src.Covers(domain.Pair{Symbol: "DOGE/USDT"}))
}
