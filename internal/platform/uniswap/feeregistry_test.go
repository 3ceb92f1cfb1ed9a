package uniswap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
)

const testPool = "0x0d4a11d5EEaaC28EC3F61d100daF4d40471f1852"

var ethUSDT = domain.Pair{Symbol: "ETH/USDT", BaseDecimals: 18, QuoteDecimals: 6}

func TestFeeLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testPool, r.URL.Query().Get("pool"))
		_, _ = w.Write([]byte(`{"pool": "` + testPool + `", "fee_bps": 30}`))
	}))
	defer srv.Close()

	reg := NewFeeRegistry(srv.URL, map[string]string{"ETH/USDT": testPool})
	fee, err := reg.Fee(context.Background(), ethUSDT)
	require.NoError(t, err)
	assert.InDelta(t, 0.003, fee, 1e-9)
}

func TestFeeUnknownPair(t *testing.T) {
	reg := NewFeeRegistry("http://unused.example.org", map[string]string{})
	_, err := reg.Fee(context.Background(), ethUSDT)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeeImplausibleValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"pool": "` + testPool + `", "fee_bps": 10001}`))
	}))
	defer srv.Close()

	reg := NewFeeRegistry(srv.URL, map[string]string{"ETH/USDT": testPool})
	_, err := reg.Fee(context.Background(), ethUSDT)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "implausible fee")
}

func TestFeeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := NewFeeRegistry(srv.URL, map[string]string{"ETH/USDT": testPool})
	_, err := reg.Fee(context.Background(), ethUSDT)
	assert.Error(t, err)
}
