package coins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/johncarlocaintic/VictusGlobal/internal/config"
	"github.com/johncarlocaintic/VictusGlobal/internal/pkg/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slugResponse = `{
  "status": {"error_code": 0},
  "data": {
    "5805": {
      "id": 5805,
      "name": "Avalanche",
      "symbol": "AVAX",
      "slug": "avalanche",
      "platform": {"name": "Ethereum", "token_address": "0x85f138bfee4ef8e540890cfb48f620571d67eda3"}
    }
  }
}`

const symbolResponse = `{
  "status": {"error_code": 0},
  "data": {
    "PEPE": [
      {"id": 24478, "name": "Pepe", "symbol": "PEPE", "platform": null}
    ]
  }
}`

func newResolver(t *testing.T, srv *httptest.Server, apiKey string) *CMCResolver {
	t.Helper()
	cfg := config.CMCConfig{
		APIKey:                 apiKey,
		BaseURL:                srv.URL,
		TimeoutSeconds:         2,
		BreakerThreshold:       2,
		BreakerCooldownSeconds: 60,
	}
	return NewCMCResolver(cfg, nil)
}

func TestResolve_BySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, infoPath, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-CMC_PRO_API_KEY"))
		assert.Equal(t, "avalanche", r.URL.Query().Get("slug"))
		_, _ = w.Write([]byte(slugResponse))
	}))
	defer srv.Close()

	id, err := newResolver(t, srv, "secret").Resolve(context.Background(), "avalanche")
	require.NoError(t, err)
	assert.Equal(t, "Avalanche", id.Name)
	assert.Equal(t, "AVAX", id.Symbol)
	assert.Equal(t, "Ethereum", id.Platform)
	assert.Equal(t, "0x85f138bfee4ef8e540890cfb48f620571d67eda3", id.ContractAddress)
}

func TestResolve_FallsBackToSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":{"error_code":400,"error_message":"Invalid value for \"slug\""}}`))
			return
		}
		assert.Equal(t, "PEPE", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(symbolResponse))
	}))
	defer srv.Close()

	id, err := newResolver(t, srv, "secret").Resolve(context.Background(), "pepe")
	require.NoError(t, err)
	assert.Equal(t, "Pepe", id.Name)
	assert.Empty(t, id.Platform)
}

func TestResolve_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":{"error_code":0},"data":{}}`))
	}))
	defer srv.Close()

	r := newResolver(t, srv, "secret")
	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "doesnotexist")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, circuit.StateClosed, r.breaker.State())
}

func TestResolve_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":{"error_message":"boom"}}`))
	}))
	defer srv.Close()

	r := newResolver(t, srv, "secret")
	r.breaker.OnStateChange(func(string, circuit.State, circuit.State) {})
	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), "avalanche")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	}
	_, err := r.Resolve(context.Background(), "avalanche")
	assert.ErrorIs(t, err, circuit.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolve_NoAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected without api key")
	}))
	defer srv.Close()

	_, err := newResolver(t, srv, "").Resolve(context.Background(), "avalanche")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
