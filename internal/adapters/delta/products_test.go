package delta_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/adapters/delta"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsBody = `{"success":true,"result":[
	{"id":27,"symbol":"BTCUSD","contract_type":"perpetual_futures","state":"live"},
	{"id":3136,"symbol":"ETHUSD","contract_type":"perpetual_futures","state":"live"},
	{"id":9001,"symbol":"OLDUSD","contract_type":"perpetual_futures","state":"expired"},
	{"id":9002,"symbol":"BTC_SPOT","contract_type":"spot","state":"live"}
]}`

func TestCatalog_ResolveLivePerpetuals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/products", r.URL.Path)
		w.Write([]byte(productsBody))
	}))
	defer srv.Close()

	catalog := delta.NewCatalog(delta.NewClient(srv.URL), time.Minute)

	id, err := catalog.Resolve(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, 27, id)

	id, err = catalog.Resolve(context.Background(), "ETHUSD")
	require.NoError(t, err)
	assert.Equal(t, 3136, id)
}

func TestCatalog_FiltersNonLiveAndNonDerivatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsBody))
	}))
	defer srv.Close()

	catalog := delta.NewCatalog(delta.NewClient(srv.URL), time.Minute)

	_, err := catalog.Resolve(context.Background(), "OLDUSD")
	assert.True(t, domain.IsNotFound(err), "expired product must not resolve")

	_, err = catalog.Resolve(context.Background(), "BTC_SPOT")
	assert.True(t, domain.IsNotFound(err), "spot product must not resolve")
}

func TestCatalog_MissRefreshesBeforeNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(productsBody))
	}))
	defer srv.Close()

	catalog := delta.NewCatalog(delta.NewClient(srv.URL), time.Hour)
	require.NoError(t, catalog.Refresh(context.Background()))
	require.Equal(t, int32(1), calls.Load())

	// Símbolo desconocido: un refresh extra antes de declarar NotFound.
	_, err := catalog.Resolve(context.Background(), "NOPEUSD")
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, int32(2), calls.Load())

	// Hit cacheado: sin viaje a la red.
	id, err := catalog.Resolve(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, 27, id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCatalog_RefreshReplacesWholesale(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(productsBody))
			return
		}
		// Segunda carga: BTCUSD desapareció del listado.
		w.Write([]byte(`{"success":true,"result":[
			{"id":3136,"symbol":"ETHUSD","contract_type":"perpetual_futures","state":"live"}
		]}`))
	}))
	defer srv.Close()

	catalog := delta.NewCatalog(delta.NewClient(srv.URL), time.Hour)
	require.NoError(t, catalog.Refresh(context.Background()))
	require.NoError(t, catalog.Refresh(context.Background()))

	_, err := catalog.Resolve(context.Background(), "BTCUSD")
	assert.True(t, domain.IsNotFound(err), "stale id must not survive a refresh")
}
