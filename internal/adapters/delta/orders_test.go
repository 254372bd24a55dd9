package delta_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/mirrorbot/internal/adapters/delta"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceMarketOrder_Payload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 27, body["product_id"])
		assert.EqualValues(t, 3, body["size"])
		assert.Equal(t, "buy", body["side"])
		assert.Equal(t, "market_order", body["order_type"])

		w.Write([]byte(`{"success":true,"result":{"id":123456,"state":"closed"}}`))
	}))
	defer srv.Close()

	gw := delta.NewGateway(delta.NewClient(srv.URL))
	placed, err := gw.PlaceMarketOrder(context.Background(), testCreds, domain.OrderRequest{
		ProductID: 27,
		Size:      3,
		Side:      domain.SideBuy,
	})
	require.NoError(t, err)
	assert.Equal(t, "123456", placed.OrderID)
	assert.Equal(t, "closed", placed.State)
}

func TestFetchPosition_QueryAndMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/position", r.URL.Path)
		assert.Equal(t, "27", r.URL.Query().Get("product_id"))
		w.Write([]byte(`{"success":true,"result":{"size":-2,"entry_price":"49000","product":{"id":27,"symbol":"BTCUSD"}}}`))
	}))
	defer srv.Close()

	gw := delta.NewGateway(delta.NewClient(srv.URL))
	pos, err := gw.FetchPosition(context.Background(), testCreds, 27)
	require.NoError(t, err)
	assert.Equal(t, 27, pos.ProductID)
	assert.InDelta(t, -2.0, pos.SignedSize, 0.001)
	assert.InDelta(t, 49000.0, pos.EntryPrice, 0.001)
}

func TestFetchPosition_FlatIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"result":{"size":0,"entry_price":"0"}}`))
	}))
	defer srv.Close()

	gw := delta.NewGateway(delta.NewClient(srv.URL))
	pos, err := gw.FetchPosition(context.Background(), testCreds, 27)
	require.NoError(t, err)
	assert.True(t, pos.IsFlat())
}

func TestFetchBalance_PicksSettlementAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/wallet/balances", r.URL.Path)
		w.Write([]byte(`{"success":true,"result":[
			{"asset_symbol":"BTC","available_balance":"0.5"},
			{"asset_symbol":"USD","available_balance":"1234.56"}
		]}`))
	}))
	defer srv.Close()

	gw := delta.NewGateway(delta.NewClient(srv.URL))
	balance, err := gw.FetchBalance(context.Background(), testCreds)
	require.NoError(t, err)
	assert.InDelta(t, 1234.56, balance, 0.001)
}
