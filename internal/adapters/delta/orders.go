package delta

// orders.go — order gateway: market orders, per-product positions, balances.

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

const (
	ordersPath   = "/v2/orders"
	positionPath = "/v2/position"
	balancesPath = "/v2/wallet/balances"

	settlementAsset = "USD"
)

// Gateway implements ports.OrderGateway against the authenticated endpoints.
type Gateway struct {
	client *Client
}

// NewGateway creates the order gateway.
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// PlaceMarketOrder submits a market order. Size is a whole contract count;
// direction travels in Side, never in the sign of Size.
func (g *Gateway) PlaceMarketOrder(ctx context.Context, creds domain.Credentials, req domain.OrderRequest) (domain.PlacedOrder, error) {
	body := orderPayload{
		ProductID: req.ProductID,
		Size:      req.Size,
		Side:      string(req.Side),
		OrderType: "market_order",
	}

	var res orderResult
	if err := g.client.Do(ctx, "POST", ordersPath, "", body, creds, &res); err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("delta.PlaceMarketOrder: %w", err)
	}
	return domain.PlacedOrder{
		OrderID: strconv.FormatInt(res.ID, 10),
		State:   res.State,
	}, nil
}

// FetchPosition returns the account's live position for one product. A flat
// position is SignedSize == 0, not an error — callers must not assume the
// recorded copy still matches what the exchange holds.
func (g *Gateway) FetchPosition(ctx context.Context, creds domain.Credentials, productID int) (domain.Position, error) {
	query := "product_id=" + strconv.Itoa(productID)

	var payload positionPayload
	if err := g.client.Do(ctx, "GET", positionPath, query, nil, creds, &payload); err != nil {
		return domain.Position{}, fmt.Errorf("delta.FetchPosition: %w", err)
	}
	return domain.Position{
		Symbol:     payload.Product.Symbol,
		ProductID:  productID,
		SignedSize: payload.Size,
		EntryPrice: asFloat(payload.EntryPrice),
	}, nil
}

// FetchBalance returns the available settlement-asset balance, used by the
// percentage sizing mode. Each call is a fresh read.
func (g *Gateway) FetchBalance(ctx context.Context, creds domain.Credentials) (float64, error) {
	var payload []balancePayload
	if err := g.client.Do(ctx, "GET", balancesPath, "", nil, creds, &payload); err != nil {
		return 0, fmt.Errorf("delta.FetchBalance: %w", err)
	}
	for _, b := range payload {
		if b.AssetSymbol == settlementAsset {
			return asFloat(b.AvailableBalance), nil
		}
	}
	return 0, nil
}
