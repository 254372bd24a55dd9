package ports

import (
	"context"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// PositionSource obtiene las posiciones abiertas de una cuenta en el exchange.
type PositionSource interface {
	// FetchPositions devuelve el snapshot actual, sin posiciones flat.
	FetchPositions(ctx context.Context, creds domain.Credentials) (domain.Snapshot, error)
}

// OrderGateway submits orders and reads per-account state on the exchange.
type OrderGateway interface {
	// PlaceMarketOrder signs and submits a market order with the account's
	// credentials. A fresh timestamp/signature is produced on every call.
	PlaceMarketOrder(ctx context.Context, creds domain.Credentials, req domain.OrderRequest) (domain.PlacedOrder, error)

	// FetchPosition returns the account's live position for one product.
	// A flat position comes back with SignedSize == 0, not an error.
	FetchPosition(ctx context.Context, creds domain.Credentials, productID int) (domain.Position, error)

	// FetchBalance returns the account's available settlement balance.
	FetchBalance(ctx context.Context, creds domain.Credentials) (float64, error)
}
