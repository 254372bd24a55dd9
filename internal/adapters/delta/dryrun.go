package delta

// dryrun.go — gateway para -dry-run: lee estado real, nunca envía órdenes.

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/google/uuid"
)

// DryRunGateway envuelve el gateway real: las lecturas (posición, balance)
// pasan al exchange, las órdenes se loguean y devuelven un ID sintético.
type DryRunGateway struct {
	*Gateway
}

// NewDryRunGateway crea el gateway de dry-run sobre el cliente dado.
func NewDryRunGateway(client *Client) *DryRunGateway {
	return &DryRunGateway{Gateway: NewGateway(client)}
}

// PlaceMarketOrder no envía nada: imprime la orden y la da por ejecutada.
func (g *DryRunGateway) PlaceMarketOrder(_ context.Context, _ domain.Credentials, req domain.OrderRequest) (domain.PlacedOrder, error) {
	slog.Info("dry-run: order suppressed",
		"product_id", req.ProductID,
		"side", req.Side,
		"size", req.Size,
	)
	return domain.PlacedOrder{OrderID: "dry-" + uuid.New().String(), State: "closed"}, nil
}
