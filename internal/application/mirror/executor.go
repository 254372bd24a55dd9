package mirror

// executor.go — order submission with bounded retry.
//
// Retry policy mirrors the error taxonomy:
//   InsufficientMargin → halve the size (floor), resubmit; below one
//                        contract is terminal.
//   ExpiredSignature   → resubmit immediately; the client signs every
//                        attempt with a fresh timestamp.
//   Transient          → short backoff, resubmit.
//   anything else      → terminal, no retry. Permission and mapping errors
//                        cannot succeed without external intervention.
// The attempt budget is shared across all retryable classes so a flapping
// exchange can never hold a tick hostage.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/alejandrodnm/mirrorbot/internal/ports"
)

const (
	defaultOrderAttempts = 3
	defaultRetryBackoff  = 500 * time.Millisecond
)

// Executor submits mirrored orders through the exchange gateway.
type Executor struct {
	catalog  ports.ProductCatalog
	gateway  ports.OrderGateway
	attempts int
	backoff  time.Duration
}

// NewExecutor creates an executor with the given attempt budget. budget <= 0
// uses the default.
func NewExecutor(catalog ports.ProductCatalog, gateway ports.OrderGateway, budget int) *Executor {
	if budget <= 0 {
		budget = defaultOrderAttempts
	}
	return &Executor{
		catalog:  catalog,
		gateway:  gateway,
		attempts: budget,
		backoff:  defaultRetryBackoff,
	}
}

// Execute resolves the product and submits a market order for the follower.
// NotFound on the symbol is terminal before any network call.
func (e *Executor) Execute(ctx context.Context, creds domain.Credentials, symbol string, side domain.Side, contracts int) (domain.PlacedOrder, error) {
	productID, err := e.catalog.Resolve(ctx, symbol)
	if err != nil {
		return domain.PlacedOrder{}, fmt.Errorf("mirror.Execute: resolve %s: %w", symbol, err)
	}

	size := contracts
	var lastErr error
	for attempt := 1; attempt <= e.attempts; attempt++ {
		placed, err := e.gateway.PlaceMarketOrder(ctx, creds, domain.OrderRequest{
			ProductID: productID,
			Size:      size,
			Side:      side,
		})
		if err == nil {
			if size != contracts {
				slog.Info("order filled at reduced size",
					"symbol", symbol, "requested", contracts, "filled", size)
			}
			return placed, nil
		}
		lastErr = err

		switch domain.KindOf(err) {
		case domain.KindInsufficientMargin:
			size /= 2
			if size < 1 {
				return domain.PlacedOrder{}, fmt.Errorf("mirror.Execute: margin too low even for one contract: %w", err)
			}
			slog.Debug("insufficient margin, halving size",
				"symbol", symbol, "attempt", attempt, "next_size", size)

		case domain.KindExpiredSignature:
			slog.Debug("signature expired, resubmitting", "symbol", symbol, "attempt", attempt)

		case domain.KindTransient:
			if !sleepCtx(ctx, e.backoff) {
				return domain.PlacedOrder{}, ctx.Err()
			}

		default:
			return domain.PlacedOrder{}, fmt.Errorf("mirror.Execute: %w", err)
		}
	}
	return domain.PlacedOrder{}, fmt.Errorf("mirror.Execute: budget exhausted after %d attempts: %w", e.attempts, lastErr)
}

// sleepCtx espera respetando el contexto; false si el contexto se canceló.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
