package delta

// positions.go — fuente de snapshots de posiciones del master.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

const (
	positionsPath = "/v2/positions/margined"

	snapshotAttempts = 3
	snapshotBackoff  = 500 * time.Millisecond
)

// PositionSource implementa ports.PositionSource contra el endpoint de
// posiciones con margen.
type PositionSource struct {
	client  *Client
	backoff time.Duration
}

// NewPositionSource crea la fuente de snapshots.
func NewPositionSource(client *Client) *PositionSource {
	return &PositionSource{client: client, backoff: snapshotBackoff}
}

// FetchPositions devuelve las posiciones abiertas de la cuenta. Las filas con
// size cero se descartan (flat no es una posición). ExpiredSignature se
// reintenta una vez con timestamp fresco; Transient con backoff acotado.
// Cualquier otro error propaga al orquestador, que salta el tick.
func (s *PositionSource) FetchPositions(ctx context.Context, creds domain.Credentials) (domain.Snapshot, error) {
	var payload []positionPayload

	var lastErr error
	for attempt := 1; attempt <= snapshotAttempts; attempt++ {
		err := s.client.Do(ctx, "GET", positionsPath, "", nil, creds, &payload)
		if err == nil {
			return s.normalize(payload), nil
		}
		lastErr = err

		switch domain.KindOf(err) {
		case domain.KindExpiredSignature:
			// Do firma con timestamp fresco en cada llamada: reintentar ya.
			slog.Debug("snapshot signature expired, resyncing", "attempt", attempt)
		case domain.KindTransient:
			if !sleepCtx(ctx, s.backoff*time.Duration(attempt)) {
				return domain.Snapshot{}, ctx.Err()
			}
		default:
			return domain.Snapshot{}, fmt.Errorf("delta.FetchPositions: %w", err)
		}
	}
	return domain.Snapshot{}, fmt.Errorf("delta.FetchPositions: after %d attempts: %w", snapshotAttempts, lastErr)
}

// normalize convierte el payload al snapshot del dominio, sin filas flat.
func (s *PositionSource) normalize(payload []positionPayload) domain.Snapshot {
	snap := domain.Snapshot{TakenAt: time.Now().UTC()}
	for _, p := range payload {
		if p.Size == 0 {
			continue
		}
		productID := p.Product.ID
		if productID == 0 {
			productID = p.ProductID
		}
		snap.Positions = append(snap.Positions, domain.Position{
			Symbol:     p.Product.Symbol,
			ProductID:  productID,
			SignedSize: p.Size,
			EntryPrice: asFloat(p.EntryPrice),
		})
	}
	return snap
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
