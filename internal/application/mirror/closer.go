package mirror

// closer.go — aplana la posición del follower cuando el master cierra.
//
// Nunca asume que la posición del follower sigue midiendo lo que registró el
// ledger: fills parciales o intervención manual pueden haberla movido. Se lee
// la posición real del exchange y se manda la orden opuesta por ese tamaño
// exacto. Un follower ya flat es un no-op sin fila.
//
// Un cierre solo se detecta una vez: el diff no lo vuelve a disparar en el
// tick siguiente. Por eso las lecturas previas a la orden (resolve + posición)
// reintentan transitorios con el mismo presupuesto que el snapshot, y si aun
// así fallan se registra una fila failed. La pérdida queda en el ledger, donde
// el operador diagnostica, no enterrada en un warning.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

const (
	closeReadAttempts = 3
	closeReadBackoff  = 500 * time.Millisecond
)

// handleClose replica un cierre del master en el follower. Solo actúa si la
// última copia ejecutada del follower en el símbolo fue una apertura.
func (e *Engine) handleClose(ctx context.Context, f domain.Follower, prev domain.Position, detectedAt time.Time) (*domain.CopyTrade, bool) {
	symbol := prev.Symbol
	masterTradeID := domain.MasterTradeID(symbol, domain.ActionClose, detectedAt)

	// La fila failed parte de la intención: cerrar lo que abrió la copia.
	trade := domain.CopyTrade{
		MasterTradeID: masterTradeID,
		FollowerID:    f.ID,
		Symbol:        symbol,
		Side:          prev.EntrySide().Opposite(),
		MasterSize:    prev.SignedSize,
		MasterPrice:   prev.EntryPrice,
		IsClose:       true,
		EntryTime:     time.Now().UTC(),
	}

	last, err := e.ledger.LastExecuted(ctx, f.ID, symbol)
	if err != nil {
		// Sin elegibilidad no se puede aplanar a ciegas: fila failed y fuera.
		slog.Error("ledger lookup failed", "follower", f.ID, "symbol", symbol, "err", err)
		return e.recordFailure(ctx, f, trade, "ledger read failed: "+err.Error()), false
	}
	if last == nil || last.IsClose {
		// Sin copia abierta registrada: el cierre no nos concierne.
		slog.Debug("close ignored, no recorded open copy", "follower", f.ID, "symbol", symbol)
		return nil, false
	}

	exists, err := e.ledger.Exists(ctx, masterTradeID, f.ID)
	if err != nil {
		// Igual que en los opens: seguir y dejar que RecordPending arbitre.
		slog.Warn("ledger lookup failed, deferring to insert",
			"follower", f.ID, "symbol", symbol, "err", err)
	} else if exists {
		return nil, true
	}

	actual, err := e.readActualPosition(ctx, f, symbol)
	if err != nil {
		return e.recordFailure(ctx, f, trade, "position read failed: "+err.Error()), false
	}
	if actual.IsFlat() {
		slog.Debug("follower already flat", "follower", f.ID, "symbol", symbol)
		return nil, false
	}

	contracts := int(math.Round(math.Abs(actual.SignedSize)))
	if contracts < 1 {
		return nil, false
	}

	trade.Side = actual.EntrySide().Opposite()
	trade.CopiedSize = contracts
	return e.submit(ctx, f, trade)
}

// readActualPosition resuelve el producto y lee la posición real del follower,
// con reintento acotado: transitorios con backoff, firma expirada inmediato,
// el resto corta.
func (e *Engine) readActualPosition(ctx context.Context, f domain.Follower, symbol string) (domain.Position, error) {
	var lastErr error
	for attempt := 1; attempt <= closeReadAttempts; attempt++ {
		productID, err := e.catalog.Resolve(ctx, symbol)
		if err == nil {
			var pos domain.Position
			pos, err = e.gateway.FetchPosition(ctx, f.Credentials, productID)
			if err == nil {
				return pos, nil
			}
		}
		lastErr = err

		switch domain.KindOf(err) {
		case domain.KindExpiredSignature:
			slog.Debug("position read signature expired, resyncing",
				"follower", f.ID, "symbol", symbol, "attempt", attempt)
		case domain.KindTransient:
			if !sleepCtx(ctx, closeReadBackoff*time.Duration(attempt)) {
				return domain.Position{}, ctx.Err()
			}
		default:
			return domain.Position{}, err
		}
	}
	return domain.Position{}, fmt.Errorf("after %d attempts: %w", closeReadAttempts, lastErr)
}
