package ports

import (
	"context"
	"errors"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// ErrAlreadyCopied indica que el par (master_trade_id, follower_id) ya tiene
// fila. Parte del contrato de RecordPending: el engine lo trata como skip,
// nunca como fallo.
var ErrAlreadyCopied = errors.New("copy trade already recorded for this change")

// TradeLedger es el registro durable de cada intento de copia y el único
// árbitro de idempotencia: toda pregunta "¿ya copiamos esto?" pasa por aquí,
// nunca por estado en memoria.
type TradeLedger interface {
	// Exists indica si ya hay fila para el par (masterTradeID, followerID).
	Exists(ctx context.Context, masterTradeID string, followerID int64) (bool, error)

	// RecordPending inserta la fila en estado pending y devuelve su ID local.
	// Devuelve ErrAlreadyCopied si el par ya existe.
	RecordPending(ctx context.Context, trade domain.CopyTrade) (string, error)

	// Finalize es la única mutación tras la creación: pending → executed|failed.
	// Una fila en estado terminal nunca vuelve a pending.
	Finalize(ctx context.Context, id string, status domain.CopyStatus, orderID, reason string) error

	// LastExecuted devuelve la última copia ejecutada del follower en el
	// símbolo, o nil si nunca copió ese símbolo.
	LastExecuted(ctx context.Context, followerID int64, symbol string) (*domain.CopyTrade, error)

	// ListCopyTrades es la superficie de reporting para el dashboard.
	ListCopyTrades(ctx context.Context, filter domain.CopyTradeFilter) ([]domain.CopyTrade, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
