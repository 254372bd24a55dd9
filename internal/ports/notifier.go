package ports

import (
	"context"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// Notifier presenta el resultado de cada tick al operador.
type Notifier interface {
	// Notify imprime el resumen del tick. En la implementación de consola,
	// una línea compacta o la tabla completa de copias.
	Notify(ctx context.Context, result domain.TickResult) error
}
