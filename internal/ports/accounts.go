package ports

import (
	"context"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// AccountDirectory expone las cuentas que administra el producto de
// onboarding. El engine solo lee; las escrituras viven en ese colaborador.
type AccountDirectory interface {
	// GetMasterBroker devuelve la cuenta master configurada.
	GetMasterBroker(ctx context.Context) (domain.BrokerAccount, error)

	// ListActiveFollowers devuelve los followers activos del master.
	ListActiveFollowers(ctx context.Context, masterID int64) ([]domain.Follower, error)
}
