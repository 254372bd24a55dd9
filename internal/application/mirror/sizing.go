package mirror

// sizing.go — cálculo del tamaño de la orden espejo por follower.
//
// Regla de redondeo (fijada aquí, no adivinada por modo): todas las
// políticas producen una cantidad cruda, se aplica el clamp min/max del
// follower y se hace floor a contratos enteros. Menos de un contrato = skip.

import (
	"context"
	"fmt"
	"math"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/alejandrodnm/mirrorbot/internal/ports"
)

// Skip reasons registrados en los logs de sizing.
const (
	skipNonPositivePrice = "non_positive_price"
	skipBelowOneContract = "below_one_contract"
	skipUnknownMode      = "unknown_copy_mode"
)

// SizeResult es la decisión de sizing para un (posición, follower).
type SizeResult struct {
	Contracts int
	Skipped   bool
	Reason    string
}

func skip(reason string) SizeResult {
	return SizeResult{Skipped: true, Reason: reason}
}

// Sizer aplica la política de copy de cada follower. Solo toca la red en
// modo percentage, que exige una lectura fresca del balance.
type Sizer struct {
	gateway ports.OrderGateway
}

// NewSizer crea el calculador de tamaños.
func NewSizer(gateway ports.OrderGateway) *Sizer {
	return &Sizer{gateway: gateway}
}

// Compute devuelve los contratos a copiar para la posición del master según
// el copy_mode del follower. El lado NO se decide aquí: viaja por separado
// y la cantidad es siempre no negativa.
func (s *Sizer) Compute(ctx context.Context, pos domain.Position, f domain.Follower) (SizeResult, error) {
	var raw float64

	switch f.CopyMode {
	case domain.ModeMultiplier:
		raw = math.Abs(pos.SignedSize) * f.Multiplier

	case domain.ModeFixedLot:
		raw = f.FixedLot

	case domain.ModeFixedAmount:
		if pos.EntryPrice <= 0 {
			return skip(skipNonPositivePrice), nil
		}
		raw = f.FixedCapital / pos.EntryPrice

	case domain.ModePercentage:
		if pos.EntryPrice <= 0 {
			return skip(skipNonPositivePrice), nil
		}
		balance, err := s.gateway.FetchBalance(ctx, f.Credentials)
		if err != nil {
			return SizeResult{}, fmt.Errorf("mirror.Compute: balance for follower %d: %w", f.ID, err)
		}
		raw = balance * (f.Percentage / 100) / pos.EntryPrice

	default:
		return skip(skipUnknownMode), nil
	}

	raw = clampLot(raw, f.MinLotSize, f.MaxLotSize)

	contracts := int(math.Floor(raw))
	if contracts <= 0 {
		return skip(skipBelowOneContract), nil
	}
	return SizeResult{Contracts: contracts}, nil
}

// clampLot aplica las cotas configuradas; 0 significa sin cota.
func clampLot(qty, min, max float64) float64 {
	if min > 0 && qty < min {
		qty = min
	}
	if max > 0 && qty > max {
		qty = max
	}
	return qty
}
