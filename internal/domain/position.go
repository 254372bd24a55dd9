package domain

import "time"

// Position es una posición abierta normalizada del exchange.
// SignedSize codifica el lado: positivo = long, negativo = short, cero = flat.
type Position struct {
	Symbol     string
	ProductID  int
	SignedSize float64
	EntryPrice float64
}

// IsLong indica si la posición es larga.
func (p Position) IsLong() bool { return p.SignedSize > 0 }

// IsFlat indica si no hay posición.
func (p Position) IsFlat() bool { return p.SignedSize == 0 }

// EntrySide es el lado de la orden que abrió la posición.
func (p Position) EntrySide() Side {
	if p.SignedSize < 0 {
		return SideSell
	}
	return SideBuy
}

// Snapshot es la lista de posiciones abiertas de una cuenta en un instante.
// Efímero: se recalcula en cada tick y nunca se persiste.
type Snapshot struct {
	TakenAt   time.Time
	Positions []Position
}

// BySymbol indexa las posiciones por símbolo.
func (s Snapshot) BySymbol() map[string]Position {
	m := make(map[string]Position, len(s.Positions))
	for _, p := range s.Positions {
		m[p.Symbol] = p
	}
	return m
}
