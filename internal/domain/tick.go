package domain

import "time"

// TickResult resume lo producido por un tick del engine.
type TickResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Baseline  bool // primer snapshot tras arrancar: solo establece la línea base
	Followers int
	Opened    int // símbolos abiertos/redimensionados detectados
	Closed    int // símbolos cerrados detectados
	Skipped   int // copias omitidas (sizing skip o fila ya existente)
	Trades    []CopyTrade
}

// Executed cuenta las copias que terminaron ejecutadas.
func (r TickResult) Executed() int {
	n := 0
	for _, t := range r.Trades {
		if t.Status == CopyStatusExecuted {
			n++
		}
	}
	return n
}

// Failed cuenta las copias que terminaron fallidas.
func (r TickResult) Failed() int {
	n := 0
	for _, t := range r.Trades {
		if t.Status == CopyStatusFailed {
			n++
		}
	}
	return n
}
