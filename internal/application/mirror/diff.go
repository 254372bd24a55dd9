package mirror

// diff.go — detección de cambios entre dos snapshots consecutivos.
//
// Función pura, sin I/O, determinista: el corazón testeable del engine.
// El estado "previous" es un valor que el orquestador enhebra tick a tick,
// nunca una variable de módulo.

import "github.com/alejandrodnm/mirrorbot/internal/domain"

// SnapshotDiff clasifica los símbolos entre dos snapshots.
type SnapshotDiff struct {
	Opened  []domain.Position // en current, ausentes en previous
	Closed  []domain.Position // en previous, ausentes en current (posición previa)
	Changed []domain.Position // en ambos con distinto signed size (posición actual)
}

// Empty indica que no hay nada que replicar.
func (d SnapshotDiff) Empty() bool {
	return len(d.Opened) == 0 && len(d.Closed) == 0 && len(d.Changed) == 0
}

// Diff compara dos snapshots por símbolo. Un resize del master entra en
// Changed y el engine lo replica como re-apertura al nuevo tamaño — nunca
// se descarta en silencio.
func Diff(previous, current domain.Snapshot) SnapshotDiff {
	prev := previous.BySymbol()
	cur := current.BySymbol()

	var d SnapshotDiff
	for _, p := range current.Positions {
		old, ok := prev[p.Symbol]
		switch {
		case !ok:
			d.Opened = append(d.Opened, p)
		case old.SignedSize != p.SignedSize:
			d.Changed = append(d.Changed, p)
		}
	}
	for _, p := range previous.Positions {
		if _, ok := cur[p.Symbol]; !ok {
			d.Closed = append(d.Closed, p)
		}
	}
	return d
}
