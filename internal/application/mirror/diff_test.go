package mirror_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/application/mirror"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(positions ...domain.Position) domain.Snapshot {
	return domain.Snapshot{TakenAt: time.Unix(1700000000, 0), Positions: positions}
}

func pos(symbol string, size, price float64) domain.Position {
	return domain.Position{Symbol: symbol, SignedSize: size, EntryPrice: price}
}

func TestDiff_OpenedAndClosed(t *testing.T) {
	prev := snap(pos("BTCUSD", 2, 50000), pos("ETHUSD", -5, 3000))
	cur := snap(pos("BTCUSD", 2, 50000), pos("SOLUSD", 10, 150))

	d := mirror.Diff(prev, cur)

	require.Len(t, d.Opened, 1)
	assert.Equal(t, "SOLUSD", d.Opened[0].Symbol)

	require.Len(t, d.Closed, 1)
	assert.Equal(t, "ETHUSD", d.Closed[0].Symbol)
	// Closed lleva la posición previa: el closer necesita saber qué había.
	assert.InDelta(t, -5.0, d.Closed[0].SignedSize, 0.001)

	assert.Empty(t, d.Changed)
}

func TestDiff_IdenticalSnapshotsAreEmpty(t *testing.T) {
	s := snap(pos("BTCUSD", 2, 50000), pos("ETHUSD", -5, 3000))

	d := mirror.Diff(s, s)
	assert.True(t, d.Empty())
	assert.Empty(t, d.Opened)
	assert.Empty(t, d.Closed)
	assert.Empty(t, d.Changed)
}

func TestDiff_BothEmpty(t *testing.T) {
	d := mirror.Diff(snap(), snap())
	assert.True(t, d.Empty())
}

func TestDiff_ResizeGoesToChanged(t *testing.T) {
	prev := snap(pos("BTCUSD", 2, 50000))
	cur := snap(pos("BTCUSD", 5, 51000))

	d := mirror.Diff(prev, cur)
	assert.Empty(t, d.Opened)
	assert.Empty(t, d.Closed)
	require.Len(t, d.Changed, 1)
	// Changed lleva la posición actual: se replica al nuevo tamaño.
	assert.InDelta(t, 5.0, d.Changed[0].SignedSize, 0.001)
}

func TestDiff_SideFlipIsAChange(t *testing.T) {
	prev := snap(pos("BTCUSD", 2, 50000))
	cur := snap(pos("BTCUSD", -2, 50500))

	d := mirror.Diff(prev, cur)
	require.Len(t, d.Changed, 1)
	assert.InDelta(t, -2.0, d.Changed[0].SignedSize, 0.001)
}

func TestDiff_EverythingClosed(t *testing.T) {
	prev := snap(pos("BTCUSD", 2, 50000), pos("ETHUSD", -5, 3000))

	d := mirror.Diff(prev, snap())
	assert.Empty(t, d.Opened)
	assert.Len(t, d.Closed, 2)
}
