package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/adapters/notify"
	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickResult(trades ...domain.CopyTrade) domain.TickResult {
	return domain.TickResult{
		StartedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Duration:  1200 * time.Millisecond,
		Followers: 2,
		Opened:    1,
		Trades:    trades,
	}
}

func TestNotify_Baseline(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.Notify(context.Background(), domain.TickResult{
		StartedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Baseline:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "baseline established")
}

func TestNotify_QuietTickPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.Notify(context.Background(), domain.TickResult{
		StartedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestNotify_CompactLine(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.Notify(context.Background(), tickResult(
		domain.CopyTrade{
			FollowerID: 1, Symbol: "BTCUSD", Side: domain.SideBuy,
			CopiedSize: 1, Status: domain.CopyStatusExecuted, FollowerOrderID: "42",
		},
		domain.CopyTrade{
			FollowerID: 2, Symbol: "BTCUSD", Side: domain.SideBuy,
			CopiedSize: 3, Status: domain.CopyStatusFailed, Reason: "insufficient margin",
		},
	))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[09:30:00]")
	assert.Contains(t, out, "2 followers")
	assert.Contains(t, out, "1 ok, 1 failed, 0 skipped")
	// Sin -table el detalle no se imprime.
	assert.NotContains(t, out, "BTCUSD")
}

func TestNotify_TableMode(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	err := c.Notify(context.Background(), tickResult(
		domain.CopyTrade{
			FollowerID: 1, Symbol: "ETHUSD", Side: domain.SideSell,
			CopiedSize: 5, IsClose: true, Status: domain.CopyStatusExecuted,
			FollowerOrderID: "77",
		},
	))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ETHUSD")
	assert.Contains(t, out, "close")
	assert.Contains(t, out, "77")
}
