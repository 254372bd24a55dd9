package notify

// console.go — reporte del tick por consola.
//
// Modo compacto (default): una línea por tick, pensada para dejar el proceso
// corriendo en una terminal. Modo tabla: el detalle de cada copia del tick.
// El diagnóstico serio NO vive aquí sino en el ledger (status + reason).

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resumen del tick en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.TickResult) error {
	now := r.StartedAt.Format("15:04:05")

	if r.Baseline {
		fmt.Fprintf(c.out, "[%s] baseline established, mirroring starts next tick\n", now)
		return nil
	}

	if len(r.Trades) == 0 && r.Skipped == 0 {
		if r.Opened+r.Closed > 0 {
			fmt.Fprintf(c.out, "[%s] changes detected but nothing to copy (opened:%d closed:%d)\n",
				now, r.Opened, r.Closed)
		}
		// Tick sin cambios: silencio, no ruido.
		return nil
	}

	fmt.Fprintf(c.out, "[%s] %d followers | opened:%d closed:%d | copies: %d ok, %d failed, %d skipped (%.1fs)\n",
		now, r.Followers, r.Opened, r.Closed,
		r.Executed(), r.Failed(), r.Skipped, r.Duration.Seconds())

	if c.table && len(r.Trades) > 0 {
		c.printTable(r.Trades)
	}
	return nil
}

// printTable imprime el detalle de las copias del tick.
func (c *Console) printTable(trades []domain.CopyTrade) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Follower", "Symbol", "Side", "Size", "Type", "Status", "Order / Reason")

	for _, t := range trades {
		kind := "open"
		if t.IsClose {
			kind = "close"
		}
		detail := t.FollowerOrderID
		if t.Status == domain.CopyStatusFailed {
			detail = truncate(t.Reason, 48)
		}
		table.Append(
			strconv.FormatInt(t.FollowerID, 10),
			t.Symbol,
			string(t.Side),
			strconv.Itoa(t.CopiedSize),
			kind,
			string(t.Status),
			detail,
		)
	}
	table.Render()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
