package mirror

// engine.go — the polling orchestrator.
//
// One tick: snapshot → diff → {changed symbol × active follower} → sizing →
// execute → ledger. The previous snapshot is a value threaded through the
// loop; on restart the first snapshot only establishes the baseline, so
// positions already open on the master are "known", not "newly opened".

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/alejandrodnm/mirrorbot/internal/ports"
)

const defaultWorkers = 4

// Config holds the engine knobs.
type Config struct {
	Interval      time.Duration // polling interval between ticks
	Workers       int           // bounded concurrency across followers
	OrderAttempts int           // retry budget per order
}

// Engine ties the pipeline together once per tick.
type Engine struct {
	accounts ports.AccountDirectory
	source   ports.PositionSource
	catalog  ports.ProductCatalog
	gateway  ports.OrderGateway
	ledger   ports.TradeLedger
	notifier ports.Notifier
	sizer    *Sizer
	executor *Executor
	cfg      Config

	previous *domain.Snapshot // baseline; nil until the first snapshot
}

// New creates the engine and its sizing/execution internals.
func New(
	accounts ports.AccountDirectory,
	source ports.PositionSource,
	catalog ports.ProductCatalog,
	gateway ports.OrderGateway,
	ledger ports.TradeLedger,
	notifier ports.Notifier,
	cfg Config,
) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Engine{
		accounts: accounts,
		source:   source,
		catalog:  catalog,
		gateway:  gateway,
		ledger:   ledger,
		notifier: notifier,
		sizer:    NewSizer(gateway),
		executor: NewExecutor(catalog, gateway, cfg.OrderAttempts),
		cfg:      cfg,
	}
}

// Run drives the fixed-interval loop until the context is cancelled. A tick
// failure is logged and deferred to the next tick, never escalated.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("mirror engine starting",
		"interval", e.cfg.Interval,
		"workers", e.cfg.Workers,
	)

	e.runTick(ctx)

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("mirror engine stopped")
			return nil
		case <-ticker.C:
			e.runTick(ctx)
		}
	}
}

// runTick ejecuta un tick completo y notifica el resultado.
func (e *Engine) runTick(ctx context.Context) {
	result, err := e.RunOnce(ctx)
	if err != nil {
		slog.Error("tick failed", "err", err)
		return
	}
	if err := e.notifier.Notify(ctx, *result); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// RunOnce executes exactly one tick: Idle → Snapshotting → Diffing →
// Mirroring → Idle. A snapshot failure aborts the whole tick — no partial
// mirroring from an incomplete view of the master.
func (e *Engine) RunOnce(ctx context.Context) (*domain.TickResult, error) {
	start := time.Now()
	result := &domain.TickResult{StartedAt: start}

	master, err := e.accounts.GetMasterBroker(ctx)
	if err != nil {
		return nil, fmt.Errorf("mirror.RunOnce: master broker: %w", err)
	}
	if !master.IsActive {
		slog.Debug("master broker inactive, skipping tick")
		result.Duration = time.Since(start)
		return result, nil
	}

	current, err := e.source.FetchPositions(ctx, master.Credentials)
	if err != nil {
		return nil, fmt.Errorf("mirror.RunOnce: snapshot: %w", err)
	}

	if e.previous == nil {
		e.previous = &current
		result.Baseline = true
		result.Duration = time.Since(start)
		slog.Info("baseline established", "open_positions", len(current.Positions))
		return result, nil
	}

	d := Diff(*e.previous, current)
	result.Opened = len(d.Opened) + len(d.Changed)
	result.Closed = len(d.Closed)

	if d.Empty() {
		e.previous = &current
		result.Duration = time.Since(start)
		return result, nil
	}

	followers, err := e.accounts.ListActiveFollowers(ctx, master.ID)
	if err != nil {
		return nil, fmt.Errorf("mirror.RunOnce: list followers: %w", err)
	}
	result.Followers = len(followers)

	slog.Info("master change detected",
		"opened", len(d.Opened),
		"resized", len(d.Changed),
		"closed", len(d.Closed),
		"followers", len(followers),
	)

	trades, skipped := e.mirrorAll(ctx, followers, d, current.TakenAt)
	result.Trades = trades
	result.Skipped = skipped

	e.previous = &current
	result.Duration = time.Since(start)
	return result, nil
}

// followerOutcome agrupa lo producido por un follower en el tick.
type followerOutcome struct {
	trades  []domain.CopyTrade
	skipped int
}

// mirrorAll replica el diff en todos los followers con un worker pool
// acotado. Cada follower se procesa secuencialmente dentro de su worker —
// eso serializa por (follower, símbolo) y garantiza que un close nunca
// adelanta al open del que depende — mientras los followers avanzan en
// paralelo: sus filas del ledger y sus órdenes son claves independientes.
func (e *Engine) mirrorAll(ctx context.Context, followers []domain.Follower, d SnapshotDiff, detectedAt time.Time) ([]domain.CopyTrade, int) {
	workers := e.cfg.Workers
	if workers > len(followers) {
		workers = len(followers)
	}

	workCh := make(chan domain.Follower, len(followers))
	resultCh := make(chan followerOutcome, len(followers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				resultCh <- e.mirrorFollower(ctx, f, d, detectedAt)
			}
		}()
	}

	for _, f := range followers {
		workCh <- f
	}
	close(workCh)
	wg.Wait()
	close(resultCh)

	var trades []domain.CopyTrade
	skipped := 0
	for out := range resultCh {
		trades = append(trades, out.trades...)
		skipped += out.skipped
	}
	return trades, skipped
}

// mirrorFollower procesa un follower: primero los opens (incluye resizes,
// replicados como re-apertura al nuevo tamaño), después los closes.
func (e *Engine) mirrorFollower(ctx context.Context, f domain.Follower, d SnapshotDiff, detectedAt time.Time) followerOutcome {
	var out followerOutcome

	opens := make([]domain.Position, 0, len(d.Opened)+len(d.Changed))
	opens = append(opens, d.Opened...)
	opens = append(opens, d.Changed...)

	for _, pos := range opens {
		trade, skipped := e.handleOpen(ctx, f, pos, detectedAt)
		if skipped {
			out.skipped++
		}
		if trade != nil {
			out.trades = append(out.trades, *trade)
		}
	}
	for _, pos := range d.Closed {
		trade, skipped := e.handleClose(ctx, f, pos, detectedAt)
		if skipped {
			out.skipped++
		}
		if trade != nil {
			out.trades = append(out.trades, *trade)
		}
	}
	return out
}

// handleOpen replica una apertura del master en el follower. La fila del
// ledger se crea pending antes de tocar el exchange y se finaliza exactamente
// una vez; un skip de sizing no deja fila.
func (e *Engine) handleOpen(ctx context.Context, f domain.Follower, pos domain.Position, detectedAt time.Time) (*domain.CopyTrade, bool) {
	masterTradeID := domain.MasterTradeID(pos.Symbol, domain.ActionOpen, detectedAt)

	exists, err := e.ledger.Exists(ctx, masterTradeID, f.ID)
	if err != nil {
		// Exists es una optimización: ante un fallo de lectura se sigue
		// adelante y la constraint UNIQUE de RecordPending arbitra.
		slog.Warn("ledger lookup failed, deferring to insert",
			"follower", f.ID, "symbol", pos.Symbol, "err", err)
	} else if exists {
		slog.Debug("change already copied", "follower", f.ID, "master_trade_id", masterTradeID)
		return nil, true
	}

	size, err := e.sizer.Compute(ctx, pos, f)
	if err != nil {
		slog.Warn("sizing failed", "follower", f.ID, "symbol", pos.Symbol, "err", err)
		return nil, false
	}
	if size.Skipped {
		slog.Debug("copy skipped by sizing",
			"follower", f.ID, "symbol", pos.Symbol, "reason", size.Reason)
		return nil, true
	}

	trade := domain.CopyTrade{
		MasterTradeID: masterTradeID,
		FollowerID:    f.ID,
		Symbol:        pos.Symbol,
		Side:          pos.EntrySide(),
		MasterSize:    pos.SignedSize,
		MasterPrice:   pos.EntryPrice,
		CopiedSize:    size.Contracts,
		EntryTime:     time.Now().UTC(),
	}
	return e.submit(ctx, f, trade)
}

// submit registra la fila pending, ejecuta la orden y finaliza la fila a su
// estado terminal. Toda copia intentada, exitosa o no, termina en el ledger.
// El segundo retorno indica skip: otro proceso ya registró el par.
func (e *Engine) submit(ctx context.Context, f domain.Follower, trade domain.CopyTrade) (*domain.CopyTrade, bool) {
	id, err := e.ledger.RecordPending(ctx, trade)
	if errors.Is(err, ports.ErrAlreadyCopied) {
		slog.Debug("change already copied by another process",
			"follower", f.ID, "master_trade_id", trade.MasterTradeID)
		return nil, true
	}
	if err != nil {
		slog.Error("record pending failed",
			"follower", f.ID, "symbol", trade.Symbol, "err", err)
		return nil, false
	}
	trade.ID = id
	trade.Status = domain.CopyStatusPending

	placed, err := e.executor.Execute(ctx, f.Credentials, trade.Symbol, trade.Side, trade.CopiedSize)
	if err != nil {
		trade.Status = domain.CopyStatusFailed
		trade.Reason = err.Error()
		if ferr := e.ledger.Finalize(ctx, id, domain.CopyStatusFailed, "", err.Error()); ferr != nil {
			slog.Error("finalize failed", "id", id, "err", ferr)
		}
		slog.Warn("copy failed",
			"follower", f.ID, "symbol", trade.Symbol, "side", trade.Side, "err", err)
		return &trade, false
	}

	trade.Status = domain.CopyStatusExecuted
	trade.FollowerOrderID = placed.OrderID
	if ferr := e.ledger.Finalize(ctx, id, domain.CopyStatusExecuted, placed.OrderID, ""); ferr != nil {
		slog.Error("finalize failed", "id", id, "err", ferr)
	}
	slog.Info("copy executed",
		"follower", f.ID, "symbol", trade.Symbol, "side", trade.Side,
		"size", trade.CopiedSize, "order_id", placed.OrderID)
	return &trade, false
}

// recordFailure deja una fila failed para una copia que no llegó ni a
// intentarse. El diff no vuelve a disparar el mismo cambio, así que la
// pérdida tiene que quedar visible en el ledger, no solo en los logs.
func (e *Engine) recordFailure(ctx context.Context, f domain.Follower, trade domain.CopyTrade, reason string) *domain.CopyTrade {
	trade.Status = domain.CopyStatusFailed
	trade.Reason = reason

	id, err := e.ledger.RecordPending(ctx, trade)
	if errors.Is(err, ports.ErrAlreadyCopied) {
		return nil
	}
	if err != nil {
		slog.Error("record failure row failed",
			"follower", f.ID, "symbol", trade.Symbol, "reason", reason, "err", err)
		return nil
	}
	trade.ID = id
	if ferr := e.ledger.Finalize(ctx, id, domain.CopyStatusFailed, "", reason); ferr != nil {
		slog.Error("finalize failed", "id", id, "err", ferr)
	}
	slog.Warn("copy failed before submit",
		"follower", f.ID, "symbol", trade.Symbol, "reason", reason)
	return &trade
}
