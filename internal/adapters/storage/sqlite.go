package storage

// sqlite.go — ledger durable de copias.
//
// Estrategia:
//   - `copy_trades`: una fila por intento de copia, UNIQUE(master_trade_id,
//     follower_id). Esa unicidad ES la garantía exactly-once: el engine
//     consulta Exists antes de insertar y la constraint cubre la carrera.
//   - Finalize solo muta filas pending — un estado terminal nunca vuelve
//     atrás, ni siquiera ante un doble finalize por bug del caller.
//   - El engine nunca borra filas: el ledger es la superficie de reporting
//     y de diagnóstico (status + reason), no un buffer.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
	"github.com/alejandrodnm/mirrorbot/internal/ports"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por intento de copia; el par (master_trade_id, follower_id) es único
CREATE TABLE IF NOT EXISTS copy_trades (
    id                TEXT PRIMARY KEY,
    master_trade_id   TEXT    NOT NULL,
    follower_id       INTEGER NOT NULL,
    symbol            TEXT    NOT NULL,
    side              TEXT    NOT NULL,
    master_size       REAL    NOT NULL,
    master_price      REAL    NOT NULL,
    copied_size       INTEGER NOT NULL,
    is_close          INTEGER NOT NULL DEFAULT 0,
    status            TEXT    NOT NULL DEFAULT 'pending',
    follower_order_id TEXT    NOT NULL DEFAULT '',
    reason            TEXT    NOT NULL DEFAULT '',
    entry_time        DATETIME NOT NULL,
    finalized_at      DATETIME,
    UNIQUE(master_trade_id, follower_id)
);

-- Cuentas del producto de onboarding (escritas por ese colaborador)
CREATE TABLE IF NOT EXISTS master_brokers (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    api_key    TEXT NOT NULL,
    api_secret TEXT NOT NULL,
    base_url   TEXT NOT NULL DEFAULT '',
    is_active  INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS followers (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    master_id      INTEGER NOT NULL,
    name           TEXT NOT NULL,
    api_key        TEXT NOT NULL,
    api_secret     TEXT NOT NULL,
    copy_mode      TEXT NOT NULL,
    multiplier     REAL NOT NULL DEFAULT 0,
    fixed_lot      REAL NOT NULL DEFAULT 0,
    fixed_capital  REAL NOT NULL DEFAULT 0,
    percentage     REAL NOT NULL DEFAULT 0,
    min_lot        REAL NOT NULL DEFAULT 0,
    max_lot        REAL NOT NULL DEFAULT 0,
    account_status TEXT NOT NULL DEFAULT 'active'
);

CREATE INDEX IF NOT EXISTS idx_copy_follower ON copy_trades(follower_id, symbol, entry_time DESC);
CREATE INDEX IF NOT EXISTS idx_copy_status   ON copy_trades(status);
CREATE INDEX IF NOT EXISTS idx_followers_m   ON followers(master_id, account_status);
`

// SQLiteStore implementa ports.TradeLedger y ports.AccountDirectory usando
// SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Exists indica si ya hay fila para el par (masterTradeID, followerID).
func (s *SQLiteStore) Exists(ctx context.Context, masterTradeID string, followerID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM copy_trades WHERE master_trade_id = ? AND follower_id = ?`,
		masterTradeID, followerID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage.Exists: %w", err)
	}
	return true, nil
}

// RecordPending inserta la fila en estado pending y devuelve su ID local.
func (s *SQLiteStore) RecordPending(ctx context.Context, t domain.CopyTrade) (string, error) {
	id := uuid.New().String()
	isClose := 0
	if t.IsClose {
		isClose = 1
	}
	entry := t.EntryTime
	if entry.IsZero() {
		entry = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO copy_trades
			(id, master_trade_id, follower_id, symbol, side, master_size,
			 master_price, copied_size, is_close, status, entry_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)`,
		id, t.MasterTradeID, t.FollowerID, t.Symbol, string(t.Side),
		t.MasterSize, t.MasterPrice, t.CopiedSize, isClose, entry,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", ports.ErrAlreadyCopied
		}
		return "", fmt.Errorf("storage.RecordPending: %w", err)
	}
	return id, nil
}

// Finalize pasa la fila de pending a su estado terminal. El WHERE sobre
// status garantiza que una fila terminal nunca retrocede.
func (s *SQLiteStore) Finalize(ctx context.Context, id string, status domain.CopyStatus, orderID, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE copy_trades
		SET status = ?, follower_order_id = ?, reason = ?, finalized_at = ?
		WHERE id = ? AND status = 'pending'`,
		string(status), orderID, reason, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("storage.Finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage.Finalize: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage.Finalize: no pending row with id %s", id)
	}
	return nil
}

// LastExecuted devuelve la última copia ejecutada del follower en el símbolo.
// nil sin error si el follower nunca copió ese símbolo.
func (s *SQLiteStore) LastExecuted(ctx context.Context, followerID int64, symbol string) (*domain.CopyTrade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, master_trade_id, follower_id, symbol, side, master_size,
		       master_price, copied_size, is_close, status, follower_order_id,
		       reason, entry_time, finalized_at
		FROM copy_trades
		WHERE follower_id = ? AND symbol = ? AND status = 'executed'
		ORDER BY entry_time DESC, finalized_at DESC
		LIMIT 1`,
		followerID, symbol,
	)
	t, err := scanCopyTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LastExecuted: %w", err)
	}
	return t, nil
}

// ListCopyTrades devuelve las filas del ledger que pasan el filtro, las más
// recientes primero. Es la única superficie de lectura del dashboard.
func (s *SQLiteStore) ListCopyTrades(ctx context.Context, f domain.CopyTradeFilter) ([]domain.CopyTrade, error) {
	query := `
		SELECT id, master_trade_id, follower_id, symbol, side, master_size,
		       master_price, copied_size, is_close, status, follower_order_id,
		       reason, entry_time, finalized_at
		FROM copy_trades WHERE 1=1`
	var args []any

	if f.FollowerID != 0 {
		query += ` AND follower_id = ?`
		args = append(args, f.FollowerID)
	}
	if f.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, f.Symbol)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		query += ` AND entry_time >= ?`
		args = append(args, f.Since.UTC())
	}
	query += ` ORDER BY entry_time DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListCopyTrades: %w", err)
	}
	defer rows.Close()

	var trades []domain.CopyTrade
	for rows.Next() {
		t, err := scanCopyTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListCopyTrades: scan: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCopyTrade(r rowScanner) (*domain.CopyTrade, error) {
	var t domain.CopyTrade
	var side, status string
	var isClose int
	var finalized sql.NullTime

	if err := r.Scan(
		&t.ID, &t.MasterTradeID, &t.FollowerID, &t.Symbol, &side,
		&t.MasterSize, &t.MasterPrice, &t.CopiedSize, &isClose, &status,
		&t.FollowerOrderID, &t.Reason, &t.EntryTime, &finalized,
	); err != nil {
		return nil, err
	}
	t.Side = domain.Side(side)
	t.Status = domain.CopyStatus(status)
	t.IsClose = isClose == 1
	if finalized.Valid {
		ft := finalized.Time
		t.FinalizedAt = &ft
	}
	return &t, nil
}
