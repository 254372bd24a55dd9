package storage

// accounts.go — directorio de cuentas sobre las tablas del producto de
// onboarding. El engine solo lee; los upserts existen para ese colaborador
// (y para seeds en tests).

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/mirrorbot/internal/domain"
)

// ErrNoMasterBroker indica que no hay cuenta master activa configurada.
var ErrNoMasterBroker = errors.New("storage: no active master broker configured")

// GetMasterBroker devuelve la cuenta master activa.
func (s *SQLiteStore) GetMasterBroker(ctx context.Context) (domain.BrokerAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key, api_secret, base_url, is_active
		FROM master_brokers
		WHERE is_active = 1
		ORDER BY id
		LIMIT 1`,
	)

	var b domain.BrokerAccount
	var active int
	err := row.Scan(&b.ID, &b.Name, &b.APIKey, &b.APISecret, &b.BaseURL, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BrokerAccount{}, ErrNoMasterBroker
	}
	if err != nil {
		return domain.BrokerAccount{}, fmt.Errorf("storage.GetMasterBroker: %w", err)
	}
	b.IsActive = active == 1
	return b, nil
}

// ListActiveFollowers devuelve los followers activos del master dado.
func (s *SQLiteStore) ListActiveFollowers(ctx context.Context, masterID int64) ([]domain.Follower, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, api_key, api_secret, copy_mode, multiplier,
		       fixed_lot, fixed_capital, percentage, min_lot, max_lot
		FROM followers
		WHERE master_id = ? AND account_status = 'active'
		ORDER BY id`,
		masterID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.ListActiveFollowers: %w", err)
	}
	defer rows.Close()

	var followers []domain.Follower
	for rows.Next() {
		var f domain.Follower
		var mode string
		if err := rows.Scan(
			&f.ID, &f.Name, &f.APIKey, &f.APISecret, &mode, &f.Multiplier,
			&f.FixedLot, &f.FixedCapital, &f.Percentage, &f.MinLotSize, &f.MaxLotSize,
		); err != nil {
			return nil, fmt.Errorf("storage.ListActiveFollowers: scan: %w", err)
		}
		f.CopyMode = domain.CopyMode(mode)
		f.Status = domain.StatusActive
		followers = append(followers, f)
	}
	return followers, rows.Err()
}

// UpsertBroker inserta o actualiza la cuenta master. Escrito por el producto
// de onboarding, no por el engine.
func (s *SQLiteStore) UpsertBroker(ctx context.Context, b domain.BrokerAccount) (int64, error) {
	active := 0
	if b.IsActive {
		active = 1
	}
	if b.ID != 0 {
		_, err := s.db.ExecContext(ctx, `
			UPDATE master_brokers
			SET name = ?, api_key = ?, api_secret = ?, base_url = ?, is_active = ?
			WHERE id = ?`,
			b.Name, b.APIKey, b.APISecret, b.BaseURL, active, b.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("storage.UpsertBroker: %w", err)
		}
		return b.ID, nil
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO master_brokers (name, api_key, api_secret, base_url, is_active)
		VALUES (?, ?, ?, ?, ?)`,
		b.Name, b.APIKey, b.APISecret, b.BaseURL, active,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.UpsertBroker: %w", err)
	}
	return res.LastInsertId()
}

// UpsertFollower inserta o actualiza un follower del master dado.
func (s *SQLiteStore) UpsertFollower(ctx context.Context, masterID int64, f domain.Follower) (int64, error) {
	status := string(f.Status)
	if status == "" {
		status = string(domain.StatusActive)
	}
	if f.ID != 0 {
		_, err := s.db.ExecContext(ctx, `
			UPDATE followers
			SET master_id = ?, name = ?, api_key = ?, api_secret = ?, copy_mode = ?,
			    multiplier = ?, fixed_lot = ?, fixed_capital = ?, percentage = ?,
			    min_lot = ?, max_lot = ?, account_status = ?
			WHERE id = ?`,
			masterID, f.Name, f.APIKey, f.APISecret, string(f.CopyMode),
			f.Multiplier, f.FixedLot, f.FixedCapital, f.Percentage,
			f.MinLotSize, f.MaxLotSize, status, f.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("storage.UpsertFollower: %w", err)
		}
		return f.ID, nil
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO followers
			(master_id, name, api_key, api_secret, copy_mode, multiplier,
			 fixed_lot, fixed_capital, percentage, min_lot, max_lot, account_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		masterID, f.Name, f.APIKey, f.APISecret, string(f.CopyMode),
		f.Multiplier, f.FixedLot, f.FixedCapital, f.Percentage,
		f.MinLotSize, f.MaxLotSize, status,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.UpsertFollower: %w", err)
	}
	return res.LastInsertId()
}
