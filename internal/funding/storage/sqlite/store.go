// Package sqlite provides the SQLite-backed funding ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/funding/storage/sqlite/migrations"
	sqlitemigrate "github.com/fundlift/fundlift/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists ledger state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const campaignColumns = `id, owner, title, description, image, target, deadline,
       category, status, amount_collected, withdrawn_amount, donor_count,
       allow_flexible_withdrawal, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (campaign.Campaign, error) {
	var c campaign.Campaign
	var deadline, createdAt, updatedAt int64
	var category, status int
	var flexible int
	err := row.Scan(
		&c.ID,
		&c.Owner,
		&c.Title,
		&c.Description,
		&c.Image,
		&c.Target,
		&deadline,
		&category,
		&status,
		&c.AmountCollected,
		&c.WithdrawnAmount,
		&c.DonorCount,
		&flexible,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return campaign.Campaign{}, err
	}
	c.Deadline = fromMillis(deadline)
	c.Category = campaign.Category(category)
	c.Status = campaign.Status(status)
	c.AllowFlexibleWithdrawal = flexible != 0
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// CreateCampaign inserts a campaign row, assigns its sequential ID, and
// appends the creation event in the same transaction.
func (s *Store) CreateCampaign(ctx context.Context, c campaign.Campaign, makeEvent func(id uint64) (event.Event, error)) (campaign.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return campaign.Campaign{}, err
	}
	if s == nil || s.sqlDB == nil {
		return campaign.Campaign{}, fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("begin create campaign: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO campaigns (
		   owner, title, description, image, target, deadline, category,
		   status, amount_collected, withdrawn_amount, donor_count,
		   allow_flexible_withdrawal, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?)`,
		c.Owner,
		c.Title,
		c.Description,
		c.Image,
		c.Target,
		toMillis(c.Deadline),
		int(c.Category),
		int(c.Status),
		boolToInt(c.AllowFlexibleWithdrawal),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create campaign: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("create campaign id: %w", err)
	}
	c.ID = uint64(id)

	evt, err := makeEvent(c.ID)
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("build creation event: %w", err)
	}
	if err := appendEvent(ctx, tx, evt, c.UpdatedAt); err != nil {
		return campaign.Campaign{}, err
	}
	if err := tx.Commit(); err != nil {
		return campaign.Campaign{}, fmt.Errorf("commit create campaign: %w", err)
	}
	return c, nil
}

// GetCampaign returns one campaign by ID.
func (s *Store) GetCampaign(ctx context.Context, id uint64) (campaign.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return campaign.Campaign{}, err
	}
	if s == nil || s.sqlDB == nil {
		return campaign.Campaign{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`,
		id,
	)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.Campaign{}, storage.ErrNotFound
		}
		return campaign.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// UpdateCampaign overwrites a campaign row and appends evt atomically.
func (s *Store) UpdateCampaign(ctx context.Context, c campaign.Campaign, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update campaign: %w", err)
	}
	defer tx.Rollback()

	if err := updateCampaignTx(ctx, tx, c); err != nil {
		return err
	}
	if err := appendEvent(ctx, tx, evt, c.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update campaign: %w", err)
	}
	return nil
}

func updateCampaignTx(ctx context.Context, tx *sql.Tx, c campaign.Campaign) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE campaigns SET
		   title = ?, description = ?, image = ?, target = ?, deadline = ?,
		   category = ?, status = ?, amount_collected = ?, withdrawn_amount = ?,
		   donor_count = ?, allow_flexible_withdrawal = ?, updated_at = ?
		 WHERE id = ?`,
		c.Title,
		c.Description,
		c.Image,
		c.Target,
		toMillis(c.Deadline),
		int(c.Category),
		int(c.Status),
		c.AmountCollected,
		c.WithdrawnAmount,
		c.DonorCount,
		boolToInt(c.AllowFlexibleWithdrawal),
		toMillis(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
