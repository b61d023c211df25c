package sqlite

import (
	"context"
	"fmt"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// CommitWithdrawal writes the accounting change, the payout row, and the
// withdrawal event, then invokes transfer before committing. A transfer error
// rolls back everything, so funds are never marked withdrawn without the
// release succeeding.
func (s *Store) CommitWithdrawal(ctx context.Context, c campaign.Campaign, payout storage.Payout, evt event.Event, transfer storage.TransferFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if payout.Amount == 0 {
		return fmt.Errorf("payout amount must be greater than zero")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit withdrawal: %w", err)
	}
	defer tx.Rollback()

	if err := updateCampaignTx(ctx, tx, c); err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO payouts (campaign_id, owner, amount, paid_at)
		 VALUES (?, ?, ?, ?)`,
		payout.CampaignID,
		payout.Owner,
		payout.Amount,
		toMillis(payout.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	if err := appendEvent(ctx, tx, evt, payout.PaidAt); err != nil {
		return err
	}
	if transfer != nil {
		if err := transfer(ctx); err != nil {
			return fmt.Errorf("transfer funds: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit withdrawal: %w", err)
	}
	return nil
}

// ListPayouts returns one page of payout records, newest first.
func (s *Store) ListPayouts(ctx context.Context, campaignID uint64, page pagination.Page) (storage.PayoutPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.PayoutPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PayoutPage{}, fmt.Errorf("storage is not configured")
	}

	var total int
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM payouts WHERE campaign_id = ?`,
		campaignID,
	)
	if err := row.Scan(&total); err != nil {
		return storage.PayoutPage{}, fmt.Errorf("count payouts: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, campaign_id, owner, amount, paid_at
		   FROM payouts
		  WHERE campaign_id = ?
		  ORDER BY id DESC
		  LIMIT ? OFFSET ?`,
		campaignID,
		page.Limit,
		page.Offset,
	)
	if err != nil {
		return storage.PayoutPage{}, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	result := storage.PayoutPage{Total: total, Payouts: make([]storage.Payout, 0, page.Limit)}
	for rows.Next() {
		var payout storage.Payout
		var paidAt int64
		if err := rows.Scan(&payout.ID, &payout.CampaignID, &payout.Owner, &payout.Amount, &paidAt); err != nil {
			return storage.PayoutPage{}, fmt.Errorf("list payouts: %w", err)
		}
		payout.PaidAt = fromMillis(paidAt)
		result.Payouts = append(result.Payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return storage.PayoutPage{}, fmt.Errorf("list payouts: %w", err)
	}
	return result, nil
}
