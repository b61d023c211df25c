package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// RecordDonation overwrites the campaign accounting fields, upserts the donor
// aggregate, and appends the donation event in one transaction.
func (s *Store) RecordDonation(ctx context.Context, c campaign.Campaign, donor campaign.DonorRecord, evt event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(donor.Donor) == "" {
		return fmt.Errorf("donor is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record donation: %w", err)
	}
	defer tx.Rollback()

	if err := updateCampaignTx(ctx, tx, c); err != nil {
		return err
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO campaign_donors (campaign_id, donor, total_amount, donation_count, last_donated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (campaign_id, donor) DO UPDATE SET
		   total_amount = excluded.total_amount,
		   donation_count = excluded.donation_count,
		   last_donated_at = excluded.last_donated_at`,
		donor.CampaignID,
		donor.Donor,
		donor.TotalAmount,
		donor.DonationCount,
		toMillis(donor.LastDonatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert donor record: %w", err)
	}
	if err := appendEvent(ctx, tx, evt, donor.LastDonatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record donation: %w", err)
	}
	return nil
}

// GetDonorRecord returns one donor aggregate for a campaign.
func (s *Store) GetDonorRecord(ctx context.Context, campaignID uint64, donor string) (campaign.DonorRecord, error) {
	if err := ctx.Err(); err != nil {
		return campaign.DonorRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return campaign.DonorRecord{}, fmt.Errorf("storage is not configured")
	}
	donor = strings.TrimSpace(donor)
	if donor == "" {
		return campaign.DonorRecord{}, fmt.Errorf("donor is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT campaign_id, donor, total_amount, donation_count, last_donated_at
		   FROM campaign_donors
		  WHERE campaign_id = ? AND donor = ?`,
		campaignID,
		donor,
	)
	record, err := scanDonorRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return campaign.DonorRecord{}, storage.ErrNotFound
		}
		return campaign.DonorRecord{}, fmt.Errorf("get donor record: %w", err)
	}
	return record, nil
}

// ListCampaignDonors returns one page of donor aggregates for a campaign,
// largest contributions first.
func (s *Store) ListCampaignDonors(ctx context.Context, campaignID uint64, page pagination.Page) (storage.DonorPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.DonorPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DonorPage{}, fmt.Errorf("storage is not configured")
	}

	var total int
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM campaign_donors WHERE campaign_id = ?`,
		campaignID,
	)
	if err := row.Scan(&total); err != nil {
		return storage.DonorPage{}, fmt.Errorf("count campaign donors: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT campaign_id, donor, total_amount, donation_count, last_donated_at
		   FROM campaign_donors
		  WHERE campaign_id = ?
		  ORDER BY total_amount DESC, donor ASC
		  LIMIT ? OFFSET ?`,
		campaignID,
		page.Limit,
		page.Offset,
	)
	if err != nil {
		return storage.DonorPage{}, fmt.Errorf("list campaign donors: %w", err)
	}
	defer rows.Close()

	result := storage.DonorPage{Total: total, Donors: make([]campaign.DonorRecord, 0, page.Limit)}
	for rows.Next() {
		record, err := scanDonorRecord(rows)
		if err != nil {
			return storage.DonorPage{}, fmt.Errorf("list campaign donors: %w", err)
		}
		result.Donors = append(result.Donors, record)
	}
	if err := rows.Err(); err != nil {
		return storage.DonorPage{}, fmt.Errorf("list campaign donors: %w", err)
	}
	return result, nil
}

func scanDonorRecord(row rowScanner) (campaign.DonorRecord, error) {
	var record campaign.DonorRecord
	var lastDonatedAt int64
	if err := row.Scan(
		&record.CampaignID,
		&record.Donor,
		&record.TotalAmount,
		&record.DonationCount,
		&lastDonatedAt,
	); err != nil {
		return campaign.DonorRecord{}, err
	}
	record.LastDonatedAt = fromMillis(lastDonatedAt)
	return record, nil
}
