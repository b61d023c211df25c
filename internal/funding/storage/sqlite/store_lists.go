package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// ListCampaigns returns one page of campaigns matching the filter, in
// ascending ID order, plus the total match count for the same filter.
func (s *Store) ListCampaigns(ctx context.Context, filter storage.ListFilter, page pagination.Page) (storage.CampaignPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.CampaignPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CampaignPage{}, fmt.Errorf("storage is not configured")
	}

	where, args := buildCampaignFilter(filter)

	var total int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...)
	if err := row.Scan(&total); err != nil {
		return storage.CampaignPage{}, fmt.Errorf("count campaigns: %w", err)
	}

	listArgs := append(append([]any{}, args...), page.Limit, page.Offset)
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+campaignColumns+` FROM campaigns`+where+` ORDER BY id ASC LIMIT ? OFFSET ?`,
		listArgs...,
	)
	if err != nil {
		return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	result := storage.CampaignPage{Total: total}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
		}
		result.Campaigns = append(result.Campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return storage.CampaignPage{}, fmt.Errorf("list campaigns: %w", err)
	}
	return result, nil
}

func buildCampaignFilter(filter storage.ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, int(*filter.Status))
	}
	if filter.Category != nil {
		clauses = append(clauses, "category = ?")
		args = append(args, int(*filter.Category))
	}
	if owner := strings.TrimSpace(filter.Owner); owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, owner)
	}
	if filter.DeadlineAfter != nil {
		clauses = append(clauses, "deadline > ?")
		args = append(args, toMillis(*filter.DeadlineAfter))
	}
	if filter.DeadlineAtOrBefore != nil {
		clauses = append(clauses, "deadline <= ?")
		args = append(args, toMillis(*filter.DeadlineAtOrBefore))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
