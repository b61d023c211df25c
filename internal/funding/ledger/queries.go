package ledger

import (
	"context"
	"errors"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// GetCampaign returns one campaign by ID. With publishedOnly set, drafts and
// cancelled campaigns are reported as missing so unpublished work stays
// invisible to the public read model.
func (s *Service) GetCampaign(ctx context.Context, id uint64, publishedOnly bool) (campaign.Campaign, error) {
	c, err := s.getStored(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}
	if publishedOnly && c.Status != campaign.StatusPublished {
		return campaign.Campaign{}, ErrCampaignNotFound
	}
	return c, nil
}

// RemainingBalance returns the amount the owner can still withdraw.
func (s *Service) RemainingBalance(ctx context.Context, id uint64) (uint64, error) {
	c, err := s.getStored(ctx, id)
	if err != nil {
		return 0, err
	}
	return campaign.RemainingBalance(c), nil
}

// GetDonorInfo returns one donor's aggregate for a campaign.
func (s *Service) GetDonorInfo(ctx context.Context, id uint64, donor string) (campaign.DonorRecord, error) {
	if _, err := s.getStored(ctx, id); err != nil {
		return campaign.DonorRecord{}, err
	}
	record, err := s.store.GetDonorRecord(ctx, id, donor)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return campaign.DonorRecord{}, campaign.ErrNoDonations
		}
		return campaign.DonorRecord{}, err
	}
	return record, nil
}

// ListCampaigns returns one page of campaigns matching the filter.
func (s *Service) ListCampaigns(ctx context.Context, filter storage.ListFilter, page pagination.Page) (storage.CampaignPage, error) {
	return s.store.ListCampaigns(ctx, filter, pagination.Clamp(page, s.pages))
}

// ListPublished returns one page of published campaigns, optionally narrowed
// by category.
func (s *Service) ListPublished(ctx context.Context, category *campaign.Category, page pagination.Page) (storage.CampaignPage, error) {
	published := campaign.StatusPublished
	return s.ListCampaigns(ctx, storage.ListFilter{Status: &published, Category: category}, page)
}

// ListActive returns one page of published campaigns still accepting
// donations.
func (s *Service) ListActive(ctx context.Context, page pagination.Page) (storage.CampaignPage, error) {
	published := campaign.StatusPublished
	now := s.now().UTC()
	return s.ListCampaigns(ctx, storage.ListFilter{Status: &published, DeadlineAfter: &now}, page)
}

// ListCompleted returns one page of published campaigns whose deadline has
// passed.
func (s *Service) ListCompleted(ctx context.Context, page pagination.Page) (storage.CampaignPage, error) {
	published := campaign.StatusPublished
	now := s.now().UTC()
	return s.ListCampaigns(ctx, storage.ListFilter{Status: &published, DeadlineAtOrBefore: &now}, page)
}

// ListByOwner returns one page of an owner's campaigns across all states.
func (s *Service) ListByOwner(ctx context.Context, owner string, page pagination.Page) (storage.CampaignPage, error) {
	return s.ListCampaigns(ctx, storage.ListFilter{Owner: owner}, page)
}

// ListCampaignDonors returns one page of donor aggregates for a campaign.
func (s *Service) ListCampaignDonors(ctx context.Context, id uint64, page pagination.Page) (storage.DonorPage, error) {
	if _, err := s.getStored(ctx, id); err != nil {
		return storage.DonorPage{}, err
	}
	return s.store.ListCampaignDonors(ctx, id, pagination.Clamp(page, s.pages))
}

// ListPayouts returns one page of completed withdrawals for a campaign.
func (s *Service) ListPayouts(ctx context.Context, id uint64, page pagination.Page) (storage.PayoutPage, error) {
	if _, err := s.getStored(ctx, id); err != nil {
		return storage.PayoutPage{}, err
	}
	return s.store.ListPayouts(ctx, id, pagination.Clamp(page, s.pages))
}
