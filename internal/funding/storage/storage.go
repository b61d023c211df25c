// Package storage defines persistence contracts for funding ledger state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// ErrNotFound indicates a requested ledger record is missing.
var ErrNotFound = errors.New("record not found")

// ListFilter narrows campaign listings. Zero values mean no constraint.
type ListFilter struct {
	Status   *campaign.Status
	Category *campaign.Category
	Owner    string
	// DeadlineAfter keeps campaigns whose deadline is strictly after the
	// given instant (still accepting donations).
	DeadlineAfter *time.Time
	// DeadlineAtOrBefore keeps campaigns whose deadline has passed.
	DeadlineAtOrBefore *time.Time
}

// CampaignPage is one page of campaign records plus the unfiltered total for
// the same filter.
type CampaignPage struct {
	Campaigns []campaign.Campaign
	Total     int
}

// DonorPage is one page of donor records for a campaign.
type DonorPage struct {
	Donors []campaign.DonorRecord
	Total  int
}

// Payout records one completed withdrawal.
type Payout struct {
	ID         uint64
	CampaignID uint64
	Owner      string
	Amount     uint64
	PaidAt     time.Time
}

// PayoutPage is one page of payout records.
type PayoutPage struct {
	Payouts []Payout
	Total   int
}

// TransferFunc releases withdrawn funds to the owner. CommitWithdrawal calls
// it inside the storage transaction; an error aborts the whole withdrawal.
type TransferFunc func(ctx context.Context) error

// CampaignStore persists campaign records. Mutations append their ledger
// event in the same transaction as the state change.
type CampaignStore interface {
	// CreateCampaign inserts a campaign, assigns its sequential ID, and
	// appends the creation event atomically. makeEvent is called with the
	// assigned ID so the payload can carry it.
	CreateCampaign(ctx context.Context, c campaign.Campaign, makeEvent func(id uint64) (event.Event, error)) (campaign.Campaign, error)
	GetCampaign(ctx context.Context, id uint64) (campaign.Campaign, error)
	// UpdateCampaign overwrites a campaign row and appends evt atomically.
	UpdateCampaign(ctx context.Context, c campaign.Campaign, evt event.Event) error
	// RecordDonation overwrites the campaign accounting fields, upserts the
	// donor record, and appends evt in one transaction.
	RecordDonation(ctx context.Context, c campaign.Campaign, donor campaign.DonorRecord, evt event.Event) error
	// CommitWithdrawal overwrites the campaign accounting fields, inserts the
	// payout, appends evt, and invokes transfer before committing. A transfer
	// error rolls the whole withdrawal back.
	CommitWithdrawal(ctx context.Context, c campaign.Campaign, payout Payout, evt event.Event, transfer TransferFunc) error
	ListCampaigns(ctx context.Context, filter ListFilter, page pagination.Page) (CampaignPage, error)
}

// DonorStore reads donor aggregates.
type DonorStore interface {
	GetDonorRecord(ctx context.Context, campaignID uint64, donor string) (campaign.DonorRecord, error)
	ListCampaignDonors(ctx context.Context, campaignID uint64, page pagination.Page) (DonorPage, error)
}

// PayoutStore reads completed withdrawals.
type PayoutStore interface {
	ListPayouts(ctx context.Context, campaignID uint64, page pagination.Page) (PayoutPage, error)
}

// EventStore exposes the transactional outbox to the relay.
type EventStore interface {
	// ListUndispatchedEvents returns pending events in global append order.
	ListUndispatchedEvents(ctx context.Context, limit int) ([]event.Event, error)
	MarkEventsDispatched(ctx context.Context, sequences []uint64) error
}

// Store is the full ledger persistence surface.
type Store interface {
	CampaignStore
	DonorStore
	PayoutStore
	EventStore
}
