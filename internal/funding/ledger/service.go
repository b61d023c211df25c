// Package ledger implements the funding ledger application service: campaign
// lifecycle, donation accounting, and withdrawal settlement on top of the
// storage layer.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/storage"
	apperrors "github.com/fundlift/fundlift/internal/platform/errors"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// ErrCampaignNotFound indicates a campaign ID with no visible record.
var ErrCampaignNotFound = apperrors.New(apperrors.CodeCampaignNotFound, "campaign not found")

// Transfer releases withdrawn funds to a campaign owner. Implementations are
// invoked inside the withdrawal transaction; returning an error aborts the
// withdrawal entirely.
type Transfer interface {
	Transfer(ctx context.Context, campaignID uint64, owner string, amount uint64) error
}

// NoopTransfer accepts every transfer. Used when payouts are settled outside
// the ledger.
type NoopTransfer struct{}

// Transfer implements Transfer.
func (NoopTransfer) Transfer(ctx context.Context, campaignID uint64, owner string, amount uint64) error {
	return nil
}

// Service coordinates ledger operations. Mutations are serialized by a mutex
// so read-modify-write cycles never interleave.
type Service struct {
	store    storage.Store
	transfer Transfer
	now      func() time.Time
	pages    pagination.Config
	logger   zerolog.Logger
	tracer   trace.Tracer

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTransfer sets the funds release mechanism.
func WithTransfer(transfer Transfer) Option {
	return func(s *Service) {
		if transfer != nil {
			s.transfer = transfer
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPageConfig overrides list pagination bounds.
func WithPageConfig(cfg pagination.Config) Option {
	return func(s *Service) {
		if cfg.Default > 0 {
			s.pages = cfg
		}
	}
}

// New creates a ledger service backed by store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		transfer: NoopTransfer{},
		now:      time.Now,
		pages:    pagination.Config{Default: 20, Max: 100},
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer("funding.ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, campaignID uint64) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if campaignID != 0 {
		span.SetAttributes(attribute.Int64("campaign.id", int64(campaignID)))
	}
	return ctx, span
}

// CreateDraft records a new draft campaign and returns it with its assigned ID.
func (s *Service) CreateDraft(ctx context.Context, input campaign.Input) (campaign.Campaign, error) {
	return s.create(ctx, "ledger.CreateDraft", input, campaign.NewDraft)
}

// CreatePublished records a campaign that is live immediately.
func (s *Service) CreatePublished(ctx context.Context, input campaign.Input) (campaign.Campaign, error) {
	return s.create(ctx, "ledger.CreatePublished", input, campaign.NewPublished)
}

func (s *Service) create(ctx context.Context, span string, input campaign.Input, build func(campaign.Input, func() time.Time) (campaign.Campaign, error)) (campaign.Campaign, error) {
	ctx, sp := s.startSpan(ctx, span, 0)
	defer sp.End()

	c, err := build(input, s.now)
	if err != nil {
		return campaign.Campaign{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.CreateCampaign(ctx, c, func(id uint64) (event.Event, error) {
		return event.New(event.TypeCampaignCreated, id, event.CampaignCreated{
			CampaignID: id,
			Owner:      c.Owner,
			Title:      c.Title,
			Target:     c.Target,
			Deadline:   c.Deadline.UnixMilli(),
			Category:   int(c.Category),
			Status:     c.Status.Label(),
		})
	})
	if err != nil {
		return campaign.Campaign{}, err
	}

	s.logger.Info().
		Uint64("campaign_id", created.ID).
		Str("owner", created.Owner).
		Str("status", created.Status.Label()).
		Msg("campaign created")
	return created, nil
}

// UpdateDraft replaces the mutable fields of a draft campaign.
func (s *Service) UpdateDraft(ctx context.Context, id uint64, caller string, input campaign.Input) (campaign.Campaign, error) {
	ctx, sp := s.startSpan(ctx, "ledger.UpdateDraft", id)
	defer sp.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getStored(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}
	updated, err := campaign.UpdateDraft(current, caller, input, s.now)
	if err != nil {
		return campaign.Campaign{}, err
	}
	evt, err := event.New(event.TypeCampaignUpdated, id, event.CampaignUpdated{CampaignID: id})
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.store.UpdateCampaign(ctx, updated, evt); err != nil {
		return campaign.Campaign{}, s.mapStorageErr(err)
	}

	s.logger.Info().Uint64("campaign_id", id).Msg("campaign updated")
	return updated, nil
}

// Publish moves a draft campaign to the published state.
func (s *Service) Publish(ctx context.Context, id uint64, caller string) (campaign.Campaign, error) {
	ctx, sp := s.startSpan(ctx, "ledger.Publish", id)
	defer sp.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getStored(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}
	updated, err := campaign.Publish(current, caller, s.now)
	if err != nil {
		return campaign.Campaign{}, err
	}
	evt, err := event.New(event.TypeCampaignPublished, id, event.CampaignPublished{CampaignID: id, Owner: updated.Owner})
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.store.UpdateCampaign(ctx, updated, evt); err != nil {
		return campaign.Campaign{}, s.mapStorageErr(err)
	}

	s.logger.Info().Uint64("campaign_id", id).Str("owner", updated.Owner).Msg("campaign published")
	return updated, nil
}

// Cancel moves a draft campaign to the cancelled state.
func (s *Service) Cancel(ctx context.Context, id uint64, caller string) (campaign.Campaign, error) {
	ctx, sp := s.startSpan(ctx, "ledger.Cancel", id)
	defer sp.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getStored(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}
	updated, err := campaign.Cancel(current, caller, s.now)
	if err != nil {
		return campaign.Campaign{}, err
	}
	evt, err := event.New(event.TypeCampaignCancelled, id, event.CampaignCancelled{CampaignID: id, Owner: updated.Owner})
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.store.UpdateCampaign(ctx, updated, evt); err != nil {
		return campaign.Campaign{}, s.mapStorageErr(err)
	}

	s.logger.Info().Uint64("campaign_id", id).Str("owner", updated.Owner).Msg("campaign cancelled")
	return updated, nil
}

// Donate credits a donation against a published campaign and returns the
// campaign after the credit.
func (s *Service) Donate(ctx context.Context, id uint64, donor string, amount uint64) (campaign.Campaign, error) {
	ctx, sp := s.startSpan(ctx, "ledger.Donate", id)
	defer sp.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getStored(ctx, id)
	if err != nil {
		return campaign.Campaign{}, err
	}

	record, err := s.store.GetDonorRecord(ctx, id, donor)
	newDonor := false
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return campaign.Campaign{}, err
		}
		newDonor = true
		record = campaign.DonorRecord{CampaignID: id, Donor: donor}
	}

	updated, err := campaign.AcceptDonation(current, amount, newDonor, s.now)
	if err != nil {
		return campaign.Campaign{}, err
	}
	donatedAt := s.now().UTC()
	updated.UpdatedAt = donatedAt
	record = record.ApplyDonation(amount, donatedAt)

	evt, err := event.New(event.TypeCampaignDonated, id, event.CampaignDonated{CampaignID: id, Donor: donor, Amount: amount})
	if err != nil {
		return campaign.Campaign{}, err
	}
	if err := s.store.RecordDonation(ctx, updated, record, evt); err != nil {
		return campaign.Campaign{}, s.mapStorageErr(err)
	}

	s.logger.Info().
		Uint64("campaign_id", id).
		Str("donor", donor).
		Uint64("amount", amount).
		Msg("donation recorded")
	return updated, nil
}

// Withdraw drains the remaining balance of a campaign to its owner. The
// accounting update, the payout record, the ledger event, and the transfer
// itself commit or roll back together.
func (s *Service) Withdraw(ctx context.Context, id uint64, caller string) (storage.Payout, error) {
	ctx, sp := s.startSpan(ctx, "ledger.Withdraw", id)
	defer sp.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getStored(ctx, id)
	if err != nil {
		return storage.Payout{}, err
	}
	settled, released, err := campaign.SettleWithdrawal(current, caller, s.now)
	if err != nil {
		return storage.Payout{}, err
	}
	paidAt := s.now().UTC()
	settled.UpdatedAt = paidAt

	payout := storage.Payout{
		CampaignID: id,
		Owner:      settled.Owner,
		Amount:     released,
		PaidAt:     paidAt,
	}
	evt, err := event.New(event.TypeFundsWithdrawn, id, event.FundsWithdrawn{CampaignID: id, Owner: settled.Owner, Amount: released})
	if err != nil {
		return storage.Payout{}, err
	}

	err = s.store.CommitWithdrawal(ctx, settled, payout, evt, func(ctx context.Context) error {
		return s.transfer.Transfer(ctx, id, settled.Owner, released)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Payout{}, ErrCampaignNotFound
		}
		return storage.Payout{}, apperrors.Wrap(apperrors.CodeWithdrawalTransfer, "withdrawal failed", err)
	}

	s.logger.Info().
		Uint64("campaign_id", id).
		Str("owner", settled.Owner).
		Uint64("amount", released).
		Msg("funds withdrawn")
	return payout, nil
}

func (s *Service) getStored(ctx context.Context, id uint64) (campaign.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return campaign.Campaign{}, s.mapStorageErr(err)
	}
	return c, nil
}

func (s *Service) mapStorageErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrCampaignNotFound
	}
	return err
}
