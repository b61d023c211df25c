// Package campaign holds the pure domain model of the funding ledger:
// campaign records, their lifecycle state machine, and the money-safety
// rules for donations and withdrawals. All functions are side-effect-free;
// persistence and event emission live in the ledger and storage layers.
package campaign

import (
	"strings"
	"time"

	apperrors "github.com/fundlift/fundlift/internal/platform/errors"
)

var (
	// ErrInvalidTarget indicates a zero funding target.
	ErrInvalidTarget = apperrors.New(apperrors.CodeCampaignInvalidTarget, "campaign target must be greater than zero")
	// ErrInvalidDeadline indicates a deadline that is not in the future.
	ErrInvalidDeadline = apperrors.New(apperrors.CodeCampaignInvalidDeadline, "campaign deadline must be in the future")
	// ErrInvalidCategory indicates a category outside the closed enum range.
	ErrInvalidCategory = apperrors.New(apperrors.CodeCampaignInvalidCategory, "campaign category is out of range")
	// ErrImageRequired indicates a publish attempt without a campaign image.
	ErrImageRequired = apperrors.New(apperrors.CodeCampaignImageRequired, "campaign image is required to publish")
	// ErrNotOwner indicates a caller that does not own the campaign.
	ErrNotOwner = apperrors.New(apperrors.CodeNotCampaignOwner, "caller is not the campaign owner")
	// ErrNotDraft indicates a mutation attempted on a non-draft campaign.
	ErrNotDraft = apperrors.New(apperrors.CodeCampaignNotDraft, "campaign is not in draft status")
	// ErrNotPublished indicates a donation to a non-published campaign.
	ErrNotPublished = apperrors.New(apperrors.CodeCampaignNotPublished, "campaign is not published")
	// ErrEnded indicates a donation after the campaign deadline.
	ErrEnded = apperrors.New(apperrors.CodeCampaignEnded, "campaign deadline has passed")
	// ErrZeroDonation indicates a donation of zero.
	ErrZeroDonation = apperrors.New(apperrors.CodeDonationZero, "donation amount must be greater than zero")
	// ErrStillActive indicates a withdrawal before the eligibility policy allows it.
	ErrStillActive = apperrors.New(apperrors.CodeCampaignStillActive, "campaign is still active and does not allow flexible withdrawal")
	// ErrInsufficientBalance indicates a withdrawal with nothing left to release.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeInsufficientBalance, "campaign has no remaining balance to withdraw")
)

// Campaign is the central ledger entity. Amounts are in base units; the
// ledger never observes withdrawn > collected.
type Campaign struct {
	ID          uint64
	Owner       string
	Title       string
	Description string
	Image       string
	Target      uint64
	Deadline    time.Time
	Category    Category
	Status      Status

	AmountCollected uint64
	WithdrawnAmount uint64
	// DonorCount counts distinct donor identities, not donations.
	DonorCount int

	// AllowFlexibleWithdrawal permits owner withdrawal before the deadline.
	AllowFlexibleWithdrawal bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input describes the owner-supplied fields of a campaign.
type Input struct {
	Owner                   string
	Title                   string
	Description             string
	Image                   string
	Target                  uint64
	Deadline                time.Time
	Category                Category
	AllowFlexibleWithdrawal bool
}

// ValidateInput checks a candidate campaign payload. The image is only
// required on the publishing path; drafts may omit it.
func ValidateInput(input Input, requireImage bool, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	if input.Target == 0 {
		return ErrInvalidTarget
	}
	if !input.Deadline.After(now()) {
		return ErrInvalidDeadline
	}
	if !input.Category.IsValid() {
		return ErrInvalidCategory
	}
	if requireImage && strings.TrimSpace(input.Image) == "" {
		return ErrImageRequired
	}
	return nil
}

// NewDraft creates a draft campaign from validated input. The store assigns
// the sequential ID on insert.
func NewDraft(input Input, now func() time.Time) (Campaign, error) {
	return newCampaign(input, StatusDraft, false, now)
}

// NewPublished creates a campaign that is live immediately. The image is
// required, as on the publish transition.
func NewPublished(input Input, now func() time.Time) (Campaign, error) {
	return newCampaign(input, StatusPublished, true, now)
}

func newCampaign(input Input, status Status, requireImage bool, now func() time.Time) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if err := ValidateInput(input, requireImage, now); err != nil {
		return Campaign{}, err
	}
	createdAt := now().UTC()
	return Campaign{
		Owner:                   input.Owner,
		Title:                   strings.TrimSpace(input.Title),
		Description:             input.Description,
		Image:                   strings.TrimSpace(input.Image),
		Target:                  input.Target,
		Deadline:                input.Deadline.UTC(),
		Category:                input.Category,
		Status:                  status,
		AllowFlexibleWithdrawal: input.AllowFlexibleWithdrawal,
		CreatedAt:               createdAt,
		UpdatedAt:               createdAt,
	}, nil
}

// UpdateDraft overwrites the mutable fields of a draft campaign. ID, owner,
// and fund-accounting fields are immutable.
func UpdateDraft(current Campaign, caller string, input Input, now func() time.Time) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if caller != current.Owner {
		return Campaign{}, ErrNotOwner
	}
	if current.Status != StatusDraft {
		return Campaign{}, ErrNotDraft
	}
	if err := ValidateInput(input, false, now); err != nil {
		return Campaign{}, err
	}

	updated := current
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.Image = strings.TrimSpace(input.Image)
	updated.Target = input.Target
	updated.Deadline = input.Deadline.UTC()
	updated.Category = input.Category
	updated.AllowFlexibleWithdrawal = input.AllowFlexibleWithdrawal
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Publish transitions a draft campaign to Published. The campaign must carry
// an image before going live.
func Publish(current Campaign, caller string, now func() time.Time) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if caller != current.Owner {
		return Campaign{}, ErrNotOwner
	}
	if !isStatusTransitionAllowed(current.Status, StatusPublished) {
		return Campaign{}, ErrNotDraft
	}
	if strings.TrimSpace(current.Image) == "" {
		return Campaign{}, ErrImageRequired
	}

	updated := current
	updated.Status = StatusPublished
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Cancel transitions a draft campaign to Cancelled.
func Cancel(current Campaign, caller string, now func() time.Time) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if caller != current.Owner {
		return Campaign{}, ErrNotOwner
	}
	if !isStatusTransitionAllowed(current.Status, StatusCancelled) {
		return Campaign{}, ErrNotDraft
	}

	updated := current
	updated.Status = StatusCancelled
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// AcceptDonation credits a donation against a published campaign. newDonor
// reports whether this donor has no prior record for the campaign, so the
// distinct-donor count only moves on first contact. Donations may exceed the
// target; there is no cap.
func AcceptDonation(current Campaign, amount uint64, newDonor bool, now func() time.Time) (Campaign, error) {
	if now == nil {
		now = time.Now
	}
	if current.Status != StatusPublished {
		return Campaign{}, ErrNotPublished
	}
	if !now().Before(current.Deadline) {
		return Campaign{}, ErrEnded
	}
	if amount == 0 {
		return Campaign{}, ErrZeroDonation
	}

	updated := current
	updated.AmountCollected += amount
	if newDonor {
		updated.DonorCount++
	}
	return updated, nil
}

// SettleWithdrawal consumes the full remaining balance of a campaign.
// Eligibility: the flexible-withdrawal flag is set, or the deadline has
// passed. The returned amount is what must be released to the owner.
func SettleWithdrawal(current Campaign, caller string, now func() time.Time) (Campaign, uint64, error) {
	if now == nil {
		now = time.Now
	}
	if caller != current.Owner {
		return Campaign{}, 0, ErrNotOwner
	}
	remaining := RemainingBalance(current)
	if remaining == 0 {
		return Campaign{}, 0, ErrInsufficientBalance
	}
	if !current.AllowFlexibleWithdrawal && now().Before(current.Deadline) {
		return Campaign{}, 0, ErrStillActive
	}

	updated := current
	updated.WithdrawnAmount += remaining
	return updated, remaining, nil
}

// RemainingBalance is the amount the owner is still entitled to withdraw.
func RemainingBalance(c Campaign) uint64 {
	return c.AmountCollected - c.WithdrawnAmount
}

// IsActive reports whether a published campaign is still accepting donations.
func IsActive(c Campaign, now time.Time) bool {
	return c.Status == StatusPublished && now.Before(c.Deadline)
}
