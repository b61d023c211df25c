package campaign

import (
	"time"

	apperrors "github.com/fundlift/fundlift/internal/platform/errors"
)

// ErrNoDonations indicates a donor-info read for a donor with no record.
var ErrNoDonations = apperrors.New(apperrors.CodeNoDonationsMade, "donor has no donations for this campaign")

// DonorRecord aggregates one donor's history against one campaign. Records
// are created on first donation, updated in place afterwards, and never
// deleted.
type DonorRecord struct {
	CampaignID    uint64
	Donor         string
	TotalAmount   uint64
	DonationCount int
	LastDonatedAt time.Time
}

// ApplyDonation folds one donation into the record. A zero-value record with
// the key fields set is the starting point for a donor's first donation.
func (r DonorRecord) ApplyDonation(amount uint64, at time.Time) DonorRecord {
	r.TotalAmount += amount
	r.DonationCount++
	r.LastDonatedAt = at.UTC()
	return r
}
