// Package errors provides structured error handling for the funding ledger.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Campaign validation errors
	CodeCampaignInvalidTarget   Code = "CAMPAIGN_INVALID_TARGET"
	CodeCampaignInvalidDeadline Code = "CAMPAIGN_INVALID_DEADLINE"
	CodeCampaignInvalidCategory Code = "CAMPAIGN_INVALID_CATEGORY"
	CodeCampaignImageRequired   Code = "CAMPAIGN_IMAGE_REQUIRED"

	// Campaign access errors
	CodeCampaignNotFound Code = "CAMPAIGN_NOT_FOUND"
	CodeNotCampaignOwner Code = "NOT_CAMPAIGN_OWNER"

	// Lifecycle gate errors
	CodeCampaignNotDraft     Code = "CAMPAIGN_NOT_DRAFT"
	CodeCampaignNotPublished Code = "CAMPAIGN_NOT_PUBLISHED"
	CodeCampaignEnded        Code = "CAMPAIGN_ENDED"

	// Donation errors
	CodeDonationZero    Code = "DONATION_ZERO"
	CodeNoDonationsMade Code = "NO_DONATIONS_MADE"

	// Withdrawal errors
	CodeCampaignStillActive Code = "CAMPAIGN_STILL_ACTIVE"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeWithdrawalTransfer  Code = "WITHDRAWAL_TRANSFER_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeCampaignInvalidTarget,
		CodeCampaignInvalidDeadline,
		CodeCampaignInvalidCategory,
		CodeCampaignImageRequired,
		CodeDonationZero:
		return http.StatusBadRequest

	// Forbidden - caller is not the campaign owner
	case CodeNotCampaignOwner:
		return http.StatusForbidden

	// Not found - resource doesn't exist
	case CodeCampaignNotFound,
		CodeNoDonationsMade,
		CodeNotFound:
		return http.StatusNotFound

	// Conflict - campaign state doesn't allow the operation
	case CodeCampaignNotDraft,
		CodeCampaignNotPublished,
		CodeCampaignEnded,
		CodeCampaignStillActive,
		CodeInsufficientBalance:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
