// Package event defines the append-only ledger events recorded alongside
// every campaign mutation. Events are persisted in the same transaction as
// the state change and relayed to subscribers by the outbox.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of ledger event.
type Type string

const (
	TypeCampaignCreated   Type = "campaign.created"
	TypeCampaignUpdated   Type = "campaign.updated"
	TypeCampaignPublished Type = "campaign.published"
	TypeCampaignCancelled Type = "campaign.cancelled"
	TypeCampaignDonated   Type = "campaign.donated"
	TypeFundsWithdrawn    Type = "funds.withdrawn"
)

// Event is one recorded ledger event. Sequence is the global append order
// assigned by the store.
type Event struct {
	Sequence   uint64
	Type       Type
	CampaignID uint64
	Payload    json.RawMessage
	RecordedAt time.Time
	Dispatched bool
}

// CampaignCreated is emitted when a campaign record is first written,
// whether as a draft or directly published.
type CampaignCreated struct {
	CampaignID uint64 `json:"campaign_id"`
	Owner      string `json:"owner"`
	Title      string `json:"title"`
	Target     uint64 `json:"target"`
	Deadline   int64  `json:"deadline_ms"`
	Category   int    `json:"category"`
	Status     string `json:"status"`
}

// CampaignUpdated is emitted when a draft's fields change.
type CampaignUpdated struct {
	CampaignID uint64 `json:"campaign_id"`
}

// CampaignPublished is emitted on the draft-to-published transition.
type CampaignPublished struct {
	CampaignID uint64 `json:"campaign_id"`
	Owner      string `json:"owner"`
}

// CampaignCancelled is emitted on the draft-to-cancelled transition.
type CampaignCancelled struct {
	CampaignID uint64 `json:"campaign_id"`
	Owner      string `json:"owner"`
}

// CampaignDonated is emitted for every accepted donation.
type CampaignDonated struct {
	CampaignID uint64 `json:"campaign_id"`
	Donor      string `json:"donor"`
	Amount     uint64 `json:"amount"`
}

// FundsWithdrawn is emitted when the owner drains the remaining balance.
type FundsWithdrawn struct {
	CampaignID uint64 `json:"campaign_id"`
	Owner      string `json:"owner"`
	Amount     uint64 `json:"amount"`
}

// New builds an Event from a typed payload. The store assigns Sequence and
// RecordedAt on append.
func New(eventType Type, campaignID uint64, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:       eventType,
		CampaignID: campaignID,
		Payload:    raw,
	}, nil
}

// Decode unmarshals the event payload into the typed struct for its type.
// Unknown types return an error so relay consumers fail loudly.
func Decode(e Event) (any, error) {
	var payload any
	switch e.Type {
	case TypeCampaignCreated:
		payload = &CampaignCreated{}
	case TypeCampaignUpdated:
		payload = &CampaignUpdated{}
	case TypeCampaignPublished:
		payload = &CampaignPublished{}
	case TypeCampaignCancelled:
		payload = &CampaignCancelled{}
	case TypeCampaignDonated:
		payload = &CampaignDonated{}
	case TypeFundsWithdrawn:
		payload = &FundsWithdrawn{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}
