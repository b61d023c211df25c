package event

import (
	"testing"
)

func TestNewAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		typ     Type
		payload any
		check   func(t *testing.T, decoded any)
	}{
		{
			name:    "created",
			typ:     TypeCampaignCreated,
			payload: CampaignCreated{CampaignID: 1, Owner: "owner-1", Title: "x", Target: 100, Deadline: 1234, Category: 2, Status: "DRAFT"},
			check: func(t *testing.T, decoded any) {
				p, ok := decoded.(*CampaignCreated)
				if !ok || p.Owner != "owner-1" || p.Category != 2 {
					t.Fatalf("unexpected decode: %+v", decoded)
				}
			},
		},
		{
			name:    "donated",
			typ:     TypeCampaignDonated,
			payload: CampaignDonated{CampaignID: 3, Donor: "donor-9", Amount: 2500},
			check: func(t *testing.T, decoded any) {
				p, ok := decoded.(*CampaignDonated)
				if !ok || p.Amount != 2500 {
					t.Fatalf("unexpected decode: %+v", decoded)
				}
			},
		},
		{
			name:    "withdrawn",
			typ:     TypeFundsWithdrawn,
			payload: FundsWithdrawn{CampaignID: 3, Owner: "owner-1", Amount: 9000},
			check: func(t *testing.T, decoded any) {
				p, ok := decoded.(*FundsWithdrawn)
				if !ok || p.Amount != 9000 {
					t.Fatalf("unexpected decode: %+v", decoded)
				}
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e, err := New(tc.typ, 3, tc.payload)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			decoded, err := Decode(e)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tc.check(t, decoded)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	t.Parallel()

	if _, err := Decode(Event{Type: "campaign.exploded", Payload: []byte("{}")}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
