package outbox

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/ledger"
	"github.com/fundlift/fundlift/internal/funding/storage/sqlite"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDrainOncePublishesInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "funding.db"))
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := ledger.New(store, ledger.WithClock(func() time.Time { return testTime }))
	live, err := svc.CreatePublished(ctx, campaign.Input{
		Owner:    "owner-1",
		Title:    "Community Garden",
		Image:    "https://img.example/garden.png",
		Target:   500_000,
		Deadline: testTime.Add(30 * 24 * time.Hour),
		Category: campaign.CategoryCommunity,
	})
	if err != nil {
		t.Fatalf("CreatePublished() error = %v", err)
	}
	if _, err := svc.Donate(ctx, live.ID, "donor-1", 1_000); err != nil {
		t.Fatalf("Donate() error = %v", err)
	}

	bus := evbus.New()
	var mu sync.Mutex
	var received []string
	var donated *event.CampaignDonated
	if err := bus.Subscribe(string(event.TypeCampaignCreated), func(p *event.CampaignCreated) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, "created")
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := bus.Subscribe(string(event.TypeCampaignDonated), func(p *event.CampaignDonated) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, "donated")
		donated = p
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	relay := New(store, bus, WithBatchSize(10))
	delivered, err := relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("DrainOnce() error = %v", err)
	}
	if delivered != 2 {
		t.Fatalf("expected 2 events delivered, got %d", delivered)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 || received[0] != "created" || received[1] != "donated" {
		t.Fatalf("expected append-order delivery, got %v", received)
	}
	if donated == nil || donated.Amount != 1_000 || donated.Donor != "donor-1" {
		t.Fatalf("unexpected donated payload: %+v", donated)
	}

	// A second drain finds nothing pending.
	delivered, err = relay.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("DrainOnce() error = %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected nothing pending on second drain, got %d", delivered)
	}
}
