package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundlift/fundlift/internal/funding/ledger"
	"github.com/fundlift/fundlift/internal/funding/storage/sqlite"
)

var (
	testTime   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testSecret = []byte("test-secret")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestServer(t *testing.T) (*httptest.Server, *testClock) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "funding.db"))
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: testTime}
	svc := ledger.New(store, ledger.WithClock(clock.Now))
	server := httptest.NewServer(NewRouter(svc, testSecret, zerolog.Nop()))
	t.Cleanup(server.Close)
	return server, clock
}

func bearerToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := IssueToken(testSecret, subject, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, method, url, auth string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decodeBody[errorResponse](t, resp)
	return body.Error.Code
}

func campaignBody() map[string]any {
	return map[string]any{
		"title":    "Community Garden",
		"image":    "https://img.example/garden.png",
		"target":   500_000,
		"deadline": testTime.Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"category": "COMMUNITY",
	}
}

func createPublished(t *testing.T, server *httptest.Server, owner string, body map[string]any) campaignResponse {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns/published", bearerToken(t, owner), body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create published status = %d", resp.StatusCode)
	}
	return decodeBody[campaignResponse](t, resp)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns", "", campaignBody())
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/v1/campaigns", "Bearer garbage", campaignBody())
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestCreateDraftAndVisibility(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns", bearerToken(t, "owner-1"), campaignBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create draft status = %d", resp.StatusCode)
	}
	created := decodeBody[campaignResponse](t, resp)
	if created.Status != "DRAFT" || created.Owner != "owner-1" {
		t.Fatalf("unexpected draft: %+v", created)
	}

	url := fmt.Sprintf("%s/v1/campaigns/%d", server.URL, created.ID)

	// Anonymous readers cannot see drafts.
	anon, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if anon.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for anonymous draft read, got %d", anon.StatusCode)
	}
	if code := errorCode(t, anon); code != "CAMPAIGN_NOT_FOUND" {
		t.Fatalf("expected CAMPAIGN_NOT_FOUND, got %q", code)
	}

	// The owner can.
	owned := doJSON(t, http.MethodGet, url, bearerToken(t, "owner-1"), nil)
	if owned.StatusCode != http.StatusOK {
		t.Fatalf("expected owner to read draft, got %d", owned.StatusCode)
	}
	owned.Body.Close()
}

func TestCreateCampaignValidation(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	tests := []struct {
		name     string
		mutate   func(map[string]any)
		wantCode string
	}{
		{name: "zero target", mutate: func(b map[string]any) { b["target"] = 0 }, wantCode: "CAMPAIGN_INVALID_TARGET"},
		{name: "past deadline", mutate: func(b map[string]any) { b["deadline"] = testTime.Add(-time.Hour).Format(time.RFC3339) }, wantCode: "CAMPAIGN_INVALID_DEADLINE"},
		{name: "unknown category", mutate: func(b map[string]any) { b["category"] = "SPORTS" }, wantCode: "CAMPAIGN_INVALID_CATEGORY"},
		{name: "publish without image", mutate: func(b map[string]any) { delete(b, "image") }, wantCode: "CAMPAIGN_IMAGE_REQUIRED"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			body := campaignBody()
			tc.mutate(body)
			resp := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns/published", bearerToken(t, "owner-1"), body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if code := errorCode(t, resp); code != tc.wantCode {
				t.Fatalf("expected %q, got %q", tc.wantCode, code)
			}
		})
	}
}

func TestPublishFlow(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns", bearerToken(t, "owner-1"), campaignBody())
	created := decodeBody[campaignResponse](t, resp)

	publishURL := fmt.Sprintf("%s/v1/campaigns/%d/publish", server.URL, created.ID)

	// Only the owner may publish.
	forbidden := doJSON(t, http.MethodPost, publishURL, bearerToken(t, "intruder"), nil)
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", forbidden.StatusCode)
	}
	forbidden.Body.Close()

	published := doJSON(t, http.MethodPost, publishURL, bearerToken(t, "owner-1"), nil)
	if published.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d", published.StatusCode)
	}
	got := decodeBody[campaignResponse](t, published)
	if got.Status != "PUBLISHED" {
		t.Fatalf("expected PUBLISHED, got %q", got.Status)
	}

	// Republishing conflicts.
	again := doJSON(t, http.MethodPost, publishURL, bearerToken(t, "owner-1"), nil)
	if again.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on republish, got %d", again.StatusCode)
	}
	if code := errorCode(t, again); code != "CAMPAIGN_NOT_DRAFT" {
		t.Fatalf("expected CAMPAIGN_NOT_DRAFT, got %q", code)
	}
}

func TestDonationFlow(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	live := createPublished(t, server, "owner-1", campaignBody())
	donateURL := fmt.Sprintf("%s/v1/campaigns/%d/donations", server.URL, live.ID)

	zero := doJSON(t, http.MethodPost, donateURL, bearerToken(t, "donor-1"), map[string]any{"amount": 0})
	if zero.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero donation, got %d", zero.StatusCode)
	}
	if code := errorCode(t, zero); code != "DONATION_ZERO" {
		t.Fatalf("expected DONATION_ZERO, got %q", code)
	}

	resp := doJSON(t, http.MethodPost, donateURL, bearerToken(t, "donor-1"), map[string]any{"amount": 2_500})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("donate status = %d", resp.StatusCode)
	}
	after := decodeBody[campaignResponse](t, resp)
	if after.AmountCollected != 2_500 || after.DonorCount != 1 {
		t.Fatalf("unexpected campaign after donation: %+v", after)
	}

	infoURL := fmt.Sprintf("%s/v1/campaigns/%d/donors/donor-1", server.URL, live.ID)
	info := doJSON(t, http.MethodGet, infoURL, "", nil)
	if info.StatusCode != http.StatusOK {
		t.Fatalf("donor info status = %d", info.StatusCode)
	}
	donor := decodeBody[donorResponse](t, info)
	if donor.TotalAmount != 2_500 || donor.DonationCount != 1 {
		t.Fatalf("unexpected donor info: %+v", donor)
	}

	missURL := fmt.Sprintf("%s/v1/campaigns/%d/donors/stranger", server.URL, live.ID)
	miss := doJSON(t, http.MethodGet, missURL, "", nil)
	if miss.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown donor, got %d", miss.StatusCode)
	}
	if code := errorCode(t, miss); code != "NO_DONATIONS_MADE" {
		t.Fatalf("expected NO_DONATIONS_MADE, got %q", code)
	}
}

func TestWithdrawalFlow(t *testing.T) {
	t.Parallel()
	server, clock := newTestServer(t)

	live := createPublished(t, server, "owner-1", campaignBody())
	donateURL := fmt.Sprintf("%s/v1/campaigns/%d/donations", server.URL, live.ID)
	resp := doJSON(t, http.MethodPost, donateURL, bearerToken(t, "donor-1"), map[string]any{"amount": 10_000})
	resp.Body.Close()

	withdrawURL := fmt.Sprintf("%s/v1/campaigns/%d/withdrawals", server.URL, live.ID)

	early := doJSON(t, http.MethodPost, withdrawURL, bearerToken(t, "owner-1"), nil)
	if early.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before deadline, got %d", early.StatusCode)
	}
	if code := errorCode(t, early); code != "CAMPAIGN_STILL_ACTIVE" {
		t.Fatalf("expected CAMPAIGN_STILL_ACTIVE, got %q", code)
	}

	clock.Set(live.Deadline.Add(time.Minute))
	done := doJSON(t, http.MethodPost, withdrawURL, bearerToken(t, "owner-1"), nil)
	if done.StatusCode != http.StatusOK {
		t.Fatalf("withdraw status = %d", done.StatusCode)
	}
	payout := decodeBody[payoutResponse](t, done)
	if payout.Amount != 10_000 || payout.Owner != "owner-1" {
		t.Fatalf("unexpected payout: %+v", payout)
	}

	balanceURL := fmt.Sprintf("%s/v1/campaigns/%d/balance", server.URL, live.ID)
	balance := doJSON(t, http.MethodGet, balanceURL, "", nil)
	got := decodeBody[balanceResponse](t, balance)
	if got.RemainingBalance != 0 {
		t.Fatalf("expected drained balance, got %d", got.RemainingBalance)
	}

	payoutsURL := fmt.Sprintf("%s/v1/campaigns/%d/payouts", server.URL, live.ID)
	payouts := doJSON(t, http.MethodGet, payoutsURL, "", nil)
	list := decodeBody[payoutListResponse](t, payouts)
	if list.Total != 1 || len(list.Payouts) != 1 {
		t.Fatalf("unexpected payout list: %+v", list)
	}
}

func TestListCampaigns(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	createPublished(t, server, "owner-1", campaignBody())
	art := campaignBody()
	art["category"] = "ART"
	createPublished(t, server, "owner-1", art)

	draft := doJSON(t, http.MethodPost, server.URL+"/v1/campaigns", bearerToken(t, "owner-1"), campaignBody())
	draft.Body.Close()

	// The public list holds published campaigns only.
	resp := doJSON(t, http.MethodGet, server.URL+"/v1/campaigns", "", nil)
	list := decodeBody[campaignListResponse](t, resp)
	if list.Total != 2 || len(list.Campaigns) != 2 {
		t.Fatalf("expected 2 published campaigns, got %+v", list)
	}

	// Category filter.
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?category=ART", "", nil)
	list = decodeBody[campaignListResponse](t, resp)
	if list.Total != 1 {
		t.Fatalf("expected 1 art campaign, got %d", list.Total)
	}

	// Owners listing themselves see drafts too.
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?owner=owner-1", bearerToken(t, "owner-1"), nil)
	list = decodeBody[campaignListResponse](t, resp)
	if list.Total != 3 {
		t.Fatalf("expected 3 campaigns for the owner, got %d", list.Total)
	}

	// Strangers browsing an owner see published only.
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?owner=owner-1", bearerToken(t, "someone-else"), nil)
	list = decodeBody[campaignListResponse](t, resp)
	if list.Total != 2 {
		t.Fatalf("expected 2 public campaigns for a stranger, got %d", list.Total)
	}

	// Pagination metadata.
	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?limit=1", "", nil)
	list = decodeBody[campaignListResponse](t, resp)
	if len(list.Campaigns) != 1 || list.Total != 2 || !list.HasMore {
		t.Fatalf("unexpected page: %+v", list)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?filter=bogus", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListActiveAndCompleted(t *testing.T) {
	t.Parallel()
	server, clock := newTestServer(t)

	short := campaignBody()
	short["deadline"] = testTime.Add(time.Hour).Format(time.RFC3339)
	createPublished(t, server, "owner-1", short)
	createPublished(t, server, "owner-1", campaignBody())

	clock.Set(testTime.Add(2 * time.Hour))

	resp := doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?filter=active", "", nil)
	list := decodeBody[campaignListResponse](t, resp)
	if list.Total != 1 {
		t.Fatalf("expected 1 active campaign, got %d", list.Total)
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/v1/campaigns?filter=completed", "", nil)
	list = decodeBody[campaignListResponse](t, resp)
	if list.Total != 1 {
		t.Fatalf("expected 1 completed campaign, got %d", list.Total)
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected generated request ID header")
	}
}
