package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/ledger"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

type campaignListResponse struct {
	Campaigns []campaignResponse `json:"campaigns"`
	Total     int                `json:"total"`
	Offset    int                `json:"offset"`
	Limit     int                `json:"limit"`
	HasMore   bool               `json:"has_more"`
}

// getCampaign returns one campaign. Unpublished campaigns are only visible
// to their owner.
func (h *Handler) getCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	c, err := h.svc.GetCampaign(r.Context(), id, false)
	if err != nil {
		writeError(w, err)
		return
	}
	// Visibility rejections are indistinguishable from genuinely missing
	// campaigns.
	if c.Status != campaign.StatusPublished && c.Owner != CallerFromContext(r.Context()) {
		writeError(w, ledger.ErrCampaignNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(c))
}

// listCampaigns returns a filtered page of campaigns. Anonymous callers and
// callers browsing other owners see published campaigns only; an owner
// listing their own campaigns sees every state. The filter parameter selects
// the published read model: active campaigns still accept donations,
// completed ones have passed their deadline.
func (h *Handler) listCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	caller := CallerFromContext(r.Context())
	owner := query.Get("owner")
	page := pageFromQuery(r)

	switch strings.ToLower(query.Get("filter")) {
	case "", "published":
	case "active":
		result, err := h.svc.ListActive(r.Context(), page)
		if err != nil {
			writeError(w, err)
			return
		}
		writeCampaignPage(w, result, page)
		return
	case "completed":
		result, err := h.svc.ListCompleted(r.Context(), page)
		if err != nil {
			writeError(w, err)
			return
		}
		writeCampaignPage(w, result, page)
		return
	default:
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", "unknown filter")
		return
	}

	filter := storage.ListFilter{Owner: owner}
	if raw := query.Get("category"); raw != "" {
		category, ok := campaign.CategoryFromLabel(raw)
		if !ok {
			writeError(w, campaign.ErrInvalidCategory)
			return
		}
		filter.Category = &category
	}

	published := campaign.StatusPublished
	ownRecords := owner != "" && owner == caller
	if !ownRecords {
		filter.Status = &published
	} else if raw := query.Get("status"); raw != "" {
		status, ok := campaign.StatusFromLabel(raw)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", "unknown status")
			return
		}
		filter.Status = &status
	}

	result, err := h.svc.ListCampaigns(r.Context(), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCampaignPage(w, result, page)
}

func writeCampaignPage(w http.ResponseWriter, result storage.CampaignPage, page pagination.Page) {
	campaigns := make([]campaignResponse, 0, len(result.Campaigns))
	for _, c := range result.Campaigns {
		campaigns = append(campaigns, toCampaignResponse(c))
	}
	writeJSON(w, http.StatusOK, campaignListResponse{
		Campaigns: campaigns,
		Total:     result.Total,
		Offset:    page.Offset,
		Limit:     page.Limit,
		HasMore:   pagination.HasMore(page, len(result.Campaigns), result.Total),
	})
}

type balanceResponse struct {
	CampaignID       uint64 `json:"campaign_id"`
	RemainingBalance uint64 `json:"remaining_balance"`
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	balance, err := h.svc.RemainingBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{CampaignID: id, RemainingBalance: balance})
}

type donorResponse struct {
	CampaignID    uint64    `json:"campaign_id"`
	Donor         string    `json:"donor"`
	TotalAmount   uint64    `json:"total_amount"`
	DonationCount int       `json:"donation_count"`
	LastDonatedAt time.Time `json:"last_donated_at"`
}

func toDonorResponse(record campaign.DonorRecord) donorResponse {
	return donorResponse{
		CampaignID:    record.CampaignID,
		Donor:         record.Donor,
		TotalAmount:   record.TotalAmount,
		DonationCount: record.DonationCount,
		LastDonatedAt: record.LastDonatedAt,
	}
}

type donorListResponse struct {
	Donors  []donorResponse `json:"donors"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
	HasMore bool            `json:"has_more"`
}

func (h *Handler) listDonors(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	page := pageFromQuery(r)
	result, err := h.svc.ListCampaignDonors(r.Context(), id, page)
	if err != nil {
		writeError(w, err)
		return
	}
	donors := make([]donorResponse, 0, len(result.Donors))
	for _, record := range result.Donors {
		donors = append(donors, toDonorResponse(record))
	}
	writeJSON(w, http.StatusOK, donorListResponse{
		Donors:  donors,
		Total:   result.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: pagination.HasMore(page, len(result.Donors), result.Total),
	})
}

func (h *Handler) getDonorInfo(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	record, err := h.svc.GetDonorInfo(r.Context(), id, chi.URLParam(r, "donor"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorResponse(record))
}

type payoutListResponse struct {
	Payouts []payoutResponse `json:"payouts"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"has_more"`
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	page := pageFromQuery(r)
	result, err := h.svc.ListPayouts(r.Context(), id, page)
	if err != nil {
		writeError(w, err)
		return
	}
	payouts := make([]payoutResponse, 0, len(result.Payouts))
	for _, payout := range result.Payouts {
		payouts = append(payouts, toPayoutResponse(payout))
	}
	writeJSON(w, http.StatusOK, payoutListResponse{
		Payouts: payouts,
		Total:   result.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: pagination.HasMore(page, len(result.Payouts), result.Total),
	})
}
