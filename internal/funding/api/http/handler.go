// Package http exposes the funding ledger as a JSON API. Mutations require a
// bearer token whose subject is the caller's account address; reads are
// public and see published campaigns only, except for owners reading their
// own records.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fundlift/fundlift/internal/funding/domain/campaign"
	"github.com/fundlift/fundlift/internal/funding/ledger"
	"github.com/fundlift/fundlift/internal/funding/storage"
	"github.com/fundlift/fundlift/internal/platform/pagination"
)

// Handler serves the funding ledger routes.
type Handler struct {
	svc *ledger.Service
}

// NewRouter builds the service router with middleware applied.
func NewRouter(svc *ledger.Service, secret []byte, logger zerolog.Logger) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Auth(secret, false))
			r.Get("/", h.listCampaigns)
			r.Get("/{id}", h.getCampaign)
			r.Get("/{id}/balance", h.getBalance)
			r.Get("/{id}/donors", h.listDonors)
			r.Get("/{id}/donors/{donor}", h.getDonorInfo)
			r.Get("/{id}/payouts", h.listPayouts)
		})
		r.Group(func(r chi.Router) {
			r.Use(Auth(secret, true))
			r.Post("/", h.createDraft)
			r.Post("/published", h.createPublished)
			r.Put("/{id}", h.updateDraft)
			r.Post("/{id}/publish", h.publish)
			r.Post("/{id}/cancel", h.cancel)
			r.Post("/{id}/donations", h.donate)
			r.Post("/{id}/withdrawals", h.withdraw)
		})
	})

	return r
}

type campaignRequest struct {
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	Image                   string    `json:"image"`
	Target                  uint64    `json:"target"`
	Deadline                time.Time `json:"deadline"`
	Category                string    `json:"category"`
	AllowFlexibleWithdrawal bool      `json:"allow_flexible_withdrawal"`
}

type campaignResponse struct {
	ID                      uint64    `json:"id"`
	Owner                   string    `json:"owner"`
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	Image                   string    `json:"image"`
	Target                  uint64    `json:"target"`
	Deadline                time.Time `json:"deadline"`
	Category                string    `json:"category"`
	Status                  string    `json:"status"`
	AmountCollected         uint64    `json:"amount_collected"`
	WithdrawnAmount         uint64    `json:"withdrawn_amount"`
	RemainingBalance        uint64    `json:"remaining_balance"`
	DonorCount              int       `json:"donor_count"`
	AllowFlexibleWithdrawal bool      `json:"allow_flexible_withdrawal"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func toCampaignResponse(c campaign.Campaign) campaignResponse {
	return campaignResponse{
		ID:                      c.ID,
		Owner:                   c.Owner,
		Title:                   c.Title,
		Description:             c.Description,
		Image:                   c.Image,
		Target:                  c.Target,
		Deadline:                c.Deadline,
		Category:                c.Category.Label(),
		Status:                  c.Status.Label(),
		AmountCollected:         c.AmountCollected,
		WithdrawnAmount:         c.WithdrawnAmount,
		RemainingBalance:        campaign.RemainingBalance(c),
		DonorCount:              c.DonorCount,
		AllowFlexibleWithdrawal: c.AllowFlexibleWithdrawal,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
}

func (h *Handler) decodeInput(r *http.Request) (campaign.Input, error) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return campaign.Input{}, fmt.Errorf("decode request: %w", err)
	}
	category := campaign.CategoryOther
	if req.Category != "" {
		parsed, ok := campaign.CategoryFromLabel(req.Category)
		if !ok {
			return campaign.Input{}, campaign.ErrInvalidCategory
		}
		category = parsed
	}
	return campaign.Input{
		Owner:                   CallerFromContext(r.Context()),
		Title:                   req.Title,
		Description:             req.Description,
		Image:                   req.Image,
		Target:                  req.Target,
		Deadline:                req.Deadline,
		Category:                category,
		AllowFlexibleWithdrawal: req.AllowFlexibleWithdrawal,
	}, nil
}

func campaignID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid campaign id %q", raw)
	}
	return id, nil
}

func pageFromQuery(r *http.Request) pagination.Page {
	query := r.URL.Query()
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return pagination.Page{Offset: offset, Limit: limit}
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		h.badRequestOrDomain(w, err)
		return
	}
	created, err := h.svc.CreateDraft(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(created))
}

func (h *Handler) createPublished(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		h.badRequestOrDomain(w, err)
		return
	}
	created, err := h.svc.CreatePublished(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCampaignResponse(created))
}

func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	input, err := h.decodeInput(r)
	if err != nil {
		h.badRequestOrDomain(w, err)
		return
	}
	updated, err := h.svc.UpdateDraft(r.Context(), id, CallerFromContext(r.Context()), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Publish)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uint64, caller string) (campaign.Campaign, error)) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	updated, err := op(r.Context(), id, CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

type donationRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Handler) donate(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed donation body")
		return
	}
	updated, err := h.svc.Donate(r.Context(), id, CallerFromContext(r.Context()), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignResponse(updated))
}

type payoutResponse struct {
	CampaignID uint64    `json:"campaign_id"`
	Owner      string    `json:"owner"`
	Amount     uint64    `json:"amount"`
	PaidAt     time.Time `json:"paid_at"`
}

func toPayoutResponse(p storage.Payout) payoutResponse {
	return payoutResponse{CampaignID: p.CampaignID, Owner: p.Owner, Amount: p.Amount, PaidAt: p.PaidAt}
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	payout, err := h.svc.Withdraw(r.Context(), id, CallerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutResponse(payout))
}

// badRequestOrDomain keeps decode failures distinct from domain validation
// errors, which carry their own codes.
func (h *Handler) badRequestOrDomain(w http.ResponseWriter, err error) {
	if errors.Is(err, campaign.ErrInvalidCategory) {
		writeError(w, err)
		return
	}
	writeErrorMessage(w, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed request body")
}
