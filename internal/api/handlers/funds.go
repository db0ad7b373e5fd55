package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/internal/history"
	"github.com/wonny/fundwatch/internal/portfolio"
	"github.com/wonny/fundwatch/pkg/logger"
)

// FundHandler handles portfolio management endpoints
type FundHandler struct {
	repo    *portfolio.Repository
	history *history.Cache
	logger  *logger.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(repo *portfolio.Repository, hist *history.Cache, log *logger.Logger) *FundHandler {
	return &FundHandler{repo: repo, history: hist, logger: log}
}

// FundView is a fund as exposed over the API (the name is a map key on disk)
type FundView struct {
	Name string `json:"name"`
	contracts.Fund
}

// ListFunds returns every fund
// GET /api/funds
func (h *FundHandler) ListFunds(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Load(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load funds")
		respondError(w, http.StatusInternalServerError, "Failed to load funds")
		return
	}

	views := make([]FundView, 0, len(p.Funds))
	for _, f := range p.List() {
		views = append(views, FundView{Name: f.Name, Fund: f})
	}

	w.Header().Set("ETag", quoteETag(p.Token))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"funds": views,
		"token": p.Token,
	})
}

// UpdateFund patches holding_value, base_unit, benchmark or fund_code.
// If-Match carries the token from ListFunds; a stale token answers 409.
// PUT /api/funds/{name}
func (h *FundHandler) UpdateFund(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var patch portfolio.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Empty() {
		respondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	token := strings.Trim(r.Header.Get("If-Match"), `"`)

	p, err := h.repo.Update(r.Context(), name, token, patch)
	if err != nil {
		status := statusFor(err)
		h.logger.WithError(err).WithFields(map[string]interface{}{
			"fund":   name,
			"status": status,
		}).Warn("Fund update rejected")
		respondError(w, status, err.Error())
		return
	}

	f, _ := p.Get(name)
	w.Header().Set("ETag", quoteETag(p.Token))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fund":  FundView{Name: name, Fund: f},
		"token": p.Token,
	})
}

// GetStats returns the realized NAV history summary of one fund
// GET /api/funds/{name}/stats
func (h *FundHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := mux.Vars(r)["name"]

	p, err := h.repo.Load(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load funds")
		return
	}
	if _, ok := p.Get(name); !ok {
		respondError(w, http.StatusNotFound, "Unknown fund")
		return
	}

	navHistory, _, err := h.history.Load(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load NAV history")
		respondError(w, http.StatusInternalServerError, "Failed to load NAV history")
		return
	}

	series := navHistory[name]
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fund":    name,
		"stats":   history.Stats(series),
		"history": series,
	})
}

func quoteETag(token string) string {
	return `"` + token + `"`
}
