package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/wonny/fundwatch/internal/calibration"
	"github.com/wonny/fundwatch/internal/contracts"
	"github.com/wonny/fundwatch/pkg/logger"
)

// CalibrationHandler exposes the snapshot and the calibration run
type CalibrationHandler struct {
	engine *calibration.Engine
	logs   *calibration.Store
	quotes contracts.QuoteSource
	loc    *time.Location
	logger *logger.Logger
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(engine *calibration.Engine, logs *calibration.Store, quotes contracts.QuoteSource, loc *time.Location, log *logger.Logger) *CalibrationHandler {
	return &CalibrationHandler{engine: engine, logs: logs, quotes: quotes, loc: loc, logger: log}
}

// GetFactors returns the calibration log
// GET /api/factors
func (h *CalibrationHandler) GetFactors(w http.ResponseWriter, r *http.Request) {
	factors, _, err := h.logs.Factors(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load factor log")
		respondError(w, http.StatusInternalServerError, "Failed to load factor log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates":   factors.Dates(),
		"factors": factors,
	})
}

// TakeSnapshot records today's raw estimates
// POST /api/snapshot?date=YYYY-MM-DD
func (h *CalibrationHandler) TakeSnapshot(w http.ResponseWriter, r *http.Request) {
	date, ok := h.date(w, r)
	if !ok {
		return
	}

	raws, err := h.engine.Capture(r.Context(), h.quotes, date)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, calibration.ErrNoQuotes) {
			status = http.StatusServiceUnavailable
		}
		h.logger.WithError(err).Warn("Snapshot failed")
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date": date,
		"raw":  raws,
	})
}

// Calibrate runs the calibration for every fund, or one fund with ?fund=
// POST /api/calibrate?date=YYYY-MM-DD&fund=name
func (h *CalibrationHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(contracts.DateLayout, date); err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	var (
		result *calibration.Result
		err    error
	)
	if fund := r.URL.Query().Get("fund"); fund != "" {
		result, err = h.engine.Calibrate(r.Context(), fund, date)
	} else {
		result, err = h.engine.CalibrateAll(r.Context(), date)
	}
	if err != nil {
		h.logger.WithError(err).Warn("Calibration failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// date reads ?date= or defaults to today in the trading timezone
func (h *CalibrationHandler) date(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return contracts.DateOf(time.Now().In(h.loc)), true
	}
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}
