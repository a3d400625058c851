// Package handlers provides HTTP handlers for bond pricing and the stored
// bond book.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/bondpricer/internal/modules/bonds"
)

const dateLayout = "2006-01-02"

// Reference defaults, matching the upstream pricer's parameter defaults.
const (
	defaultFrequency = 2
	defaultNominal   = 100.0
)

// Handler handles bond HTTP requests.
type Handler struct {
	service       *bonds.Service
	bondRepo      *bonds.BondRepository
	valuationRepo *bonds.ValuationRepository
	log           zerolog.Logger
}

// NewHandler creates a new bonds handler.
func NewHandler(
	service *bonds.Service,
	bondRepo *bonds.BondRepository,
	valuationRepo *bonds.ValuationRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:       service,
		bondRepo:      bondRepo,
		valuationRepo: valuationRepo,
		log:           log.With().Str("handler", "bonds").Logger(),
	}
}

type priceRequest struct {
	Settlement   string  `json:"settlement"`
	Maturity     string  `json:"maturity"`
	CouponRate   float64 `json:"coupon_rate"`
	DiscountRate float64 `json:"discount_rate"`
	Frequency    int     `json:"frequency"`
	Nominal      float64 `json:"nominal"`
}

type yieldRequest struct {
	Price      float64 `json:"price"`
	Settlement string  `json:"settlement"`
	Maturity   string  `json:"maturity"`
	CouponRate float64 `json:"coupon_rate"`
	Frequency  int     `json:"frequency"`
	Nominal    float64 `json:"nominal"`
}

type createBondRequest struct {
	Name         string  `json:"name"`
	CouponRate   float64 `json:"coupon_rate"`
	Frequency    int     `json:"frequency"`
	Nominal      float64 `json:"nominal"`
	Maturity     string  `json:"maturity"`
	DiscountRate float64 `json:"discount_rate"`
}

// HandlePrice handles POST /api/bonds/price - ad-hoc clean/dirty/accrued
// valuation at a given discount rate.
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	settlement, maturity, ok := h.parseDates(w, req.Settlement, req.Maturity)
	if !ok {
		return
	}

	result, err := h.service.Price(bonds.PriceInput{
		Settlement:   settlement,
		Maturity:     maturity,
		CouponRate:   req.CouponRate,
		DiscountRate: req.DiscountRate,
		Frequency:    withDefaultFrequency(req.Frequency),
		Nominal:      withDefaultNominal(req.Nominal),
	})
	if err != nil {
		h.writeBondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleYield handles POST /api/bonds/yield - yield to maturity implied by
// an observed clean price.
func (h *Handler) HandleYield(w http.ResponseWriter, r *http.Request) {
	var req yieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	settlement, maturity, ok := h.parseDates(w, req.Settlement, req.Maturity)
	if !ok {
		return
	}

	ytm, err := h.service.Yield(bonds.YieldInput{
		Price:      req.Price,
		Settlement: settlement,
		Maturity:   maturity,
		CouponRate: req.CouponRate,
		Frequency:  withDefaultFrequency(req.Frequency),
		Nominal:    withDefaultNominal(req.Nominal),
	})
	if err != nil {
		h.writeBondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]float64{
		"yield_to_maturity": ytm,
	})
}

// HandleCreateBond handles POST /api/bonds.
func (h *Handler) HandleCreateBond(w http.ResponseWriter, r *http.Request) {
	var req createBondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	maturity, err := time.Parse(dateLayout, req.Maturity)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid maturity date: "+err.Error())
		return
	}

	bond := &bonds.Bond{
		Name:         req.Name,
		CouponRate:   req.CouponRate,
		Frequency:    withDefaultFrequency(req.Frequency),
		Nominal:      withDefaultNominal(req.Nominal),
		MaturityDate: maturity,
		DiscountRate: req.DiscountRate,
	}

	// Dry-run valuation against today's date so unpriceable definitions
	// (bad frequency, drifting maturity day, matured bond) are rejected at
	// creation instead of failing every revaluation cycle.
	if _, err := bonds.Value(time.Now().UTC(), bond.MaturityDate, bond.CouponRate, bond.DiscountRate, bond.Frequency, bond.Nominal); err != nil {
		h.writeBondError(w, err)
		return
	}

	created, err := h.bondRepo.Create(bond)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, bondResponse(created))
}

// HandleListBonds handles GET /api/bonds.
func (h *Handler) HandleListBonds(w http.ResponseWriter, r *http.Request) {
	bondList, err := h.bondRepo.List()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]map[string]interface{}, 0, len(bondList))
	for i := range bondList {
		result = append(result, bondResponse(&bondList[i]))
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetBond handles GET /api/bonds/{bondID}.
func (h *Handler) HandleGetBond(w http.ResponseWriter, r *http.Request) {
	bond, ok := h.lookupBond(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, bondResponse(bond))
}

// HandleDeleteBond handles DELETE /api/bonds/{bondID}. The bond's
// valuation history goes with it.
func (h *Handler) HandleDeleteBond(w http.ResponseWriter, r *http.Request) {
	bond, ok := h.lookupBond(w, r)
	if !ok {
		return
	}

	if err := h.valuationRepo.DeleteByBond(bond.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.bondRepo.Delete(bond.ID); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": bond.ID})
}

// HandleListValuations handles GET /api/bonds/{bondID}/valuations.
func (h *Handler) HandleListValuations(w http.ResponseWriter, r *http.Request) {
	bond, ok := h.lookupBond(w, r)
	if !ok {
		return
	}

	valuations, err := h.valuationRepo.ListByBond(bond.ID, 100)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := make([]map[string]interface{}, 0, len(valuations))
	for _, v := range valuations {
		result = append(result, map[string]interface{}{
			"id":               v.ID,
			"settlement_date":  v.SettlementDate.Format(dateLayout),
			"discount_rate":    v.DiscountRate,
			"clean_price":      v.CleanPrice,
			"dirty_price":      v.DirtyPrice,
			"accrued_interest": v.AccruedInterest,
			"created_at":       v.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleRevalue handles POST /api/bonds/{bondID}/revalue. An optional
// settlement date in the body overrides today's date.
func (h *Handler) HandleRevalue(w http.ResponseWriter, r *http.Request) {
	bond, ok := h.lookupBond(w, r)
	if !ok {
		return
	}

	settlement := time.Now().UTC()
	var req struct {
		Settlement string `json:"settlement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Settlement != "" {
		parsed, err := time.Parse(dateLayout, req.Settlement)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid settlement date: "+err.Error())
			return
		}
		settlement = parsed
	}

	valuation, err := h.service.Revalue(*bond, settlement)
	if err != nil {
		h.writeBondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":               valuation.ID,
		"settlement_date":  valuation.SettlementDate.Format(dateLayout),
		"discount_rate":    valuation.DiscountRate,
		"clean_price":      valuation.CleanPrice,
		"dirty_price":      valuation.DirtyPrice,
		"accrued_interest": valuation.AccruedInterest,
	})
}

// Helper methods

// lookupBond resolves the {bondID} URL parameter, writing a 404 when the
// bond does not exist.
func (h *Handler) lookupBond(w http.ResponseWriter, r *http.Request) (*bonds.Bond, bool) {
	id := chi.URLParam(r, "bondID")
	bond, err := h.bondRepo.GetByID(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if bond == nil {
		h.writeError(w, http.StatusNotFound, "Bond not found: "+id)
		return nil, false
	}
	return bond, true
}

// parseDates parses the settlement and maturity fields, writing a 400 on
// failure.
func (h *Handler) parseDates(w http.ResponseWriter, settlement, maturity string) (time.Time, time.Time, bool) {
	s, err := time.Parse(dateLayout, settlement)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid settlement date: "+err.Error())
		return time.Time{}, time.Time{}, false
	}
	m, err := time.Parse(dateLayout, maturity)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid maturity date: "+err.Error())
		return time.Time{}, time.Time{}, false
	}
	return s, m, true
}

// writeBondError maps the bonds error taxonomy onto HTTP statuses: bad
// inputs are 400, schedules/solves that cannot succeed for valid-looking
// inputs are 422, everything else 500.
func (h *Handler) writeBondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bonds.ErrInvalidFrequency),
		errors.Is(err, bonds.ErrMaturityBeforeSettlement),
		errors.Is(err, bonds.ErrNonFiniteInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bonds.ErrSchedulePrecondition),
		errors.Is(err, bonds.ErrNonTerminatingSchedule),
		errors.Is(err, bonds.ErrNoConvergence),
		errors.Is(err, bonds.ErrDerivativeVanished):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unexpected valuation error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func bondResponse(bond *bonds.Bond) map[string]interface{} {
	return map[string]interface{}{
		"id":            bond.ID,
		"name":          bond.Name,
		"coupon_rate":   bond.CouponRate,
		"frequency":     bond.Frequency,
		"nominal":       bond.Nominal,
		"maturity":      bond.MaturityDate.Format(dateLayout),
		"discount_rate": bond.DiscountRate,
		"created_at":    bond.CreatedAt.Format(time.RFC3339),
	}
}

func withDefaultFrequency(frequency int) int {
	if frequency == 0 {
		return defaultFrequency
	}
	return frequency
}

func withDefaultNominal(nominal float64) float64 {
	if nominal == 0 {
		return defaultNominal
	}
	return nominal
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
