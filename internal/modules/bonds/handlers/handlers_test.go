package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/bondpricer/internal/modules/bonds"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	openDB := func() *sql.DB {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })
		return db
	}

	log := zerolog.Nop()
	bondRepo := bonds.NewBondRepository(openDB(), log)
	require.NoError(t, bondRepo.InitSchema())
	valuationRepo := bonds.NewValuationRepository(openDB(), log)
	require.NoError(t, valuationRepo.InitSchema())

	service := bonds.NewService(bondRepo, valuationRepo, log)
	handler := NewHandler(service, bondRepo, valuationRepo, log)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandlePrice(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/price", map[string]interface{}{
		"settlement":    "2020-05-12",
		"maturity":      "2028-06-01",
		"coupon_rate":   0.02,
		"discount_rate": 0.01215,
		"frequency":     2,
		"nominal":       100.0,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.InDelta(t, 106.005712352363, body["clean_price"], 1e-9)
	assert.InDelta(t, 0.890710382513661, body["accrued_interest"], 1e-9)
	assert.InDelta(t, 106.896422734877, body["dirty_price"], 1e-9)
}

func TestHandlePrice_DefaultsFrequencyAndNominal(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/price", map[string]interface{}{
		"settlement":    "2020-05-12",
		"maturity":      "2028-06-01",
		"coupon_rate":   0.02,
		"discount_rate": 0.01215,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.InDelta(t, 106.005712352363, body["clean_price"], 1e-9)
}

func TestHandlePrice_InvalidDate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/price", map[string]interface{}{
		"settlement":    "12/05/2020",
		"maturity":      "2028-06-01",
		"coupon_rate":   0.02,
		"discount_rate": 0.01215,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "settlement")
}

func TestHandlePrice_InvalidFrequency(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/price", map[string]interface{}{
		"settlement":    "2020-05-12",
		"maturity":      "2028-06-01",
		"coupon_rate":   0.02,
		"discount_rate": 0.01215,
		"frequency":     5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePrice_NonTerminatingSchedule(t *testing.T) {
	router := newTestRouter(t)

	// Day-31 maturity: the coupon walk cannot land back on May 31.
	rec := doJSON(t, router, http.MethodPost, "/bonds/price", map[string]interface{}{
		"settlement":    "2021-02-10",
		"maturity":      "2025-05-31",
		"coupon_rate":   0.02,
		"discount_rate": 0.02,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandlePrice_MalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/bonds/price", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleYield(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/yield", map[string]interface{}{
		"price":       106.005712352363,
		"settlement":  "2020-05-12",
		"maturity":    "2028-06-01",
		"coupon_rate": 0.02,
		"frequency":   2,
		"nominal":     100.0,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.InDelta(t, 0.01215, body["yield_to_maturity"], 1e-6)
}

func TestHandleYield_MaturityBeforeSettlement(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/yield", map[string]interface{}{
		"price":       100.0,
		"settlement":  "2029-01-01",
		"maturity":    "2028-06-01",
		"coupon_rate": 0.02,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBondBookLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Create
	rec := doJSON(t, router, http.MethodPost, "/bonds/", map[string]interface{}{
		"name":          "GoC 2% Jun 2055",
		"coupon_rate":   0.02,
		"frequency":     2,
		"nominal":       100.0,
		"maturity":      "2055-06-01",
		"discount_rate": 0.01215,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	bondID, ok := created["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, bondID)
	assert.Equal(t, "GoC 2% Jun 2055", created["name"])
	assert.Equal(t, "2055-06-01", created["maturity"])

	// List
	rec = doJSON(t, router, http.MethodGet, "/bonds/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, bondID, list[0]["id"])

	// Get
	rec = doJSON(t, router, http.MethodGet, "/bonds/"+bondID+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bondID, decodeBody(t, rec)["id"])

	// Revalue with an explicit settlement date
	rec = doJSON(t, router, http.MethodPost, "/bonds/"+bondID+"/revalue", map[string]interface{}{
		"settlement": "2026-08-15",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := decodeBody(t, rec)
	assert.Equal(t, "2026-08-15", snapshot["settlement_date"])
	assert.NotEmpty(t, snapshot["id"])

	// Valuation history holds the snapshot
	rec = doJSON(t, router, http.MethodGet, "/bonds/"+bondID+"/valuations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var valuations []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &valuations))
	require.Len(t, valuations, 1)
	assert.Equal(t, snapshot["id"], valuations[0]["id"])

	// Delete removes the bond and its history
	rec = doJSON(t, router, http.MethodDelete, "/bonds/"+bondID+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/bonds/"+bondID+"/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateBond_RejectsUnpriceable(t *testing.T) {
	router := newTestRouter(t)

	// Already matured: the dry-run valuation against today fails.
	rec := doJSON(t, router, http.MethodPost, "/bonds/", map[string]interface{}{
		"name":          "matured",
		"coupon_rate":   0.02,
		"maturity":      "2019-06-01",
		"discount_rate": 0.01215,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was stored.
	rec = doJSON(t, router, http.MethodGet, "/bonds/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestHandleGetBond_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/bonds/no-such-bond/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRevalue_InvalidSettlement(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/bonds/", map[string]interface{}{
		"name":          "GoC 2% Jun 2055",
		"coupon_rate":   0.02,
		"maturity":      "2055-06-01",
		"discount_rate": 0.01215,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bondID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/bonds/"+bondID+"/revalue", map[string]interface{}{
		"settlement": "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
