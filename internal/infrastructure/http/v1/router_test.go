package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/tx"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/grn"
	"stockroom/internal/domain/receipt"
	"stockroom/internal/domain/receiving"
	"stockroom/internal/infrastructure/cache"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/numerator"
	"stockroom/internal/infrastructure/storage/memory"
	"stockroom/pkg/logger"
)

var testToday = types.MustDate("2025-06-15")

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, checks map[string]handlers.Pinger) http.Handler {
	t.Helper()

	catalog := receiving.NewMemoryCatalog(
		receiving.ItemSnapshot{ItemRef: "SKU-1", Name: "Amoxicillin 250mg", SellingPrice: types.MustMoney("1000"), StockOnHand: 12},
	)
	notes := grn.NewService(memory.NewGRNRepo(), numerator.NewLocal(), tx.NoopManager{})
	receipts := receipt.NewService(cache.NewMemoryStore(time.Hour), catalog, notes, receipt.Config{
		Policy:         receiving.DefaultPolicy(),
		LineIDStrategy: receipt.LineIDSequence,
		Today:          func() types.Date { return testToday },
	})

	return NewRouter(RouterConfig{
		Logger:         logger.NewNop(),
		Receipts:       receipts,
		Notes:          notes,
		SessionBackend: "memory",
		HealthChecks:   checks,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Operator-ID", "op-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func lineInput() map[string]any {
	return map[string]any{
		"itemRef":           "SKU-1",
		"buyingPrice":       "100",
		"units":             10,
		"itemsPerUnit":      12,
		"freeUnits":         5,
		"rejectedUnits":     3,
		"billedUnpaidUnits": 20,
		"sellingPrice":      "1000",
		"wholesale":         map[string]any{"enabled": true, "minQty": 20, "totalPrice": "15000"},
		"batchNumber":       "B-77",
		"manufactureDate":   "2025-05-01",
		"expiryDate":        "2027-05-01",
		"receivedDate":      "2025-06-15",
	}
}

func TestRouter_ReceivingFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, sess := do(t, h, http.MethodPost, "/api/v1/receiving/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := sess["sessionId"].(string)
	base := "/api/v1/receiving/sessions/" + sessionID

	rec, sess = do(t, h, http.MethodPatch, base+"/header", map[string]any{"supplierName": "Acme Pharma"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Pharma", sess["header"].(map[string]any)["supplierName"])

	rec, slot := do(t, h, http.MethodPost, base+"/slot/select", map[string]any{"itemRef": "SKU-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "item_selected", slot["state"])

	rec, slot = do(t, h, http.MethodPut, base+"/slot", lineInput())
	require.Equal(t, http.StatusOK, rec.Code)
	quantities := slot["figures"].(map[string]any)["quantities"].(map[string]any)
	assert.EqualValues(t, 102, quantities["paidQuantity"])

	rec, line := do(t, h, http.MethodPost, base+"/slot/commit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "L-0001", line["lineId"])

	rec, sess = do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := sess["totals"].(map[string]any)
	assert.EqualValues(t, 1, totals["lineCount"])
	assert.Equal(t, "idle", sess["slot"].(map[string]any)["state"])

	rec, result := do(t, h, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Regexp(t, `^GRN-\d{4}-00001$`, result["number"])

	rec, note := do(t, h, http.MethodGet, "/api/v1/receipts/"+result["receiptId"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Pharma", note["supplierName"])
	assert.Equal(t, "op-1", note["createdBy"])
	lines := note["lines"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 102, lines[0].(map[string]any)["quantity"])
	assert.EqualValues(t, 20, lines[0].(map[string]any)["billedAmount"])

	// A submitted session is released.
	rec, body := do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_Errors(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/v1/receiving/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])

	_, sess := do(t, h, http.MethodPost, "/api/v1/receiving/sessions", nil)
	base := "/api/v1/receiving/sessions/" + sess["sessionId"].(string)

	rec, body = do(t, h, http.MethodPost, base+"/slot/select", map[string]any{"itemRef": "SKU-404"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = do(t, h, http.MethodPost, base+"/slot/select", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	rec, _ = do(t, h, http.MethodPost, base+"/slot/select", map[string]any{"itemRef": "SKU-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPost, base+"/slot/select", map[string]any{"itemRef": "SKU-1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EDIT_IN_PROGRESS", body["code"])

	bad := lineInput()
	bad["rejectedUnits"] = 500
	rec, _ = do(t, h, http.MethodPut, base+"/slot", bad)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPost, base+"/slot/commit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "LINE_REJECTED", body["code"])
	assert.NotEmpty(t, body["details"].(map[string]any)["business"])

	rec, body = do(t, h, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/receipts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Preview(t *testing.T) {
	h := newTestRouter(t, nil)

	in := lineInput()
	in["units"] = -1

	rec, fig := do(t, h, http.MethodPost, "/api/v1/receiving/preview", in)
	require.Equal(t, http.StatusOK, rec.Code)
	fields := fig["validation"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "units")
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, map[string]handlers.Pinger{"redis": failingPinger{}})

	rec, body := do(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["checks"].(map[string]any)["redis"], "connection refused")

	rec, body = do(t, h, http.MethodGet, "/health/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", body["session_backend"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
