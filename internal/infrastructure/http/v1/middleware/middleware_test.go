package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/pkg/logger"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), Logger(logger.NewNop()), ErrorHandler())
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRecovery_WritesInternalError(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(*gin.Context) { panic("nil map") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, rec.Body.String(), "nil map")
}

func TestErrorHandler_MapsAppError(t *testing.T) {
	r := newEngine()
	r.GET("/busy", func(c *gin.Context) {
		_ = c.Error(apperror.NewEditInProgress("AMX-250"))
		c.Abort()
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/busy", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeEditInProgress, decode(t, rec)["code"])
}

func TestTrace_EchoesIncomingIDs(t *testing.T) {
	r := newEngine()
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
	assert.NotEmpty(t, rec.Header().Get(HeaderTraceID))
}

func TestOperator(t *testing.T) {
	r := newEngine()
	r.Use(Operator())
	r.GET("/who", func(c *gin.Context) {
		op := appctx.GetOperator(c.Request.Context())
		if op == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, op.OperatorID+"@"+op.Terminal)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderOperatorID, " op-3 ")
	req.Header.Set(HeaderTerminal, "dock-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "op-3@dock-1", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, "anonymous", rec.Body.String())
}
