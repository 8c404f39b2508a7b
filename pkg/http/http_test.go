package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string  `json:"name" validate:"required"`
	Score float64 `json:"score" validate:"gte=0,lte=100"`
}

type batchRequest struct {
	Items []item `json:"items" validate:"required,min=1,dive"`
	Limit int    `json:"limit" default:"10" validate:"gte=1,lte=50"`
}

func jsonContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestReadAndValidateRequest_AppliesDefaults(t *testing.T) {
	c, _ := jsonContext(`{"items":[{"name":"a","score":5}]}`)
	req := &batchRequest{}

	assert.Nil(t, ReadAndValidateRequest(c, req))
	assert.Equal(t, 10, req.Limit)
}

func TestReadAndValidateRequest_NestedFieldPaths(t *testing.T) {
	c, _ := jsonContext(`{"items":[{"name":"a","score":5},{"score":120}],"limit":5}`)

	verr := ReadAndValidateRequest(c, &batchRequest{})

	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "items[1].name", errs[0].Field)
	assert.Equal(t, "ERR_LTE", errs[1].Code)
	assert.Equal(t, "items[1].score", errs[1].Field)
	assert.Equal(t, "100", errs[1].Params["max"])
}

func TestReadAndValidateRequest_DecodeError(t *testing.T) {
	c, _ := jsonContext(`{"items":`)

	errs, ok := ReadAndValidateRequest(c, &batchRequest{}).([]ValidationError)
	require.True(t, ok)
	assert.Equal(t, "ERR_DECODE", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", TooManyRequestsError("slow down"), http.StatusTooManyRequests, "ERR_RATE_LIMITED"},
		{"wrapped cause hidden", InternalError("boom").WithError(errors.New("secret")), http.StatusInternalServerError, "ERR_INTERNAL"},
		{"plain error", errors.New("oops"), http.StatusInternalServerError, "ERR_INTERNAL"},
		{"unprocessable", UnprocessableError("ERR_X", "no"), http.StatusUnprocessableEntity, "ERR_X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := jsonContext("")
			require.NoError(t, AppErrorResponse(c, tt.err))

			assert.Equal(t, tt.status, rec.Code)
			var body struct {
				Status int        `json:"status"`
				Data   []AppError `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			require.Len(t, body.Data, 1)
			assert.Equal(t, tt.code, body.Data[0].Code)
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}
}

type panicHandler struct{}

func (panicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/boom", func(echo.Context) error { panic("kaboom") })
}

func TestServer_Routes(t *testing.T) {
	s := NewServer([]Handler{panicHandler{}, nil}, WithMetricsPath("/metrics"))
	e := s.Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, rec.Body.String(), "ERR_INTERNAL")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finrank_http_requests_total")
}

func TestServer_CORSPreflight(t *testing.T) {
	e := NewServer(nil).Echo()

	req := httptest.NewRequest(http.MethodOptions, "/api/rank", nil)
	req.Header.Set(echo.HeaderOrigin, "https://desk.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://desk.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
}
