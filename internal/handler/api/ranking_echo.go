package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	icache "FinRank/internal/service/cache"
	"FinRank/internal/service/metrics"
	"FinRank/internal/service/ratelimit"
	"FinRank/internal/service/stream"
	"FinRank/internal/usecase"
	xhttp "FinRank/pkg/http"
	applogger "FinRank/pkg/logger"
)

// maxBodyBytes bounds a rank request body.
const maxBodyBytes = 8 << 20

// RankingEchoHandler serves the ranking, regime, audit and stream endpoints.
type RankingEchoHandler struct {
	uc       *usecase.RankingUseCase
	audit    domrepo.AuditStore
	hub      *stream.Hub
	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	now      func() time.Time
	l        *applogger.Logger
}

func NewRankingEchoHandler(uc *usecase.RankingUseCase) *RankingEchoHandler {
	metrics.Register()
	return &RankingEchoHandler{uc: uc, now: time.Now}
}

// SetCache enables response caching for identical rank requests.
func (h *RankingEchoHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

func (h *RankingEchoHandler) SetRateLimiter(rl *ratelimit.Limiter) { h.rl = rl }

func (h *RankingEchoHandler) SetAuditStore(s domrepo.AuditStore) { h.audit = s }

func (h *RankingEchoHandler) SetHub(hub *stream.Hub) { h.hub = hub }

// SetLogger injects a structured logger.
func (h *RankingEchoHandler) SetLogger(l *applogger.Logger) { h.l = l.Component("api") }

func (h *RankingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/rank", h.Rank)
	g.POST("/regime", h.Regime)
	g.GET("/audit/runs/:run_id", h.AuditRun)
	g.GET("/audit/rejections", h.AuditRejections)
	if h.hub != nil {
		e.GET("/ws/rankings", h.Stream)
	}
}

func (h *RankingEchoHandler) observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *RankingEchoHandler) fail(c echo.Context, endpoint, kind string, err *xhttp.AppError) error {
	metrics.EndpointErrors.WithLabelValues(endpoint, kind).Inc()
	return xhttp.AppErrorResponse(c, err)
}

func (h *RankingEchoHandler) limited(c echo.Context, endpoint string) bool {
	return h.rl != nil && !h.rl.Allow(c.RealIP()+":"+endpoint)
}

func (h *RankingEchoHandler) Rank(c echo.Context) error {
	const endpoint = "rank"
	start := time.Now()
	defer h.observe(endpoint, start)

	if h.limited(c, endpoint) {
		h.l.Warn("rank rate_limited", applogger.String("remote", c.RealIP()))
		return h.fail(c, endpoint, "rate_limited", xhttp.TooManyRequestsError("rate limited"))
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes))
	if err != nil {
		return h.fail(c, endpoint, "read_body", xhttp.BadRequestError("request body too large or unreadable").WithError(err))
	}
	ctx := c.Request().Context()

	cacheKey := icache.Key(endpoint, body)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(ctx, cacheKey); err != nil {
			h.l.Warn("rank cache_get_error", applogger.Error(err))
		} else if ok {
			metrics.CacheLookups.WithLabelValues(endpoint, "hit").Inc()
			return xhttp.CachedResponse(c, b)
		}
		metrics.CacheLookups.WithLabelValues(endpoint, "miss").Inc()
	}

	c.Request().Body = io.NopCloser(bytes.NewReader(body))
	req := &models.RankRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Rank(ctx, *req)
	if err != nil {
		return h.engineError(c, endpoint, err)
	}

	out, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: res})
	if err != nil {
		h.l.Error("rank marshal_error", applogger.Error(err))
		return h.fail(c, endpoint, "encode", xhttp.InternalError("encode error"))
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(ctx, cacheKey, out, h.cacheTTL); err != nil {
			h.l.Warn("rank cache_set_error", applogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, out)
}

func (h *RankingEchoHandler) Regime(c echo.Context) error {
	const endpoint = "regime"
	defer h.observe(endpoint, time.Now())

	if h.limited(c, endpoint) {
		return h.fail(c, endpoint, "rate_limited", xhttp.TooManyRequestsError("rate limited"))
	}
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "validation").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	st, err := h.uc.DetectRegime(req.Signals)
	if err != nil {
		return h.engineError(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *RankingEchoHandler) AuditRun(c echo.Context) error {
	const endpoint = "audit_run"
	defer h.observe(endpoint, time.Now())

	if h.audit == nil {
		return h.fail(c, endpoint, "disabled", xhttp.ServiceUnavailableError("audit store disabled"))
	}
	req := &models.RunQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	run, err := h.audit.GetRun(c.Request().Context(), req.RunID)
	if errors.Is(err, models.ErrRunNotFound) {
		return h.fail(c, endpoint, "not_found", xhttp.NotFoundError("run "+req.RunID+" not found"))
	}
	if err != nil {
		h.l.Error("audit run query error", applogger.String("run_id", req.RunID), applogger.Error(err))
		return h.fail(c, endpoint, "store", xhttp.InternalError("audit query failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, run)
}

func (h *RankingEchoHandler) AuditRejections(c echo.Context) error {
	const endpoint = "audit_rejections"
	defer h.observe(endpoint, time.Now())

	if h.audit == nil {
		return h.fail(c, endpoint, "disabled", xhttp.ServiceUnavailableError("audit store disabled"))
	}
	req := &models.RejectionsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	since := xhttp.ParseSince(req.Since, h.now(), 24*time.Hour)
	rows, err := h.audit.QueryRejections(c.Request().Context(), since, req.Limit)
	if err != nil {
		h.l.Error("audit rejections query error", applogger.Error(err))
		return h.fail(c, endpoint, "store", xhttp.InternalError("audit query failed").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *RankingEchoHandler) Stream(c echo.Context) error {
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
	}
	return nil
}

// engineError maps use case errors onto API errors.
func (h *RankingEchoHandler) engineError(c echo.Context, endpoint string, err error) error {
	if errors.Is(err, models.ErrInsufficientSignals) {
		return h.fail(c, endpoint, "insufficient_signals",
			xhttp.UnprocessableError("ERR_INSUFFICIENT_SIGNALS", err.Error()))
	}
	h.l.Error(endpoint+" usecase error", applogger.Error(err))
	return h.fail(c, endpoint, "internal", xhttp.InternalError("ranking failed").WithError(err))
}
