package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/ninthball/internal/engine"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/simulation"
	"github.com/wonny/ninthball/pkg/logger"
	"github.com/wonny/ninthball/pkg/redis"
)

// SimulationHandler handles simulation runs
// 프로세스 내 token bucket + (Redis 사용 시) 인스턴스 공유 sliding window 두 단계로 제한
type SimulationHandler struct {
	engine  *engine.Engine
	runner  *simulation.Runner
	limits  Limits
	limiter *rate.Limiter
	shared  *redis.RateLimiter
	quota   redis.RateLimitConfig
	logger  *logger.Logger
}

// NewSimulationHandler creates a new simulation handler
// shared는 nil 가능
func NewSimulationHandler(
	e *engine.Engine,
	runner *simulation.Runner,
	limits Limits,
	limiter *rate.Limiter,
	shared *redis.RateLimiter,
	quota redis.RateLimitConfig,
	log *logger.Logger,
) *SimulationHandler {
	return &SimulationHandler{
		engine:  e,
		runner:  runner,
		limits:  limits,
		limiter: limiter,
		shared:  shared,
		quota:   quota,
		logger:  log,
	}
}

// SimulationRequest 시뮬레이션 요청 (생략된 필드는 설정값)
type SimulationRequest struct {
	Generator        string   `json:"generator"`
	Iterations       int      `json:"iterations"`
	Years            int      `json:"years"`
	StocksAllocation *float64 `json:"stocks_allocation"`
}

// Run runs a simulation synchronously
// POST /api/simulations
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}

	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	defaults := h.engine.Config().Simulation
	cfg := simulation.Config{
		Iterations:       defaults.Iterations,
		Years:            defaults.Years,
		Workers:          defaults.Workers,
		StocksAllocation: defaults.StocksAllocation,
	}
	if req.Iterations != 0 {
		cfg.Iterations = req.Iterations
	}
	if req.Years != 0 {
		cfg.Years = req.Years
	}
	if req.StocksAllocation != nil {
		cfg.StocksAllocation = *req.StocksAllocation
	}

	if h.limits.MaxIterations > 0 && cfg.Iterations > h.limits.MaxIterations {
		respondError(w, http.StatusBadRequest, "Too many iterations (max "+strconv.Itoa(h.limits.MaxIterations)+")")
		return
	}
	if h.limits.MaxYears > 0 && cfg.Years > h.limits.MaxYears {
		respondError(w, http.StatusBadRequest, "Horizon too long (max "+strconv.Itoa(h.limits.MaxYears)+" years)")
		return
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := h.engine.Config().Kind()
	if req.Generator != "" {
		k, err := generator.ParseKind(req.Generator)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	g, err := h.engine.GeneratorFor(r.Context(), kind)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), g, cfg)
	switch {
	case err == nil:
	case errors.Is(err, simulation.ErrNoIterations):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case r.Context().Err() != nil:
		// 클라이언트 연결 종료
		return
	default:
		h.logger.WithError(err).Error("Simulation failed")
		respondError(w, http.StatusInternalServerError, "Simulation failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// allow 두 단계 레이트 리밋 (거절 시 429 응답까지 작성)
func (h *SimulationHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter != nil && !h.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return false
	}
	if h.shared == nil {
		return true
	}

	d, err := h.shared.Allow(r.Context(), h.quota)
	if err != nil {
		// Redis 장애 시 프로세스 내 제한만 적용
		h.logger.WithError(err).Warn("Shared rate limit check failed")
		return true
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
		respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return false
	}
	return true
}

// retryAfterSeconds Retry-After 헤더 값 (올림, 최소 1초)
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
