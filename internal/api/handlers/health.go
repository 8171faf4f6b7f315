package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/ninthball/internal/engine"
	"github.com/wonny/ninthball/pkg/database"
)

// DBChecker database.DB 헬스 체크
type DBChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// RedisChecker redis.Client 헬스 체크
type RedisChecker interface {
	HealthCheck(ctx context.Context) (string, error)
}

// HealthHandler handles /health
type HealthHandler struct {
	engine  *engine.Engine
	db      DBChecker
	redis   RedisChecker
	jobs    JobMonitor
	started time.Time
}

// NewHealthHandler creates a new health handler (db는 nil 가능)
func NewHealthHandler(e *engine.Engine, db DBChecker) *HealthHandler {
	return &HealthHandler{
		engine:  e,
		db:      db,
		started: time.Now(),
	}
}

// WithJobs 백그라운드 작업 실패를 degraded로 보고
func (h *HealthHandler) WithJobs(jobs JobMonitor) *HealthHandler {
	h.jobs = jobs
	return h
}

// WithRedis Redis 연결 상태를 보고 (비활성이면 "disabled", degraded 아님)
func (h *HealthHandler) WithRedis(rc RedisChecker) *HealthHandler {
	h.redis = rc
	return h
}

// Check returns server health status
// GET /health
// ok: 엔진 준비 완료 / degraded: DB, Redis 또는 백그라운드 작업 이상 / unavailable: 엔진 빌드 실패
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": "ninthball-api",
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}
	code := http.StatusOK

	snap, err := h.engine.Snapshot(r.Context())
	switch {
	case err != nil:
		resp["status"] = "unavailable"
		resp["engine"] = map[string]interface{}{"ready": false, "error": err.Error()}
		code = http.StatusServiceUnavailable
	default:
		resp["engine"] = map[string]interface{}{"ready": true, "seed": h.engine.Seed(), "regimes": snap.Model.K()}
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status, err := h.db.HealthCheck(ctx)
		resp["database"] = status
		if err != nil && code == http.StatusOK {
			resp["status"] = "degraded"
		}
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status, err := h.redis.HealthCheck(ctx)
		resp["redis"] = status
		if err != nil && code == http.StatusOK {
			resp["status"] = "degraded"
		}
	}

	if h.jobs != nil {
		if failing := h.jobs.Failing(); len(failing) > 0 {
			resp["failing_jobs"] = failing
			if code == http.StatusOK {
				resp["status"] = "degraded"
			}
		}
	}

	respondJSON(w, code, resp)
}
