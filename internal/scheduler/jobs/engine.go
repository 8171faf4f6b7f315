package jobs

import (
	"context"

	"github.com/wonny/ninthball/pkg/logger"
)

// Engine 작업이 사용하는 engine.Engine 메서드
type Engine interface {
	CheckHistory(ctx context.Context) error
	RefreshModelCache(ctx context.Context) error
}

// HistoryCheckJob 과거 수익률 소스가 엔진 스냅샷 이후 바뀌었는지 주기적으로 확인
// 바뀌었으면 실패로 기록 → /health가 degraded로 보고
type HistoryCheckJob struct {
	engine   Engine
	schedule string
	logger   *logger.Logger
}

// NewHistoryCheckJob creates a new history check job
func NewHistoryCheckJob(e Engine, schedule string, log *logger.Logger) *HistoryCheckJob {
	return &HistoryCheckJob{engine: e, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *HistoryCheckJob) Name() string { return "history_check" }

// Schedule returns the cron schedule
func (j *HistoryCheckJob) Schedule() string { return j.schedule }

// Run executes the job
func (j *HistoryCheckJob) Run(ctx context.Context) error {
	if err := j.engine.CheckHistory(ctx); err != nil {
		return err
	}
	j.logger.Debug("History unchanged")
	return nil
}

// ModelRefreshJob 실행 중인 국면 모델을 캐시에 다시 저장 (TTL 연장)
type ModelRefreshJob struct {
	engine   Engine
	schedule string
	logger   *logger.Logger
}

// NewModelRefreshJob creates a new model refresh job
func NewModelRefreshJob(e Engine, schedule string, log *logger.Logger) *ModelRefreshJob {
	return &ModelRefreshJob{engine: e, schedule: schedule, logger: log}
}

// Name returns the job name
func (j *ModelRefreshJob) Name() string { return "model_refresh" }

// Schedule returns the cron schedule
func (j *ModelRefreshJob) Schedule() string { return j.schedule }

// Run executes the job
func (j *ModelRefreshJob) Run(ctx context.Context) error {
	if err := j.engine.RefreshModelCache(ctx); err != nil {
		return err
	}
	j.logger.Debug("Regime model cache refreshed")
	return nil
}
