package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/ninthball/internal/api"
	"github.com/wonny/ninthball/internal/api/handlers"
	"github.com/wonny/ninthball/internal/scheduler"
	"github.com/wonny/ninthball/internal/scheduler/jobs"
	"github.com/wonny/ninthball/internal/simulation"
	"github.com/wonny/ninthball/pkg/metrics"
	"github.com/wonny/ninthball/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST / WebSocket API 서버를 시작합니다.

이 명령어는:
- 엔진 빌드 (시계열 → 카탈로그 → 극단 경계 → 국면) 후 서버 시작
- 시나리오 조회 / 스트리밍 엔드포인트 제공
- 시뮬레이션 실행 엔드포인트 제공 (레이트 리밋)
- 백그라운드 작업: 시계열 변경 감지, 국면 모델 캐시 재저장 (SCHEDULER_ENABLED)

Endpoints:
  GET  /health                         - Health check
  GET  /metrics                        - Prometheus metrics
  GET  /api/engine                     - 엔진 빌드 상태
  GET  /api/regimes                    - 국면 모델
  GET  /api/catalog                    - 블록 카탈로그
  GET  /api/scenarios/{iteration}      - 반복 1회분 경로
  GET  /api/scenarios/stream           - 연속 반복 WebSocket 스트림
  POST /api/simulations                - 시뮬레이션 실행
  GET  /api/jobs                       - 백그라운드 작업 상태

Example:
  go run ./cmd/ninthball api
  go run ./cmd/ninthball api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	// 1. Build engine before accepting requests
	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"blocks":   snap.Catalog.Len(),
		"duration": snap.Duration.String(),
	}).Info("Engine ready")

	// 2. Rate limiters
	limiter := rate.NewLimiter(rate.Limit(a.cfg.API.SimulationRate), a.cfg.API.SimulationBurst)
	var shared *redis.RateLimiter
	if a.redis.Enabled() {
		shared = redis.NewRateLimiter(a.redis)
	}
	quota := redis.SimulationRateLimit(a.cfg.API.SimulationRate, a.cfg.API.SimulationBurst)

	// 3. Background jobs
	var sched *scheduler.Scheduler
	if a.cfg.Scheduler.Enabled {
		sched, err = startScheduler(a)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	// 4. Handlers
	limits := handlers.Limits{
		MaxIterations: a.cfg.API.MaxIterations,
		MaxYears:      a.cfg.API.MaxYears,
	}
	var db handlers.DBChecker
	if a.db != nil {
		db = a.db
	}
	health := handlers.NewHealthHandler(a.engine, db).WithRedis(a.redis)
	h := api.Handlers{
		Health:   health,
		Scenario: handlers.NewScenarioHandler(a.engine, limits, log).WithCache(a.cache),
		Simulation: handlers.NewSimulationHandler(a.engine, simulation.NewRunner(log.Component("simulation"), a.metrics),
			limits, limiter, shared, quota, log),
	}
	if sched != nil {
		health.WithJobs(sched)
		h.Jobs = handlers.NewJobHandler(sched)
	}

	// 5. Router / servers
	// METRICS_PORT가 API 포트와 다르면 /metrics는 별도 리스너에서만
	var rec *metrics.Recorder
	separateMetrics := a.cfg.MetricsEnabled && a.cfg.MetricsPort != "" && a.cfg.MetricsPort != a.cfg.Port
	if a.cfg.MetricsEnabled && !separateMetrics {
		rec = a.metrics
	}
	router := api.NewRouter(h, rec, log.Component("api"))
	server := api.New(a.cfg, log, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, 30*time.Second)
	})
	if separateMetrics {
		metricsCfg := *a.cfg
		metricsCfg.Port = a.cfg.MetricsPort
		metricsServer := api.New(&metricsCfg, log, a.metrics.Handler())
		g.Go(func() error {
			return metricsServer.Run(gctx, 5*time.Second)
		})
	}

	log.Info("API server started successfully")
	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if separateMetrics {
		fmt.Fprintf(cmd.OutOrStdout(), "   Metrics on http://localhost:%s/metrics\n", a.cfg.MetricsPort)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

// startScheduler 시계열 감시 + (Redis 사용 시) 모델 캐시 재저장 작업 등록 후 시작
func startScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log.Component("scheduler"), scheduler.WithRetry(1, 30*time.Second))

	if err := sched.AddJob(jobs.NewHistoryCheckJob(a.engine, a.cfg.Scheduler.HistoryCheck, a.log)); err != nil {
		return nil, err
	}
	if a.redis.Enabled() {
		if err := sched.AddJob(jobs.NewModelRefreshJob(a.engine, a.cfg.Scheduler.ModelRefresh, a.log)); err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}
