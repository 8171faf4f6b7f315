package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/ninthball/internal/engine"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/simconfig"
	"github.com/wonny/ninthball/pkg/config"
	"github.com/wonny/ninthball/pkg/database"
	"github.com/wonny/ninthball/pkg/httputil"
	"github.com/wonny/ninthball/pkg/logger"
	"github.com/wonny/ninthball/pkg/metrics"
	"github.com/wonny/ninthball/pkg/redis"
)

// cachePrefix Redis 키 namespace
const cachePrefix = "ninthball"

// app 커맨드 공통 의존성
type app struct {
	cfg     *config.Config
	sim     *simconfig.Config
	simHash string
	log     *logger.Logger
	db      *database.DB // DATABASE_URL 없으면 nil
	redis   *redis.Client
	cache   *redis.Cache
	metrics *metrics.Recorder
	engine  *engine.Engine
}

// setup 환경 설정 → 로거 → 시뮬레이션 YAML → (DB, Redis) → 엔진
// 로그는 stderr, 결과 출력은 stdout
func setup(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg, os.Stderr)

	// 3. Simulation config
	sim, err := loadSimConfig(cfg)
	if err != nil {
		return nil, err
	}
	hash, err := simconfig.Hash(sim)
	if err != nil {
		return nil, fmt.Errorf("hash simulation config: %w", err)
	}

	a := &app{cfg: cfg, sim: sim, simHash: hash, log: log, metrics: metrics.New()}

	// 4. Connect to database (optional)
	if cfg.Database.URL != "" {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
	}

	// 5. Redis (optional)
	a.redis, err = redis.New(ctx, cfg.Redis, cachePrefix)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.cache = redis.NewCache(a.redis, log.Component("cache"))

	// 6. History loader
	loader, err := a.loader(sim.History)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 7. Engine
	opts := []engine.Option{
		engine.WithObservers(a.metrics),
		engine.WithPhaseRecorder(a.metrics),
	}
	if a.cache.Enabled() {
		opts = append(opts, engine.WithModelCache(engine.NewRedisModelCache(a.cache, cfg.Redis.ModelTTL)))
	}
	a.engine = engine.New(sim, loader, log.Component("engine"), opts...)

	log.WithFields(map[string]interface{}{
		"config_hash": hash,
		"generator":   sim.Generator,
		"history":     sim.History.Source,
		"redis":       a.redis.Enabled(),
		"database":    a.db != nil,
	}).Info("Setup complete")
	return a, nil
}

// loadSimConfig YAML → 환경변수 override → 플래그 override → 재검증
func loadSimConfig(cfg *config.Config) (*simconfig.Config, error) {
	path := cfg.SimConfigPath
	if simConfigFile != "" {
		path = simConfigFile
	}

	sim, _, err := simconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load simulation config: %w", err)
	}

	if cfg.History.Source != "" {
		sim.History.Source = cfg.History.Source
	}
	if cfg.History.Path != "" {
		sim.History.Path = cfg.History.Path
	}
	if generatorName != "" {
		k, err := generator.ParseKind(generatorName)
		if err != nil {
			return nil, err
		}
		sim.Generator = string(k)
	}
	if seedOverride != 0 {
		sim.Seed = seedOverride
	}

	if err := simconfig.Validate(sim); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	return sim, nil
}

// loader history 설정 → Loader (HTML URL은 pkg/httputil로 가져옴)
func (a *app) loader(h simconfig.History) (history.Loader, error) {
	deps := engine.LoaderDeps{
		Fetcher: httputil.New(a.cfg, a.log.Component("http")),
	}
	if a.db != nil {
		deps.Pool = a.db.Pool
	}
	return engine.NewLoader(h, deps)
}

// Close 외부 연결 정리
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
