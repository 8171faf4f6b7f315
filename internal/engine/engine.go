package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
	"github.com/wonny/ninthball/internal/simconfig"
	"github.com/wonny/ninthball/pkg/logger"
	"github.com/wonny/ninthball/pkg/redis"
)

// ErrHistoryChanged 소스 시계열이 스냅샷과 달라짐 (재시작 필요)
var ErrHistoryChanged = errors.New("history changed since engine build")

// 빌드 단계 이름 (로그/메트릭 라벨)
const (
	PhaseLoad       = "load"
	PhaseCatalog    = "catalog"
	PhaseThresholds = "thresholds"
	PhaseRegimes    = "regimes"
)

// Snapshot 빌드 단계 결과
// ⭐ 한 번 만들어지면 불변, 모든 생성기/반복이 참조로 공유
type Snapshot struct {
	Series      *history.Series
	Catalog     *blocks.Catalog
	Thresholds  blocks.Thresholds
	Model       *regime.Model
	ModelCached bool
	Fingerprint string // 시계열 digest + 설정 해시, 응답 캐시 키에 사용
	BuiltAt     time.Time
	Duration    time.Duration
}

// Inputs 생성기 팩토리 입력
func (s *Snapshot) Inputs() generator.Inputs {
	return generator.Inputs{
		Series:     s.Series,
		Catalog:    s.Catalog,
		Thresholds: s.Thresholds,
		Model:      s.Model,
	}
}

// PhaseRecorder 빌드 단계 소요 시간 기록 (pkg/metrics.Recorder)
type PhaseRecorder interface {
	RecordBuildPhase(phase string, d time.Duration)
}

// Engine 시나리오 엔진
// 빌드 단계(시계열 → 카탈로그 → 극단 경계 → 국면)를 한 번만 수행하고 생성기를 만들어 줌
// ⭐ SSOT: 빌드 순서와 공유 상태는 여기서만
type Engine struct {
	cfg       *simconfig.Config
	loader    history.Loader
	cache     ModelCache
	observers []scenario.Observer
	phases    PhaseRecorder
	logger    *logger.Logger

	once sync.Once
	snap *Snapshot
	err  error
}

// Option Engine 설정
type Option func(*Engine)

// WithModelCache 국면 모델 캐시 사용
func WithModelCache(c ModelCache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithObservers 생성되는 모든 생성기에 Observer 부착
func WithObservers(obs ...scenario.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, obs...) }
}

// WithPhaseRecorder 빌드 단계 시간 기록
func WithPhaseRecorder(p PhaseRecorder) Option {
	return func(e *Engine) { e.phases = p }
}

// New creates an engine. cfg는 검증된 설정이어야 함
// seed 0이면 시계로 정하고 로그에 남김 (재현하려면 그 값을 설정에 기록)
func New(cfg *simconfig.Config, loader history.Loader, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Nop()
	}

	resolved := *cfg
	if resolved.Seed == 0 {
		resolved.Seed = time.Now().UnixNano()
		if resolved.Seed == 0 {
			resolved.Seed = 1
		}
		log.WithField("seed", resolved.Seed).Info("Seed chosen from clock")
	}

	e := &Engine{
		cfg:    &resolved,
		loader: loader,
		logger: log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config 실제 사용되는 설정 (seed 확정 후)
func (e *Engine) Config() *simconfig.Config { return e.cfg }

// Seed 확정된 seed
func (e *Engine) Seed() int64 { return e.cfg.Seed }

// Snapshot 빌드 단계 결과 (최초 호출에서 한 번만 빌드, 실패도 캐시됨)
func (e *Engine) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.once.Do(func() {
		e.snap, e.err = e.build(ctx)
	})
	return e.snap, e.err
}

// Generator 설정된 종류의 생성기
func (e *Engine) Generator(ctx context.Context) (scenario.Generator, error) {
	return e.GeneratorFor(ctx, e.cfg.Kind())
}

// GeneratorFor 지정한 종류의 생성기 (API에서 요청별 선택)
func (e *Engine) GeneratorFor(ctx context.Context, kind generator.Kind) (scenario.Generator, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	g, err := generator.New(kind, snap.Inputs(), e.cfg.GeneratorOptions())
	if err != nil {
		return nil, err
	}
	return scenario.Observe(g, e.observers...), nil
}

// build S1 → S2 → S3 → S4
// 어느 단계든 실패하면 스냅샷 없음 (생성기 종류와 무관, 부분 상태로 진행하지 않음)
func (e *Engine) build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap := &Snapshot{BuiltAt: start}

	e.logger.WithFields(map[string]interface{}{
		"generator":     e.cfg.Generator,
		"seed":          e.cfg.Seed,
		"block_lengths": e.cfg.Bootstrap.BlockLengths,
		"regimes":       e.cfg.Regimes.Count,
	}).Info("Building scenario engine")

	// S1: History
	var err error
	err = e.phase(PhaseLoad, func() error {
		snap.Series, err = e.loader.Load(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	e.logger.WithFields(map[string]interface{}{
		"years": snap.Series.Len(),
		"from":  snap.Series.MinYear(),
		"to":    snap.Series.MaxYear(),
	}).Info("History loaded")

	// S2: Catalog
	err = e.phase(PhaseCatalog, func() error {
		snap.Catalog, err = blocks.Extract(snap.Series, e.cfg.Bootstrap.BlockLengths)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract blocks: %w", err)
	}
	e.logger.WithFields(map[string]interface{}{
		"blocks":    snap.Catalog.Len(),
		"by_length": snap.Catalog.CountByLength(),
	}).Info("Catalog built")

	// S3: Extreme thresholds
	err = e.phase(PhaseThresholds, func() error {
		snap.Thresholds, err = blocks.NewThresholds(snap.Catalog,
			e.cfg.Bootstrap.DisasterPercentile, e.cfg.Bootstrap.JackpotPercentile)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}

	// S4: Regimes
	err = e.phase(PhaseRegimes, func() error {
		snap.Model, snap.ModelCached, err = e.regimes(ctx, snap)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discover regimes: %w", err)
	}
	e.logRegimes(snap)

	if snap.Fingerprint, err = e.fingerprint(snap); err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	snap.Duration = time.Since(start)
	e.logger.WithFields(map[string]interface{}{
		"duration": snap.Duration.String(),
		"cached":   snap.ModelCached,
	}).Info("Scenario engine ready")
	return snap, nil
}

// regimes 캐시 조회 → 검증 → (실패 시) 발견 → 캐시 저장
func (e *Engine) regimes(ctx context.Context, snap *Snapshot) (*regime.Model, bool, error) {
	key := ""
	if e.cache != nil {
		var err error
		if key, err = e.modelKey(snap); err != nil {
			return nil, false, err
		}

		m, found, err := e.cache.Get(ctx, key)
		switch {
		case err != nil:
			e.logger.WithError(err).Warn("Model cache read failed")
		case found:
			if verr := m.Validate(snap.Catalog); verr != nil {
				e.logger.WithError(verr).Warn("Cached regime model rejected, rediscovering")
			} else {
				return m, true, nil
			}
		}
	}

	m, err := regime.Discover(snap.Catalog, e.cfg.RegimeOptions())
	if err != nil {
		return nil, false, err
	}

	if e.cache != nil {
		if err := e.cache.Put(ctx, key, m); err != nil {
			e.logger.WithError(err).Warn("Model cache write failed")
		}
	}
	return m, false, nil
}

// modelKey 시계열 digest + 모델 관련 설정 해시
func (e *Engine) modelKey(snap *Snapshot) (string, error) {
	hash, err := simconfig.ModelHash(e.cfg)
	if err != nil {
		return "", err
	}
	return redis.ModelKey(snap.Series.Digest(), hash), nil
}

// fingerprint 같은 시계열 + 같은 설정이면 같은 값 (생성 결과가 같음)
func (e *Engine) fingerprint(snap *Snapshot) (string, error) {
	hash, err := simconfig.Hash(e.cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(snap.Series.Digest() + "|" + hash))
	return hex.EncodeToString(sum[:16]), nil
}

// CheckHistory 소스를 다시 읽어 스냅샷 시계열과 같은지 확인
// 스냅샷은 불변이므로 달라졌으면 ErrHistoryChanged (재시작해야 반영)
func (e *Engine) CheckHistory(ctx context.Context) error {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}
	current, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload history: %w", err)
	}
	if got, want := current.Digest(), snap.Series.Digest(); got != want {
		return fmt.Errorf("%w: %d..%d (%s) → %d..%d (%s)", ErrHistoryChanged,
			snap.Series.MinYear(), snap.Series.MaxYear(), want[:12],
			current.MinYear(), current.MaxYear(), got[:12])
	}
	return nil
}

// RefreshModelCache 현재 국면 모델을 캐시에 다시 저장 (TTL 연장)
// 캐시가 없으면 no-op
func (e *Engine) RefreshModelCache(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}
	key, err := e.modelKey(snap)
	if err != nil {
		return err
	}
	return e.cache.Put(ctx, key, snap.Model)
}

func (e *Engine) logRegimes(snap *Snapshot) {
	m := snap.Model
	e.logger.WithFields(map[string]interface{}{
		"k":                 m.K(),
		"iterations":        m.Iterations,
		"converged":         m.Converged,
		"reseeds":           m.Reseeds,
		"silhouette":        m.Quality.Silhouette,
		"davies_bouldin":    m.Quality.DaviesBouldin,
		"calinski_harabasz": m.Quality.CalinskiHarabasz,
	}).Info("Regimes discovered")

	if !m.Converged {
		e.logger.Warnf("k-means stopped at max iterations (%d)", m.Iterations)
	}
	for i := range m.Regimes {
		r := &m.Regimes[i]
		e.logger.WithFields(map[string]interface{}{
			"id":     r.ID,
			"label":  r.Label,
			"blocks": r.Size(),
		}).Debug("Regime")
	}
}

func (e *Engine) phase(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if e.phases != nil {
		e.phases.RecordBuildPhase(name, d)
	}
	e.logger.WithFields(map[string]interface{}{
		"phase":    name,
		"duration": d.String(),
		"ok":       err == nil,
	}).Debug("Build phase finished")
	return err
}
