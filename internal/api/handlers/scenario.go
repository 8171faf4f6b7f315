package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/engine"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
	"github.com/wonny/ninthball/pkg/logger"
	"github.com/wonny/ninthball/pkg/redis"
)

// Limits 요청 크기 상한
type Limits struct {
	MaxIterations int
	MaxYears      int
}

// ScenarioHandler handles scenario, regime and catalog endpoints
// ⭐ SSOT: 시나리오 조회 API 핸들러는 이 구조체에서만
type ScenarioHandler struct {
	engine *engine.Engine
	limits Limits
	cache  *redis.Cache
	logger *logger.Logger
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(e *engine.Engine, limits Limits, log *logger.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		engine: e,
		limits: limits,
		logger: log,
	}
}

// WithCache 시나리오/카탈로그 응답 캐시 (nil이면 캐시 없음)
// 키에 스냅샷 fingerprint가 들어가므로 시계열이나 설정이 바뀌면 자동으로 다른 키
func (h *ScenarioHandler) WithCache(c *redis.Cache) *ScenarioHandler {
	h.cache = c
	return h
}

// setCacheHeader X-Cache: hit | miss (캐시 비활성이면 생략)
func (h *ScenarioHandler) setCacheHeader(w http.ResponseWriter, hit bool) {
	if !h.cache.Enabled() {
		return
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}

// ScenarioResponse 반복 1회분 경로
type ScenarioResponse struct {
	Generator string            `json:"generator"`
	Seed      int64             `json:"seed"`
	Iteration int               `json:"iteration"`
	Years     int               `json:"years"`
	Path      scenario.Scenario `json:"path"`
	Stats     scenario.Stats    `json:"stats"`
}

// GetScenario returns one iteration's path
// GET /api/scenarios/{iteration}?years=30&generator=bootstrap
func (h *ScenarioHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	iteration, err := strconv.Atoi(mux.Vars(r)["iteration"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid iteration")
		return
	}

	g, years, ok := h.resolve(w, r)
	if !ok {
		return
	}

	snap, err := h.engine.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	key := fmt.Sprintf("scenario:%s:%s:%d:%d", snap.Fingerprint, g.Name(), iteration, years)
	resp, hit, err := redis.GetOrSet(r.Context(), h.cache, key, redis.TTLShort, func() (ScenarioResponse, error) {
		s, st, err := g.Generate(iteration, years)
		if err != nil {
			return ScenarioResponse{}, err
		}
		return ScenarioResponse{
			Generator: g.Name(),
			Seed:      h.engine.Seed(),
			Iteration: iteration,
			Years:     years,
			Path:      s,
			Stats:     st,
		}, nil
	})
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}

	h.setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, resp)
}

// resolve years/generator 쿼리 → 생성기 (실패 시 응답까지 작성)
func (h *ScenarioHandler) resolve(w http.ResponseWriter, r *http.Request) (scenario.Generator, int, bool) {
	cfg := h.engine.Config()

	years, err := queryInt(r, "years", cfg.Simulation.Years)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	if years < 1 || (h.limits.MaxYears > 0 && years > h.limits.MaxYears) {
		respondError(w, http.StatusBadRequest, "Invalid 'years' (expected 1.."+strconv.Itoa(h.limits.MaxYears)+")")
		return nil, 0, false
	}

	kind, err := queryKind(r, cfg.Kind())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}

	g, err := h.engine.GeneratorFor(r.Context(), kind)
	if err != nil {
		h.logger.WithError(err).WithField("generator", string(kind)).Warn("Generator unavailable")
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return nil, 0, false
	}
	return g, years, true
}

func (h *ScenarioHandler) respondGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scenario.ErrIterationOutOfRange):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scenario.ErrInvalidHorizon):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("Failed to generate scenario")
		respondError(w, http.StatusInternalServerError, "Failed to generate scenario")
	}
}

// RegimeView 국면 요약 (멤버 블록 목록 제외)
type RegimeView struct {
	ID      int             `json:"id"`
	Label   string          `json:"label"`
	Size    int             `json:"size"`
	Profile blocks.Features `json:"profile"`
	Params  dist.Params     `json:"params"`
}

// RegimesResponse 국면 모델 요약
type RegimesResponse struct {
	K          int                `json:"k"`
	Cached     bool               `json:"cached"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
	Reseeds    int                `json:"reseeds"`
	Features   []string           `json:"features"`
	Quality    regime.Quality     `json:"quality"`
	Regimes    []RegimeView       `json:"regimes"`
	Transition *regime.Transition `json:"transition"`
}

// GetRegimes returns the discovered regime model
// GET /api/regimes
func (h *ScenarioHandler) GetRegimes(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	m := snap.Model
	resp := RegimesResponse{
		K:          m.K(),
		Cached:     snap.ModelCached,
		Iterations: m.Iterations,
		Converged:  m.Converged,
		Reseeds:    m.Reseeds,
		Features:   blocks.FeatureNames,
		Quality:    m.Quality,
		Regimes:    make([]RegimeView, m.K()),
		Transition: m.Transition,
	}
	for i := range m.Regimes {
		rg := &m.Regimes[i]
		resp.Regimes[i] = RegimeView{
			ID:      rg.ID,
			Label:   rg.Label,
			Size:    rg.Size(),
			Profile: rg.Profile,
			Params:  rg.Params,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// CatalogBlock 블록 + 극단 분류
type CatalogBlock struct {
	*blocks.Block
	Rank  float64 `json:"score"`
	Class string  `json:"class,omitempty"` // disaster | jackpot
}

// CatalogResponse 블록 카탈로그
type CatalogResponse struct {
	Total      int               `json:"total"`
	ByLength   map[int]int       `json:"by_length"`
	Thresholds blocks.Thresholds `json:"thresholds"`
	Blocks     []CatalogBlock    `json:"blocks"`
}

// GetCatalog returns the block catalog
// GET /api/catalog?length=5
func (h *ScenarioHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	length, err := queryInt(r, "length", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.engine.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	key := fmt.Sprintf("catalog:%s:%d", snap.Fingerprint, length)
	resp, hit, err := redis.GetOrSet(r.Context(), h.cache, key, redis.TTLMedium, func() (CatalogResponse, error) {
		return catalogResponse(snap, length), nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, resp)
}

// catalogResponse length > 0이면 해당 길이 블록만
func catalogResponse(snap *engine.Snapshot, length int) CatalogResponse {
	c := snap.Catalog
	resp := CatalogResponse{
		Total:      c.Len(),
		ByLength:   c.CountByLength(),
		Thresholds: snap.Thresholds,
		Blocks:     make([]CatalogBlock, 0, c.Len()),
	}
	for i := 0; i < c.Len(); i++ {
		b := c.Block(i)
		if length > 0 && b.Length != length {
			continue
		}
		cb := CatalogBlock{Block: b, Rank: b.Score()}
		switch {
		case snap.Thresholds.IsDisaster(b):
			cb.Class = "disaster"
		case snap.Thresholds.IsJackpot(b):
			cb.Class = "jackpot"
		}
		resp.Blocks = append(resp.Blocks, cb)
	}
	return resp
}

// EngineStatus 빌드 단계 결과 요약
type EngineStatus struct {
	Generator   string        `json:"generator"`
	Generators  []string      `json:"generators"`
	Seed        int64         `json:"seed"`
	FirstYear   int           `json:"first_year"`
	LastYear    int           `json:"last_year"`
	Blocks      int           `json:"blocks"`
	Regimes     int           `json:"regimes"`
	ModelCached bool          `json:"model_cached"`
	BuiltAt     time.Time     `json:"built_at"`
	BuildTime   time.Duration `json:"build_time"`
}

// GetEngine returns the engine build status
// GET /api/engine
func (h *ScenarioHandler) GetEngine(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	kinds := generator.Kinds()
	status := EngineStatus{
		Generator:   h.engine.Config().Generator,
		Generators:  make([]string, 0, len(kinds)),
		Seed:        h.engine.Seed(),
		FirstYear:   snap.Series.MinYear(),
		LastYear:    snap.Series.MaxYear(),
		Blocks:      snap.Catalog.Len(),
		Regimes:     snap.Model.K(),
		ModelCached: snap.ModelCached,
		BuiltAt:     snap.BuiltAt,
		BuildTime:   snap.Duration,
	}
	for _, k := range kinds {
		status.Generators = append(status.Generators, string(k))
	}

	respondJSON(w, http.StatusOK, status)
}
