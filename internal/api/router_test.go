package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/wonny/ninthball/internal/api/handlers"
	"github.com/wonny/ninthball/internal/engine"
	"github.com/wonny/ninthball/internal/generator"
	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/scheduler"
	"github.com/wonny/ninthball/internal/simconfig"
	"github.com/wonny/ninthball/internal/simulation"
	"github.com/wonny/ninthball/pkg/config"
	"github.com/wonny/ninthball/pkg/logger"
	"github.com/wonny/ninthball/pkg/metrics"
	"github.com/wonny/ninthball/pkg/redis"
)

type seriesLoader struct{ series *history.Series }

func (l seriesLoader) Load(context.Context) (*history.Series, error) { return l.series, nil }

// testSeries 60년 합성 시계열 (1950..2009)
func testSeries(t *testing.T) *history.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(5))
	obs := make([]history.Observation, 60)
	for i := range obs {
		obs[i] = history.Observation{
			Year:      1950 + i,
			Stocks:    0.08 + 0.2*(rng.Float64()-0.5),
			Bonds:     0.04 + 0.08*(rng.Float64()-0.5),
			Inflation: 0.03 + 0.04*(rng.Float64()-0.5),
		}
	}
	s, err := history.NewSeries(obs)
	require.NoError(t, err)
	return s
}

type testServer struct {
	handler  http.Handler
	engine   *engine.Engine
	rec      *metrics.Recorder
	health   *handlers.HealthHandler
	scenario *handlers.ScenarioHandler
}

func newTestServer(t *testing.T, limiter *rate.Limiter, shared *redis.RateLimiter) *testServer {
	t.Helper()
	log := logger.Nop()

	cfg := simconfig.Default()
	cfg.Seed = 42
	cfg.Generator = string(generator.KindBootstrap)
	cfg.Regimes.Count = 3
	cfg.Simulation.Iterations = 200
	cfg.Simulation.Years = 20
	cfg.Simulation.Workers = 2

	rec := metrics.New()
	e := engine.New(cfg, seriesLoader{series: testSeries(t)}, log,
		engine.WithObservers(rec), engine.WithPhaseRecorder(rec))
	_, err := e.Snapshot(context.Background())
	require.NoError(t, err)

	limits := handlers.Limits{MaxIterations: 1000, MaxYears: 100}
	h := Handlers{
		Health:   handlers.NewHealthHandler(e, nil),
		Scenario: handlers.NewScenarioHandler(e, limits, log),
		Simulation: handlers.NewSimulationHandler(e, simulation.NewRunner(log, rec), limits,
			limiter, shared, redis.SimulationRateLimit(1, 3), log),
	}
	return &testServer{
		handler:  NewRouter(h, rec, log),
		engine:   e,
		rec:      rec,
		health:   h.Health,
		scenario: h.Scenario,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ninthball-api", body["service"])
}

func TestGetEngine(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, "GET", "/api/engine", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status handlers.EngineStatus
	decode(t, w, &status)
	assert.Equal(t, "bootstrap", status.Generator)
	assert.Equal(t, int64(42), status.Seed)
	assert.Equal(t, 1950, status.FirstYear)
	assert.Equal(t, 2009, status.LastYear)
	assert.Equal(t, 3, status.Regimes)
	assert.Greater(t, status.Blocks, 0)
	assert.Len(t, status.Generators, len(generator.Kinds()))
}

func TestGetScenario(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, "GET", "/api/scenarios/3?years=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var first handlers.ScenarioResponse
	decode(t, w, &first)
	assert.Equal(t, "bootstrap", first.Generator)
	assert.Equal(t, 3, first.Iteration)
	assert.Equal(t, 10, first.Years)
	assert.Len(t, first.Path, 10)
	assert.Greater(t, first.Stats.Samples, 0)

	// 같은 (seed, iteration) → 같은 경로
	var again handlers.ScenarioResponse
	decode(t, s.do(t, "GET", "/api/scenarios/3?years=10", ""), &again)
	assert.Equal(t, first.Path, again.Path)

	t.Run("every generator", func(t *testing.T) {
		for _, k := range generator.Kinds() {
			w := s.do(t, "GET", "/api/scenarios/0?years=5&generator="+string(k), "")
			assert.Equal(t, http.StatusOK, w.Code, string(k))
		}
	})

	t.Run("historical out of range", func(t *testing.T) {
		w := s.do(t, "GET", "/api/scenarios/51?years=10&generator=historical", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(t, "GET", "/api/scenarios/50?years=10&generator=historical", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad requests", func(t *testing.T) {
		for _, target := range []string{
			"/api/scenarios/1?generator=nope",
			"/api/scenarios/1?years=0",
			"/api/scenarios/1?years=abc",
			"/api/scenarios/1?years=500",
		} {
			assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", target, "").Code, target)
		}
		assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/scenarios/-1", "").Code)
	})
}

func TestGetRegimes(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, "GET", "/api/regimes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.RegimesResponse
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.K)
	assert.Len(t, resp.Regimes, 3)
	require.NotNil(t, resp.Transition)
	assert.Len(t, resp.Transition.Empirical, 3)

	total := 0
	for _, r := range resp.Regimes {
		assert.NotEmpty(t, r.Label)
		total += r.Size
	}
	snap, err := s.engine.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Catalog.Len(), total)
}

func TestGetCatalog(t *testing.T) {
	s := newTestServer(t, nil, nil)

	var all handlers.CatalogResponse
	decode(t, s.do(t, "GET", "/api/catalog", ""), &all)
	assert.Equal(t, all.Total, len(all.Blocks))
	assert.Equal(t, map[int]int{3: 58, 4: 57, 5: 56}, all.ByLength)

	disasters, jackpots := 0, 0
	for _, b := range all.Blocks {
		switch b.Class {
		case "disaster":
			disasters++
			assert.LessOrEqual(t, b.Rank, all.Thresholds.Disaster)
		case "jackpot":
			jackpots++
			assert.GreaterOrEqual(t, b.Rank, all.Thresholds.Jackpot)
		}
	}
	assert.Greater(t, disasters, 0)
	assert.Greater(t, jackpots, 0)

	var five handlers.CatalogResponse
	decode(t, s.do(t, "GET", "/api/catalog?length=5", ""), &five)
	assert.Len(t, five.Blocks, 56)
	for _, b := range five.Blocks {
		assert.Equal(t, 5, b.Length)
	}

	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/api/catalog?length=x", "").Code)
}

func TestRunSimulation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := s.do(t, "POST", "/api/simulations", `{"iterations": 100, "years": 10, "stocks_allocation": 0.5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res simulation.Result
	decode(t, w, &res)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "bootstrap", res.Generator)
	assert.Equal(t, 100, res.Iterations)
	assert.Equal(t, 0.5, res.Config.StocksAllocation)
	assert.False(t, res.Truncated)

	t.Run("defaults from config", func(t *testing.T) {
		var res simulation.Result
		decode(t, s.do(t, "POST", "/api/simulations", `{}`), &res)
		assert.Equal(t, 200, res.Iterations)
		assert.Equal(t, 20, res.Config.Years)
	})

	t.Run("historical truncates", func(t *testing.T) {
		var res simulation.Result
		decode(t, s.do(t, "POST", "/api/simulations", `{"generator": "historical", "iterations": 500, "years": 30}`), &res)
		assert.True(t, res.Truncated)
		assert.Equal(t, 31, res.Iterations)

		w := s.do(t, "POST", "/api/simulations", `{"generator": "historical", "iterations": 5, "years": 90}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad requests", func(t *testing.T) {
		for _, body := range []string{
			`not json`,
			`{"iterations": 5000}`,
			`{"years": 101}`,
			`{"stocks_allocation": 1.5}`,
			`{"generator": "nope"}`,
		} {
			assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/api/simulations", body).Code, body)
		}
	})
}

func TestRunSimulation_RateLimit(t *testing.T) {
	t.Run("process limiter", func(t *testing.T) {
		s := newTestServer(t, rate.NewLimiter(rate.Every(time.Hour), 1), nil)

		assert.Equal(t, http.StatusOK, s.do(t, "POST", "/api/simulations", `{"iterations": 10}`).Code)
		w := s.do(t, "POST", "/api/simulations", `{"iterations": 10}`)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("shared limiter without redis allows", func(t *testing.T) {
		client, err := redis.New(context.Background(), config.RedisConfig{}, "ninthball")
		require.NoError(t, err)
		s := newTestServer(t, nil, redis.NewRateLimiter(client))

		for i := 0; i < 5; i++ {
			w := s.do(t, "POST", "/api/simulations", `{"iterations": 10}`)
			assert.Equal(t, http.StatusOK, w.Code)
			// Redis 비활성: 항상 허용, 남은 횟수 = 분당 한도
			assert.Equal(t, "60", w.Header().Get("X-RateLimit-Remaining"))
		}
	})
}

func TestResponseCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	cache := redis.NewCache(redis.NewWithClient(db, "ninthball"), nil)

	t.Run("scenario miss then hit", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		s.scenario.WithCache(cache)
		key := `^ninthball:cache:scenario:[0-9a-f]{32}:bootstrap:7:5$`

		mock.Regexp().ExpectGet(key).RedisNil()
		mock.Regexp().ExpectSet(key, `.*`, redis.TTLShort).SetVal("OK")
		miss := s.do(t, "GET", "/api/scenarios/7?years=5", "")
		require.Equal(t, http.StatusOK, miss.Code)
		assert.Equal(t, "miss", miss.Header().Get("X-Cache"))
		require.NoError(t, mock.ExpectationsWereMet())

		mock.Regexp().ExpectGet(key).SetVal(miss.Body.String())
		hit := s.do(t, "GET", "/api/scenarios/7?years=5", "")
		require.Equal(t, http.StatusOK, hit.Code)
		assert.Equal(t, "hit", hit.Header().Get("X-Cache"))
		assert.JSONEq(t, miss.Body.String(), hit.Body.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("catalog keyed by length", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		s.scenario.WithCache(cache)

		mock.Regexp().ExpectGet(`^ninthball:cache:catalog:[0-9a-f]{32}:3$`).RedisNil()
		mock.Regexp().ExpectSet(`^ninthball:cache:catalog:[0-9a-f]{32}:3$`, `.*`, redis.TTLMedium).SetVal("OK")
		w := s.do(t, "GET", "/api/catalog?length=3", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "miss", w.Header().Get("X-Cache"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis down serves fresh response", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		s.scenario.WithCache(cache)

		mock.Regexp().ExpectGet(`^ninthball:cache:scenario:`).SetErr(errors.New("i/o timeout"))
		mock.Regexp().ExpectSet(`^ninthball:cache:scenario:`, `.*`, redis.TTLShort).SetErr(errors.New("i/o timeout"))
		w := s.do(t, "GET", "/api/scenarios/1?years=5", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp handlers.ScenarioResponse
		decode(t, w, &resp)
		assert.Len(t, resp.Path, 5)
	})

	t.Run("disabled cache omits header", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		w := s.do(t, "GET", "/api/scenarios/1?years=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	})
}

func TestHealth_Redis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()
	s := newTestServer(t, nil, nil)
	s.health.WithRedis(redis.NewWithClient(db, "ninthball"))

	mock.ExpectPing().SetVal("PONG")
	var body map[string]interface{}
	decode(t, s.do(t, "GET", "/health", ""), &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "healthy", body["redis"])

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	w := s.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["redis"])
}

func TestStreamScenarios(t *testing.T) {
	s := newTestServer(t, nil, nil)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	dial := func(query string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/scenarios/stream?" + query
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}

	t.Run("bootstrap", func(t *testing.T) {
		conn := dial("from=10&count=5&years=8")
		defer conn.Close()

		for i := 0; i < 5; i++ {
			var msg handlers.ScenarioResponse
			require.NoError(t, conn.ReadJSON(&msg))
			assert.Equal(t, 10+i, msg.Iteration)
			assert.Len(t, msg.Path, 8)
		}
		var end handlers.StreamEnd
		require.NoError(t, conn.ReadJSON(&end))
		assert.True(t, end.Done)
		assert.Equal(t, 5, end.Sent)
		assert.False(t, end.Truncated)
	})

	t.Run("historical truncated", func(t *testing.T) {
		conn := dial("from=48&count=10&years=10&generator=historical")
		defer conn.Close()

		for i := 0; i < 3; i++ {
			var msg handlers.ScenarioResponse
			require.NoError(t, conn.ReadJSON(&msg))
			assert.Equal(t, 48+i, msg.Iteration)
		}
		var end handlers.StreamEnd
		require.NoError(t, conn.ReadJSON(&end))
		assert.Equal(t, 3, end.Sent)
		assert.True(t, end.Truncated)
	})

	t.Run("from near max int", func(t *testing.T) {
		conn := dial(fmt.Sprintf("from=%d&count=5&years=3", math.MaxInt-2))
		defer conn.Close()

		for i := 0; i < 2; i++ {
			var msg handlers.ScenarioResponse
			require.NoError(t, conn.ReadJSON(&msg))
			assert.Equal(t, math.MaxInt-2+i, msg.Iteration)
			assert.Len(t, msg.Path, 3)
		}
		var end handlers.StreamEnd
		require.NoError(t, conn.ReadJSON(&end))
		assert.Equal(t, 2, end.Sent)
		assert.True(t, end.Truncated)
	})

	t.Run("bad count", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/scenarios/stream?count=0")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/regimes", "").Code)
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/api/scenarios/7?years=5", "").Code)

	w := s.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `ninthball_http_requests_total{method="GET",route="/api/regimes",status="200"} 1`)
	assert.Contains(t, body, `ninthball_http_requests_total{method="GET",route="/api/scenarios/{iteration:[0-9]+}",status="200"} 1`)
	assert.Contains(t, body, `ninthball_scenarios_total{generator="bootstrap"} 1`)
	assert.Contains(t, body, `ninthball_build_phase_duration_seconds_count{phase="regimes"} 1`)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
	r.Use(recoveryMiddleware(logger.Nop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestServerRun(t *testing.T) {
	srv := New(&config.Config{Port: "0"}, logger.Nop(), http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

type stubJob struct {
	name string
	err  error
}

func (j stubJob) Name() string                  { return j.name }
func (j stubJob) Schedule() string              { return "@daily" }
func (j stubJob) Run(ctx context.Context) error { return j.err }

func TestJobsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, nil)
	log := logger.Nop()

	sched := scheduler.New(log, scheduler.WithRetry(0, time.Millisecond))
	require.NoError(t, sched.AddJob(stubJob{name: "history_check", err: errors.New("history changed")}))
	require.NoError(t, sched.AddJob(stubJob{name: "model_refresh"}))
	require.NoError(t, sched.RunJob("history_check"))
	require.NoError(t, sched.RunJob("model_refresh"))
	sched.Wait()

	limits := handlers.Limits{MaxIterations: 1000, MaxYears: 100}
	router := NewRouter(Handlers{
		Health:     handlers.NewHealthHandler(s.engine, nil).WithJobs(sched),
		Scenario:   handlers.NewScenarioHandler(s.engine, limits, log),
		Simulation: handlers.NewSimulationHandler(s.engine, simulation.NewRunner(log, nil), limits, nil, nil, redis.RateLimitConfig{}, log),
		Jobs:       handlers.NewJobHandler(sched),
	}, nil, log)
	js := &testServer{handler: router, engine: s.engine}

	w := js.do(t, "GET", "/api/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var jobs handlers.JobsResponse
	decode(t, w, &jobs)
	require.Len(t, jobs.Jobs, 2)
	assert.Equal(t, "history_check", jobs.Jobs[0].JobName)
	assert.Equal(t, "history changed", jobs.Jobs[0].LastError)
	assert.Equal(t, 1, jobs.Jobs[1].SuccessCount)
	assert.Equal(t, []string{"history_check"}, jobs.Failing)

	w = js.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, []interface{}{"history_check"}, health["failing_jobs"])

	// Jobs 핸들러 없으면 라우트 없음
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/jobs", "").Code)
}
