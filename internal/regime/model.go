package regime

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/dist"
)

var (
	ErrInvalidK      = errors.New("invalid regime count")
	ErrEmptyRegime   = errors.New("clustering produced an empty regime")
	ErrPartition     = errors.New("regime groups do not partition the catalog")
	ErrNotStochastic = errors.New("transition row is not a probability distribution")
)

// Regime 발견된 시장 국면
type Regime struct {
	ID       int             `json:"id"`
	Label    string          `json:"label"`
	Centroid []float64       `json:"centroid"` // 표준화 공간
	Profile  blocks.Features `json:"profile"`  // 멤버 특성 평균 (원 단위)
	Blocks   []int           `json:"blocks"`   // 멤버 블록 인덱스 (카탈로그 순)
	Params   dist.Params     `json:"params"`
}

// Size 멤버 블록 수
func (r *Regime) Size() int { return len(r.Blocks) }

// Options 국면 발견 옵션
type Options struct {
	K             int     `json:"k"`
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
	Seed          int64   `json:"seed"`
}

// Model 국면 발견 결과 스냅샷
// ⭐ 생성 후 불변, 모든 반복이 참조로 공유
type Model struct {
	Options      Options      `json:"options"`
	Standardizer Standardizer `json:"standardizer"`
	Regimes      []Regime     `json:"regimes"`
	Assignments  []int        `json:"assignments"`
	Transition   *Transition  `json:"transition"`
	Quality      Quality      `json:"quality"`
	Iterations   int          `json:"iterations"`
	Converged    bool         `json:"converged"`
	Reseeds      int          `json:"reseeds"`
}

// K 국면 수
func (m *Model) K() int { return len(m.Regimes) }

// Discover 특성 표준화 → k-means → 국면 적합 → 전이 모델
func Discover(c *blocks.Catalog, opts Options) (*Model, error) {
	if opts.K < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, opts.K)
	}

	raw := c.Vectors()
	scaler := FitStandardizer(raw)
	points := scaler.TransformAll(raw)

	rng := rand.New(rand.NewSource(opts.Seed))
	km, err := KMeans(points, KMeansOptions{
		K:             opts.K,
		MaxIterations: opts.MaxIterations,
		Tolerance:     opts.Tolerance,
	}, rng)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Options:      opts,
		Standardizer: scaler,
		Regimes:      make([]Regime, opts.K),
		Assignments:  km.Assignments,
		Quality:      Evaluate(points, km.Centroids, km.Assignments),
		Iterations:   km.Iterations,
		Converged:    km.Converged,
		Reseeds:      km.Reseeds,
	}

	for i, r := range km.Assignments {
		m.Regimes[r].Blocks = append(m.Regimes[r].Blocks, i)
	}
	for id := range m.Regimes {
		r := &m.Regimes[id]
		r.ID = id
		r.Centroid = km.Centroids[id]
		if len(r.Blocks) == 0 {
			return nil, fmt.Errorf("%w: regime %d of %d", ErrEmptyRegime, id, opts.K)
		}

		members := make([]*blocks.Block, len(r.Blocks))
		for j, idx := range r.Blocks {
			members[j] = c.Block(idx)
		}
		r.Profile = meanFeatures(members)
		r.Params = FitParams(members)
	}
	assignLabels(m.Regimes)

	m.Transition, err = EstimateTransition(c, m.Assignments, opts.K)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(c); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate 불변식 검사: 국면 그룹이 카탈로그를 정확히 한 번씩 덮는지, 전이 행이 확률분포인지
// 캐시에서 복원한 모델도 이 검사를 통과해야 사용 가능
func (m *Model) Validate(c *blocks.Catalog) error {
	if len(m.Assignments) != c.Len() {
		return fmt.Errorf("%w: %d assignments for %d blocks", ErrPartition, len(m.Assignments), c.Len())
	}

	seen := make([]bool, c.Len())
	total := 0
	for id := range m.Regimes {
		r := &m.Regimes[id]
		if r.ID != id {
			return fmt.Errorf("%w: regime at %d has id %d", ErrPartition, id, r.ID)
		}
		if len(r.Blocks) == 0 {
			return fmt.Errorf("%w: regime %d", ErrEmptyRegime, id)
		}
		for _, idx := range r.Blocks {
			if idx < 0 || idx >= c.Len() || seen[idx] {
				return fmt.Errorf("%w: block %d", ErrPartition, idx)
			}
			if m.Assignments[idx] != id {
				return fmt.Errorf("%w: block %d listed in regime %d but assigned %d", ErrPartition, idx, id, m.Assignments[idx])
			}
			seen[idx] = true
			total++
		}
	}
	if total != c.Len() {
		return fmt.Errorf("%w: grouped %d of %d blocks", ErrPartition, total, c.Len())
	}

	if m.Transition == nil {
		return fmt.Errorf("%w: missing transition model", ErrNotStochastic)
	}
	if len(m.Transition.Empirical) != m.K() || len(m.Transition.Unconditional) != m.K() {
		return fmt.Errorf("%w: transition size does not match %d regimes", ErrNotStochastic, m.K())
	}
	return m.Transition.Validate()
}

func meanFeatures(members []*blocks.Block) blocks.Features {
	var sum [8]float64
	for _, b := range members {
		for j, v := range b.Features.Vector() {
			sum[j] += v
		}
	}
	n := float64(len(members))
	return blocks.Features{
		StocksCAGR:        sum[0] / n,
		StocksRealCAGR:    sum[1] / n,
		BondsCAGR:         sum[2] / n,
		BondsRealCAGR:     sum[3] / n,
		StocksMaxDrawdown: sum[4] / n,
		BondsMaxDrawdown:  sum[5] / n,
		InflationCAGR:     sum[6] / n,
		BlendRealCAGR:     sum[7] / n,
	}
}
