package regime

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// 기본 k-means 파라미터
const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

// KMeansOptions 군집화 옵션
type KMeansOptions struct {
	K             int
	MaxIterations int     // 0 = DefaultMaxIterations
	Tolerance     float64 // 최대 centroid 이동량 수렴 기준, 0 = DefaultTolerance
}

// KMeansResult 군집화 결과
type KMeansResult struct {
	Centroids   [][]float64 `json:"centroids"`
	Assignments []int       `json:"assignments"`
	Iterations  int         `json:"iterations"`
	Converged   bool        `json:"converged"`
	Reseeds     int         `json:"reseeds"` // 빈 군집 재시드 횟수
}

// KMeans k-means++ 시드 + Lloyd 반복
// 같은 rng 상태에서 같은 결과 (결정적)
func KMeans(points [][]float64, opts KMeansOptions, rng *rand.Rand) (*KMeansResult, error) {
	n := len(points)
	if opts.K < 1 || opts.K > n {
		return nil, fmt.Errorf("%w: k=%d with %d points", ErrInvalidK, opts.K, n)
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	res := &KMeansResult{
		Centroids:   seedPlusPlus(points, opts.K, rng),
		Assignments: make([]int, n),
	}
	for i := range res.Assignments {
		res.Assignments[i] = -1
	}

	for iter := 1; iter <= maxIter; iter++ {
		res.Iterations = iter
		changed := assign(points, res.Centroids, res.Assignments)
		// 빈 군집이 남아 있으면 배정이 그대로여도 수렴 아님
		if !changed && emptyClusters(res.Assignments, opts.K) == 0 {
			res.Converged = true
			break
		}
		shift, reseeds := update(points, res.Centroids, res.Assignments, rng)
		res.Reseeds += reseeds
		if shift < tol && reseeds == 0 {
			res.Converged = true
			break
		}
	}

	// 최종 centroid 기준 재배정
	assign(points, res.Centroids, res.Assignments)
	return res, nil
}

// seedPlusPlus k-means++ 초기 centroid 선택
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	chosen := make([]bool, n)
	centroids := make([][]float64, 0, k)

	first := rng.Intn(n)
	chosen[first] = true
	centroids = append(centroids, clone(points[first]))

	d2 := make([]float64, n)
	for i := range d2 {
		d2[i] = sqDist(points[i], centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for i := range d2 {
			if !chosen[i] {
				total += d2[i]
			}
		}

		next := -1
		if total > 0 {
			r := rng.Float64() * total
			for i := range d2 {
				if chosen[i] {
					continue
				}
				r -= d2[i]
				if r < 0 {
					next = i
					break
				}
			}
		}
		if next < 0 {
			// 남은 점이 모두 기존 centroid와 겹치거나 반올림 오차: 균등 선택
			next = pickUnchosen(chosen, rng)
		}

		chosen[next] = true
		c := clone(points[next])
		centroids = append(centroids, c)
		for i := range d2 {
			if d := sqDist(points[i], c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func pickUnchosen(chosen []bool, rng *rand.Rand) int {
	free := make([]int, 0, len(chosen))
	for i, c := range chosen {
		if !c {
			free = append(free, i)
		}
	}
	return free[rng.Intn(len(free))]
}

// assign 최근접 centroid 배정 (동률이면 낮은 인덱스), 변경 여부 반환
func assign(points, centroids [][]float64, out []int) bool {
	changed := false
	for i, p := range points {
		best := nearest(p, centroids)
		if out[i] != best {
			out[i] = best
			changed = true
		}
	}
	return changed
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func emptyClusters(assignments []int, k int) int {
	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}
	empty := 0
	for _, n := range counts {
		if n == 0 {
			empty++
		}
	}
	return empty
}

// update 멤버 평균으로 centroid 재계산, 빈 군집은 임의 블록으로 재시드
// 반환: 최대 이동량, 재시드 수
func update(points, centroids [][]float64, assignments []int, rng *rand.Rand) (float64, int) {
	k, dim := len(centroids), len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		floats.Add(sums[assignments[i]], p)
		counts[assignments[i]]++
	}

	next := make([][]float64, k)
	for c := range centroids {
		if counts[c] > 0 {
			next[c] = sums[c]
			floats.Scale(1/float64(counts[c]), next[c])
		}
	}
	// 평균을 먼저 확정한 뒤 재시드 (재시드 위치가 다른 centroid와 겹치지 않도록)
	reseeds := 0
	for c := range centroids {
		if counts[c] == 0 {
			next[c] = clone(points[reseedIndex(points, next, rng)])
			reseeds++
		}
	}

	var maxShift float64
	for c := range centroids {
		if shift := floats.Distance(centroids[c], next[c], 2); shift > maxShift {
			maxShift = shift
		}
		centroids[c] = next[c]
	}
	return maxShift, reseeds
}

// reseedIndex 이미 놓인 어떤 centroid와도 겹치지 않는 임의의 블록
// 그런 블록이 없으면 (서로 다른 특성 벡터 수 < K) 아무 블록, 이 경우 군집은 계속 비어 있음
func reseedIndex(points, placed [][]float64, rng *rand.Rand) int {
	free := make([]int, 0, len(points))
	for i, p := range points {
		ok := true
		for _, c := range placed {
			if c != nil && sqDist(p, c) == 0 {
				ok = false
				break
			}
		}
		if ok {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return rng.Intn(len(points))
	}
	return free[rng.Intn(len(free))]
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
