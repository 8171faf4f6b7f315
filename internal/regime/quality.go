package regime

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Quality 군집 품질 지표 (보고/검증용, 샘플링에는 사용하지 않음)
// 정의되지 않는 경우(K=1 등)는 0
type Quality struct {
	Inertia          float64   `json:"inertia"`
	ClusterInertia   []float64 `json:"cluster_inertia"`
	DaviesBouldin    float64   `json:"davies_bouldin"`    // 낮을수록 좋음
	CalinskiHarabasz float64   `json:"calinski_harabasz"` // 높을수록 좋음
	Dunn             float64   `json:"dunn"`              // 높을수록 좋음
	Silhouette       float64   `json:"silhouette"`        // [-1, 1]
}

// Evaluate 표준화 공간에서 품질 지표 계산
func Evaluate(points, centroids [][]float64, assignments []int) Quality {
	k, n := len(centroids), len(points)
	q := Quality{ClusterInertia: make([]float64, k)}
	if n == 0 || k == 0 {
		return q
	}

	counts := make([]int, k)
	scatter := make([]float64, k)
	for i, p := range points {
		c := assignments[i]
		d := floats.Distance(p, centroids[c], 2)
		q.ClusterInertia[c] += d * d
		scatter[c] += d
		counts[c]++
	}
	for c := range scatter {
		q.Inertia += q.ClusterInertia[c]
		if counts[c] > 0 {
			scatter[c] /= float64(counts[c])
		}
	}

	if k < 2 {
		return q
	}

	q.DaviesBouldin = daviesBouldin(centroids, scatter)
	q.CalinskiHarabasz = calinskiHarabasz(points, centroids, counts, q.Inertia)

	dist := pairwise(points)
	q.Dunn = dunn(dist, assignments)
	q.Silhouette = silhouette(dist, assignments, k)
	return q
}

// daviesBouldin 군집별 max_j (s_i+s_j)/d(c_i,c_j)의 평균
func daviesBouldin(centroids [][]float64, scatter []float64) float64 {
	k := len(centroids)
	var sum float64
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			d := floats.Distance(centroids[i], centroids[j], 2)
			if d == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / d; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	return sum / float64(k)
}

// calinskiHarabasz (betweenSS/(K-1)) / (withinSS/(N-K))
func calinskiHarabasz(points, centroids [][]float64, counts []int, withinSS float64) float64 {
	n, k := len(points), len(centroids)
	if n <= k || withinSS == 0 {
		return 0
	}

	overall := make([]float64, len(points[0]))
	for _, p := range points {
		floats.Add(overall, p)
	}
	floats.Scale(1/float64(n), overall)

	var between float64
	for c, centroid := range centroids {
		d := floats.Distance(centroid, overall, 2)
		between += float64(counts[c]) * d * d
	}
	return (between / float64(k-1)) / (withinSS / float64(n-k))
}

// dunn 최소 군집간 점 거리 / 최대 군집내 점 거리
func dunn(dist [][]float64, assignments []int) float64 {
	minInter, maxIntra := math.Inf(1), 0.0
	for i := range dist {
		for j := i + 1; j < len(dist); j++ {
			d := dist[i][j]
			if assignments[i] == assignments[j] {
				if d > maxIntra {
					maxIntra = d
				}
			} else if d < minInter {
				minInter = d
			}
		}
	}
	if maxIntra == 0 || math.IsInf(minInter, 1) {
		return 0
	}
	return minInter / maxIntra
}

// silhouette 점별 (b-a)/max(a,b)의 평균, 단독 군집의 점은 0
func silhouette(dist [][]float64, assignments []int, k int) float64 {
	n := len(dist)
	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	var total float64
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i != j {
				sums[assignments[j]] += dist[i][j]
			}
		}

		own := assignments[i]
		if counts[own] <= 1 {
			continue
		}
		a := sums[own] / float64(counts[own]-1)

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := sums[c] / float64(counts[c]); m < b {
				b = m
			}
		}
		if math.IsInf(b, 1) {
			continue
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

func pairwise(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j], dist[j][i] = d, d
		}
	}
	return dist
}
