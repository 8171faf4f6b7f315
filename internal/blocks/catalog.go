package blocks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/ninthball/internal/history"
)

var (
	ErrEmptySeries   = errors.New("cannot extract blocks from an empty series")
	ErrInvalidLength = errors.New("invalid block length")
	ErrNoBlocks      = errors.New("no block length fits the series")
)

// Catalog 전체 블록 목록 (시작 연도 → 길이 순)
// ⭐ 한 번 생성 후 불변, 모든 반복(iteration)이 참조로 공유
type Catalog struct {
	blocks  []Block
	lengths []int
	all     []int
	byStart map[int][]int
}

// Extract 모든 후보 길이 × 모든 시작 offset에 대해 블록 생성
// 겹치는 구간 허용 (의도된 동작)
func Extract(series *history.Series, lengths []int) (*Catalog, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	if len(lengths) == 0 {
		return nil, fmt.Errorf("%w: no lengths given", ErrInvalidLength)
	}

	uniq := make([]int, 0, len(lengths))
	seen := make(map[int]bool, len(lengths))
	for _, l := range lengths {
		if l <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidLength, l)
		}
		if !seen[l] {
			seen[l] = true
			uniq = append(uniq, l)
		}
	}
	sort.Ints(uniq)

	c := &Catalog{
		lengths: uniq,
		byStart: make(map[int][]int),
	}

	n := series.Len()
	for start := 0; start < n; start++ {
		for _, l := range uniq {
			if start+l > n {
				continue
			}
			years := series.Window(start, l)
			idx := len(c.blocks)
			c.blocks = append(c.blocks, Block{
				Index:     idx,
				Start:     start,
				Length:    l,
				FirstYear: years[0].Year,
				LastYear:  years[l-1].Year,
				Years:     years,
				Features:  ComputeFeatures(years),
			})
			c.all = append(c.all, idx)
			c.byStart[start] = append(c.byStart[start], idx)
		}
	}

	if len(c.blocks) == 0 {
		return nil, fmt.Errorf("%w: series has %d years, lengths %v", ErrNoBlocks, n, uniq)
	}
	return c, nil
}

// Len 블록 개수
func (c *Catalog) Len() int { return len(c.blocks) }

// Block i번째 블록 (공유 포인터, 읽기 전용)
func (c *Catalog) Block(i int) *Block { return &c.blocks[i] }

// Lengths 정렬된 후보 길이
func (c *Catalog) Lengths() []int {
	cp := make([]int, len(c.lengths))
	copy(cp, c.lengths)
	return cp
}

// All 전체 블록 인덱스 (샘플링 그룹으로 사용, 읽기 전용)
func (c *Catalog) All() []int { return c.all }

// StartingAt 시계열 offset에서 시작하는 블록 인덱스
func (c *Catalog) StartingAt(start int) []int { return c.byStart[start] }

// CountByLength 길이별 블록 수
func (c *Catalog) CountByLength() map[int]int {
	counts := make(map[int]int, len(c.lengths))
	for i := range c.blocks {
		counts[c.blocks[i].Length]++
	}
	return counts
}

// Vectors 블록별 특성 벡터 (카탈로그 순서)
func (c *Catalog) Vectors() [][]float64 {
	out := make([][]float64, len(c.blocks))
	for i := range c.blocks {
		out[i] = c.blocks[i].Features.Vector()
	}
	return out
}

// Scores 블록별 랭킹 점수 (카탈로그 순서)
func (c *Catalog) Scores() []float64 {
	out := make([]float64, len(c.blocks))
	for i := range c.blocks {
		out[i] = c.blocks[i].Score()
	}
	return out
}
