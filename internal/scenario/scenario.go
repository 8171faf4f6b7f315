package scenario

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidHorizon      = errors.New("horizon must be at least one year")
	ErrIterationOutOfRange = errors.New("iteration out of range")
)

// Unbounded 무작위 소스의 최대 반복 수
const Unbounded = math.MaxInt

// Year 한 해의 (주식, 채권, 물가상승률)
type Year struct {
	Stocks    float64 `json:"stocks"`
	Bonds     float64 `json:"bonds"`
	Inflation float64 `json:"inflation"`
}

// Scenario 반복 1회분 연간 수익률 경로 (len == horizon, 인덱스 = 연도 offset)
type Scenario []Year

// Source 외부 시뮬레이션 루프가 소비하는 시나리오 계약
type Source interface {
	// MaxIterations horizon에 대해 얻을 수 있는 서로 다른 반복 수의 상한
	MaxIterations(years int) int
	// Scenario 반복 i의 길이 years 경로
	Scenario(iteration, years int) (Scenario, error)
}

// Generator Source + 반복별 진단 카운터
type Generator interface {
	Source
	Name() string
	Generate(iteration, years int) (Scenario, Stats, error)
}

// CheckRequest horizon/iteration 공통 검증
func CheckRequest(iteration, years int) error {
	if years < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidHorizon, years)
	}
	if iteration < 0 {
		return fmt.Errorf("%w: %d", ErrIterationOutOfRange, iteration)
	}
	return nil
}
