package history

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySeries  = errors.New("historical series is empty")
	ErrUnsorted     = errors.New("historical series is not sorted by year")
	ErrGap          = errors.New("historical series has missing years")
	ErrMalformedRow = errors.New("malformed historical observation")
)

// Observation 연간 관측치 (수익률은 소수 표현: 0.10 = 10%)
type Observation struct {
	Year      int     `json:"year"`
	Stocks    float64 `json:"stocks"`
	Bonds     float64 `json:"bonds"`
	Inflation float64 `json:"inflation"`
}

// Series 검증된 연간 시계열
// ⭐ 생성 이후 불변: 정렬, 중복 없음, 누락 연도 없음
type Series struct {
	obs []Observation
}

// NewSeries 관측치를 검증하고 Series 생성
// 입력은 연도 오름차순이어야 하며 count == maxYear - minYear + 1 이어야 함
func NewSeries(obs []Observation) (*Series, error) {
	if len(obs) == 0 {
		return nil, ErrEmptySeries
	}

	for i, o := range obs {
		if err := checkObservation(o); err != nil {
			return nil, fmt.Errorf("row %d (year %d): %w", i, o.Year, err)
		}
		if i > 0 && o.Year <= obs[i-1].Year {
			return nil, fmt.Errorf("%w: year %d follows %d", ErrUnsorted, o.Year, obs[i-1].Year)
		}
	}

	minYear, maxYear := obs[0].Year, obs[len(obs)-1].Year
	if want := maxYear - minYear + 1; len(obs) != want {
		return nil, fmt.Errorf("%w: %d observations for %d..%d (want %d)",
			ErrGap, len(obs), minYear, maxYear, want)
	}

	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return &Series{obs: cp}, nil
}

func checkObservation(o Observation) error {
	for _, v := range []float64{o.Stocks, o.Bonds, o.Inflation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrMalformedRow)
		}
		// -100% 이하의 수익률/물가는 복리 계산이 불가능
		if v <= -1 {
			return fmt.Errorf("%w: value %.4f <= -100%%", ErrMalformedRow, v)
		}
	}
	return nil
}

// Len 관측치 개수
func (s *Series) Len() int { return len(s.obs) }

// At i번째 관측치
func (s *Series) At(i int) Observation { return s.obs[i] }

// MinYear 첫 연도
func (s *Series) MinYear() int { return s.obs[0].Year }

// MaxYear 마지막 연도
func (s *Series) MaxYear() int { return s.obs[len(s.obs)-1].Year }

// Window returns the observations [start, start+length) without copying.
// Callers must treat the result as read-only.
func (s *Series) Window(start, length int) []Observation {
	return s.obs[start : start+length : start+length]
}

// Observations 복사본 반환
func (s *Series) Observations() []Observation {
	cp := make([]Observation, len(s.obs))
	copy(cp, s.obs)
	return cp
}

// Digest 시계열 내용의 SHA256 (모델 캐시 키용)
func (s *Series) Digest() string {
	h := sha256.New()
	var buf [8]byte
	for _, o := range s.obs {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(o.Year)))
		h.Write(buf[:])
		for _, v := range []float64{o.Stocks, o.Bonds, o.Inflation} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
