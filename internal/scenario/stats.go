package scenario

import "sync"

// Stats 반복 1회 생성 과정의 진단 카운터
// ⭐ 전역 카운터 없음: 생성 결과와 함께 반환, 집계는 호출자 소유
type Stats struct {
	Samples        int `json:"samples"`         // 뽑은 블록 수 (또는 합성 연도 수)
	Overlaps       int `json:"overlaps"`        // 직전 블록과 겹친 추출 수
	Resamples      int `json:"resamples"`       // 극단 쌍으로 거절 후 재추출
	Fallbacks      int `json:"fallbacks"`       // 재추출 한도 초과로 강제 수락
	RegimeSwitches int `json:"regime_switches"` // 국면 전이 중 다른 국면으로 바뀐 횟수
	Clamps         int `json:"clamps"`          // 하드 클램프 적용 횟수
}

// Add 누적
func (s *Stats) Add(o Stats) {
	s.Samples += o.Samples
	s.Overlaps += o.Overlaps
	s.Resamples += o.Resamples
	s.Fallbacks += o.Fallbacks
	s.RegimeSwitches += o.RegimeSwitches
	s.Clamps += o.Clamps
}

// Observer 생성 결과 관찰자 (메트릭 등). 여러 고루틴에서 동시에 호출됨
type Observer interface {
	Observe(generator string, s Stats)
}

// Aggregator 스레드 안전 Stats 누적기
type Aggregator struct {
	mu    sync.Mutex
	total Stats
	runs  int
}

// Observe Observer 구현
func (a *Aggregator) Observe(_ string, s Stats) {
	a.mu.Lock()
	a.total.Add(s)
	a.runs++
	a.mu.Unlock()
}

// Total 누적 결과와 관찰 횟수
func (a *Aggregator) Total() (Stats, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total, a.runs
}

// observed Generator에 Observer를 붙인 래퍼
type observed struct {
	Generator
	observers []Observer
}

// Observe Generate/Scenario 호출마다 Stats를 observers에 전달하는 Generator 반환
func Observe(g Generator, observers ...Observer) Generator {
	if len(observers) == 0 {
		return g
	}
	return &observed{Generator: g, observers: observers}
}

func (o *observed) Generate(iteration, years int) (Scenario, Stats, error) {
	s, st, err := o.Generator.Generate(iteration, years)
	if err == nil {
		for _, obs := range o.observers {
			obs.Observe(o.Name(), st)
		}
	}
	return s, st, err
}

func (o *observed) Scenario(iteration, years int) (Scenario, error) {
	s, _, err := o.Generate(iteration, years)
	return s, err
}
