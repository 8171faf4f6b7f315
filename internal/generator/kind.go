package generator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/ninthball/internal/blocks"
	"github.com/wonny/ninthball/internal/bootstrap"
	"github.com/wonny/ninthball/internal/dist"
	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/parametric"
	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/internal/scenario"
)

var (
	ErrUnknownKind  = errors.New("unknown generator kind")
	ErrMissingInput = errors.New("generator input missing")
)

// Kind 시나리오 생성기 종류 (설정의 generator 값)
type Kind string

const (
	KindHistorical       Kind = "historical"
	KindBootstrap        Kind = "bootstrap"
	KindRegimeBootstrap  Kind = "regime_bootstrap"
	KindParametric       Kind = "parametric"
	KindRegimeParametric Kind = "regime_parametric"
)

// Inputs 빌드 단계에서 만들어진 공유 불변 상태
type Inputs struct {
	Series     *history.Series
	Catalog    *blocks.Catalog
	Thresholds blocks.Thresholds
	Model      *regime.Model
}

// Options 생성기 설정
type Options struct {
	Seed              int64
	BlockLengths      []int // regime_parametric의 구간 길이 후보
	AvoidExtremePairs bool
	MaxRedraws        int
	Awareness         float64
	Params            dist.Params
}

// Factory Kind별 생성 함수
type Factory func(in Inputs, opts Options) (scenario.Generator, error)

// registry ⭐ 시작 시 고정, 이후 읽기 전용
var registry = map[Kind]Factory{
	KindHistorical:       newHistorical,
	KindBootstrap:        newBootstrap,
	KindRegimeBootstrap:  newRegimeBootstrap,
	KindParametric:       newParametric,
	KindRegimeParametric: newRegimeParametric,
}

// ParseKind 문자열 → Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !Valid(k) {
		return "", fmt.Errorf("%w: %q (want one of %v)", ErrUnknownKind, s, Kinds())
	}
	return k, nil
}

// Valid 등록된 Kind인지
func Valid(k Kind) bool {
	_, ok := registry[k]
	return ok
}

// Kinds 등록된 Kind 목록 (정렬)
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NeedsModel 국면 모델이 필요한 Kind인지
func (k Kind) NeedsModel() bool {
	return k == KindRegimeBootstrap || k == KindRegimeParametric
}

// New Kind에 맞는 생성기 생성
func New(kind Kind, in Inputs, opts Options) (scenario.Generator, error) {
	f, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	g, err := f(in, opts)
	if err != nil {
		return nil, fmt.Errorf("%s generator: %w", kind, err)
	}
	return g, nil
}

func newHistorical(in Inputs, _ Options) (scenario.Generator, error) {
	if in.Series == nil {
		return nil, fmt.Errorf("%w: series", ErrMissingInput)
	}
	return NewHistorical(in.Series), nil
}

func bootstrapConfig(opts Options) bootstrap.Config {
	return bootstrap.Config{
		Seed:              opts.Seed,
		AvoidExtremePairs: opts.AvoidExtremePairs,
		MaxRedraws:        opts.MaxRedraws,
		Awareness:         opts.Awareness,
	}
}

func newBootstrap(in Inputs, opts Options) (scenario.Generator, error) {
	if in.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", ErrMissingInput)
	}
	return bootstrap.NewMovingBlock(in.Catalog, in.Thresholds, bootstrapConfig(opts))
}

func newRegimeBootstrap(in Inputs, opts Options) (scenario.Generator, error) {
	if in.Catalog == nil || in.Model == nil {
		return nil, fmt.Errorf("%w: catalog and regime model", ErrMissingInput)
	}
	return bootstrap.NewRegimeMovingBlock(in.Catalog, in.Thresholds, in.Model, bootstrapConfig(opts))
}

func newParametric(_ Inputs, opts Options) (scenario.Generator, error) {
	return parametric.New(opts.Params, opts.Seed)
}

func newRegimeParametric(in Inputs, opts Options) (scenario.Generator, error) {
	if in.Model == nil {
		return nil, fmt.Errorf("%w: regime model", ErrMissingInput)
	}
	return parametric.NewRegimeParametric(in.Model, opts.BlockLengths, opts.Awareness, opts.Seed)
}
