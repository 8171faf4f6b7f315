package engine

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ninthball/internal/history"
	"github.com/wonny/ninthball/internal/simconfig"
)

// ErrMissingDependency 소스에 필요한 외부 자원 없음
var ErrMissingDependency = errors.New("history source dependency missing")

// LoaderDeps 소스별 외부 자원 (사용하는 소스만 채우면 됨)
type LoaderDeps struct {
	Pool    *pgxpool.Pool   // postgres
	Fetcher history.Fetcher // html (http/https URL일 때)
}

// NewLoader history 설정 → Loader
func NewLoader(h simconfig.History, deps LoaderDeps) (history.Loader, error) {
	switch h.Source {
	case simconfig.SourceCSV:
		return history.NewCSVLoader(h.Path), nil
	case simconfig.SourceHTML:
		return history.NewHTMLLoader(h.Path, h.Selector, deps.Fetcher), nil
	case simconfig.SourcePostgres:
		if deps.Pool == nil {
			return nil, fmt.Errorf("%w: postgres source requires DATABASE_URL", ErrMissingDependency)
		}
		return history.NewPostgresLoader(deps.Pool, h.Table), nil
	default:
		return nil, fmt.Errorf("unknown history source %q", h.Source)
	}
}
