package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable 기본 테이블명
const DefaultTable = "annual_returns"

// PostgresLoader PostgreSQL 테이블 로더
// 스키마: annual_returns(year int primary key, stocks, bonds, inflation double precision)
type PostgresLoader struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresLoader 새 Postgres 로더 생성
func NewPostgresLoader(pool *pgxpool.Pool, table string) *PostgresLoader {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresLoader{pool: pool, table: table}
}

// Load reads all rows ordered by year
func (l *PostgresLoader) Load(ctx context.Context) (*Series, error) {
	query := fmt.Sprintf(
		"SELECT year, stocks, bonds, inflation FROM %s ORDER BY year",
		pgx.Identifier{l.table}.Sanitize(),
	)

	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.table, err)
	}

	obs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Observation, error) {
		var o Observation
		err := row.Scan(&o.Year, &o.Stocks, &o.Bonds, &o.Inflation)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", l.table, err)
	}

	return NewSeries(obs)
}

// Import 시계열을 테이블에 저장 (기존 데이터 교체)
// 하나의 트랜잭션에서 truncate → COPY 수행
func Import(ctx context.Context, pool *pgxpool.Pool, table string, series *Series) (int64, error) {
	if table == "" {
		table = DefaultTable
	}
	ident := pgx.Identifier{table}.Sanitize()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		year      INTEGER PRIMARY KEY,
		stocks    DOUBLE PRECISION NOT NULL,
		bonds     DOUBLE PRECISION NOT NULL,
		inflation DOUBLE PRECISION NOT NULL
	)`, ident)
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+ident); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", table, err)
	}

	obs := series.Observations()
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{table},
		[]string{"year", "stocks", "bonds", "inflation"},
		pgx.CopyFromSlice(len(obs), func(i int) ([]any, error) {
			o := obs[i]
			return []any{o.Year, o.Stocks, o.Bonds, o.Inflation}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
