package report

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/holdings-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, extracted so
// tests can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool. Filer records are
// stored as one JSONB document per row.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS filers (
	cik        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_filers_name ON filers(name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetFiler(ctx context.Context, cik string) (*model.Filer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data, version FROM filers WHERE cik = $1`, cik,
	)

	var data []byte
	var version int64
	err := row.Scan(&data, &version)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get filer %s", cik)
	}

	f, err := unmarshalFiler(string(data))
	if err != nil {
		return nil, err
	}
	f.Version = version
	return f, nil
}

func (s *PostgresStore) PutFiler(ctx context.Context, f *model.Filer) error {
	data, err := marshalFiler(f)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if f.Version == 0 {
		ct, err := s.pool.Exec(ctx,
			`INSERT INTO filers (cik, name, data, version, created_at, updated_at)
			 VALUES ($1, $2, $3, 1, $4, $5)
			 ON CONFLICT (cik) DO NOTHING`,
			f.CIK, f.Name, data, now, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert filer %s", f.CIK)
		}
		if ct.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE filers SET name = $1, data = $2, version = version + 1, updated_at = $3
		 WHERE cik = $4 AND version = $5`,
		f.Name, data, now, f.CIK, f.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update filer %s", f.CIK)
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *PostgresStore) ListCIKs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT cik FROM filers ORDER BY cik`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ciks")
	}
	defer rows.Close()

	var ciks []string
	for rows.Next() {
		var cik string
		if err := rows.Scan(&cik); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cik")
		}
		ciks = append(ciks, cik)
	}
	return ciks, eris.Wrap(rows.Err(), "postgres: list ciks iterate")
}

func (s *PostgresStore) ListFilers(ctx context.Context) ([]model.Filer, error) {
	rows, err := s.pool.Query(ctx, `SELECT data, version FROM filers ORDER BY cik`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list filers")
	}
	defer rows.Close()

	var filers []model.Filer
	for rows.Next() {
		var data []byte
		var version int64
		if err := rows.Scan(&data, &version); err != nil {
			return nil, eris.Wrap(err, "postgres: scan filer")
		}
		f, err := unmarshalFiler(string(data))
		if err != nil {
			return nil, err
		}
		f.Version = version
		filers = append(filers, *f)
	}
	return filers, eris.Wrap(rows.Err(), "postgres: list filers iterate")
}
