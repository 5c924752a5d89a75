package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/holdings-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The filer
// record, including its full report history, is stored as one JSON
// document per row; version gates concurrent writers.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS filers (
	cik        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_filers_name ON filers(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetFiler(ctx context.Context, cik string) (*model.Filer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, version FROM filers WHERE cik = ?`, cik,
	)

	var data string
	var version int64
	err := row.Scan(&data, &version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get filer %s", cik)
	}

	f, err := unmarshalFiler(data)
	if err != nil {
		return nil, err
	}
	f.Version = version
	return f, nil
}

func (s *SQLiteStore) PutFiler(ctx context.Context, f *model.Filer) error {
	data, err := marshalFiler(f)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if f.Version == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO filers (cik, name, data, version, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			f.CIK, f.Name, data, now, now,
		)
		if err != nil {
			// A concurrent writer created the row first.
			if exists, checkErr := s.filerExists(ctx, f.CIK); checkErr == nil && exists {
				return ErrVersionConflict
			}
			return eris.Wrapf(err, "sqlite: insert filer %s", f.CIK)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE filers SET name = ?, data = ?, version = version + 1, updated_at = ?
		 WHERE cik = ? AND version = ?`,
		f.Name, data, now, f.CIK, f.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update filer %s", f.CIK)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLiteStore) ListCIKs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cik FROM filers ORDER BY cik`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ciks")
	}
	defer rows.Close()

	var ciks []string
	for rows.Next() {
		var cik string
		if err := rows.Scan(&cik); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cik")
		}
		ciks = append(ciks, cik)
	}
	return ciks, eris.Wrap(rows.Err(), "sqlite: list ciks iterate")
}

func (s *SQLiteStore) ListFilers(ctx context.Context) ([]model.Filer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data, version FROM filers ORDER BY cik`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list filers")
	}
	defer rows.Close()

	var filers []model.Filer
	for rows.Next() {
		var data string
		var version int64
		if err := rows.Scan(&data, &version); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan filer")
		}
		f, err := unmarshalFiler(data)
		if err != nil {
			return nil, err
		}
		f.Version = version
		filers = append(filers, *f)
	}
	return filers, eris.Wrap(rows.Err(), "sqlite: list filers iterate")
}

func (s *SQLiteStore) filerExists(ctx context.Context, cik string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM filers WHERE cik = ?`, cik).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func marshalFiler(f *model.Filer) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return "", eris.Wrapf(err, "report: marshal filer %s", f.CIK)
	}
	return string(data), nil
}

func unmarshalFiler(data string) (*model.Filer, error) {
	var f model.Filer
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return nil, eris.Wrap(err, "report: unmarshal filer")
	}
	return &f, nil
}
