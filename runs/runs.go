// Package runs stores simulation sweep results in a sqlite database.
package runs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const tableResults = "results"

// Result is the outcome of one sweep configuration.
type Result struct {
	L         int
	MaxDim    int
	Cutoff    float64
	Fidelity0 float64
	Fidelity1 float64
	Truncerr  float64
}

// DB is a sqlite-backed result store.
type DB struct {
	Path string

	db *sql.DB
}

// Open opens the result store at dbPath, creating it when absent.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &DB{Path: dbPath, db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Insert stores r, replacing any earlier result of the same configuration.
func (d *DB) Insert(r Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (l, maxdim, cutoff, fid0, fid1, truncerr) VALUES (?, ?, ?, ?, ?, ?)`, tableResults)
	args := []any{r.L, r.MaxDim, r.Cutoff, r.Fidelity0, r.Fidelity1, r.Truncerr}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

// List returns all stored results ordered by configuration.
func (d *DB) List() ([]Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT l, maxdim, cutoff, fid0, fid1, truncerr FROM %s ORDER BY l, maxdim, cutoff`, tableResults)
	rows, err := d.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	rs := make([]Result, 0)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.L, &r.MaxDim, &r.Cutoff, &r.Fidelity0, &r.Fidelity1, &r.Truncerr); err != nil {
			return nil, errors.Wrap(err, "")
		}
		rs = append(rs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return rs, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (l INTEGER, maxdim INTEGER, cutoff REAL, fid0 REAL, fid1 REAL, truncerr REAL, PRIMARY KEY (l, maxdim, cutoff)) STRICT`, tableResults)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
