package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/runcutweb/internal/cache"
	"github.com/yourorg/runcutweb/internal/models"
)

// Store provides typed access to the imported GTFS tables. Every read and
// write is scoped by a data_set_id partition; relations between entities
// are resolved by string id value within that partition, never by surrogate
// key.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// placeholders returns "?, ?, ..." with n markers for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// nullStr maps an empty string to SQL NULL on write.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strOf(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func intPtrOf(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func floatPtrOf(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

// FindDataSetByName looks a dataset up by case-insensitive trimmed name.
// Returns (nil, nil) when no dataset matches.
func (s *Store) FindDataSetByName(ctx context.Context, name string) (*models.DataSet, error) {
	trimmed := strings.TrimSpace(name)
	var ds models.DataSet
	var lastMod sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_date, last_modified_date
		FROM data_sets
		WHERE LOWER(name) = LOWER(?)
		LIMIT 1
	`, trimmed).Scan(&ds.ID, &ds.Name, &ds.CreatedDate, &lastMod)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find dataset by name: %w", err)
	}
	if lastMod.Valid {
		ds.LastModifiedDate = &lastMod.Time
	}
	return &ds, nil
}

// InsertDataSet creates a new dataset and returns its id. The name is
// stored trimmed.
func (s *Store) InsertDataSet(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO data_sets (name, created_date) VALUES (?, ?)",
		strings.TrimSpace(name), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: fetch dataset id: %w", err)
	}
	return id, nil
}

// ListDataSets returns all datasets, newest first.
func (s *Store) ListDataSets(ctx context.Context) ([]models.DataSet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_date, last_modified_date
		FROM data_sets
		ORDER BY created_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list datasets: %w", err)
	}
	defer rows.Close()

	dataSets := make([]models.DataSet, 0)
	for rows.Next() {
		var ds models.DataSet
		var lastMod sql.NullTime
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.CreatedDate, &lastMod); err != nil {
			return nil, fmt.Errorf("store: scan dataset: %w", err)
		}
		if lastMod.Valid {
			ds.LastModifiedDate = &lastMod.Time
		}
		dataSets = append(dataSets, ds)
	}
	return dataSets, rows.Err()
}

// DeleteDataSet removes a dataset; dependent rows cascade via foreign keys.
func (s *Store) DeleteDataSet(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM data_sets WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("store: delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DayNames loads the optional d_date dimension into a date-key lookup.
// A missing table is not an error; the caller falls back to deriving day
// names arithmetically. The table is effectively static, so the loaded map
// is cached.
func (s *Store) DayNames(ctx context.Context) (map[int]string, error) {
	if cache.DayNamesCache != nil {
		if v, found := cache.DayNamesCache.Get("d_date"); found {
			return v.(map[int]string), nil
		}
	}

	names, err := s.loadDayNames(ctx)
	if err != nil {
		return nil, err
	}
	if cache.DayNamesCache != nil {
		cache.DayNamesCache.Set("d_date", names)
	}
	return names, nil
}

func (s *Store) loadDayNames(ctx context.Context) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date_key, day_name FROM d_date")
	if err != nil {
		return map[int]string{}, nil
	}
	defer rows.Close()

	names := make(map[int]string)
	for rows.Next() {
		var key int
		var name string
		if err := rows.Scan(&key, &name); err != nil {
			return nil, fmt.Errorf("store: scan d_date: %w", err)
		}
		names[key] = name
	}
	return names, rows.Err()
}
