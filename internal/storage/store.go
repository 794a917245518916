package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"regdash/internal/core"

	_ "modernc.org/sqlite"
)

// Store is the loaded, read-only registrations dataset. It keeps the rows in
// an in-memory SQLite database and answers range, distinct and filter queries.
type Store struct {
	db   *sql.DB
	rows int
}

// distinctColumns maps dataset columns to table columns. Only these may be
// interpolated into SQL.
var distinctColumns = map[core.Column]string{
	core.ColumnDate:          "date",
	core.ColumnManufacturer:  "manufacturer",
	core.ColumnVehicleType:   "vehicle_type",
	core.ColumnRegistrations: "registrations",
}

// Open creates an in-memory store holding recs, in the given order.
func Open(ctx context.Context, recs []core.Registration) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.insert(ctx, recs); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) insert(ctx context.Context, recs []core.Registration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO registrations (date, manufacturer, vehicle_type, registrations) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx, core.FormatDate(r.Date), r.Manufacturer, r.VehicleType, r.Registrations); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	s.rows = len(recs)
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Len returns the number of loaded rows.
func (s *Store) Len() int { return s.rows }

// QueryRange returns the earliest and latest dates in the dataset, inclusive.
func (s *Store) QueryRange(ctx context.Context) (time.Time, time.Time, error) {
	var lo, hi sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM registrations`).Scan(&lo, &hi)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, core.ErrEmptyDataset
	}
	start, err := core.ParseDate(lo.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := core.ParseDate(hi.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// DistinctValues returns the unique values of column in first-seen order.
// Dates come back as YYYY-MM-DD and counts in decimal.
func (s *Store) DistinctValues(ctx context.Context, column core.Column) ([]string, error) {
	col, ok := distinctColumns[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidColumn, string(column))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT CAST(`+col+` AS TEXT) FROM registrations GROUP BY `+col+` ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", col, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Filter returns the rows matching c in load order. An empty result is not
// an error.
func (s *Store) Filter(ctx context.Context, c core.Criteria) ([]core.Registration, error) {
	query, args := filterQuery(c)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter registrations: %w", err)
	}
	defer rows.Close()

	out := []core.Registration{}
	for rows.Next() {
		var (
			date string
			r    core.Registration
		)
		if err := rows.Scan(&date, &r.Manufacturer, &r.VehicleType, &r.Registrations); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		if r.Date, err = core.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

// filterQuery builds the parameterised query for c. A dimension whose set is
// empty gets no IN clause at all, so it matches every value.
func filterQuery(c core.Criteria) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT date, manufacturer, vehicle_type, registrations FROM registrations WHERE date BETWEEN ? AND ?`)
	args := []any{core.FormatDate(c.Start), core.FormatDate(c.End)}

	if len(c.Categories) > 0 {
		b.WriteString(` AND vehicle_type IN (` + placeholders(len(c.Categories)) + `)`)
		for _, v := range c.Categories {
			args = append(args, v)
		}
	}
	if len(c.Manufacturers) > 0 {
		b.WriteString(` AND manufacturer IN (` + placeholders(len(c.Manufacturers)) + `)`)
		for _, v := range c.Manufacturers {
			args = append(args, v)
		}
	}
	b.WriteString(` ORDER BY id`)
	return b.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
