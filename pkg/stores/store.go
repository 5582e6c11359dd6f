// Package stores persists drift reports to a local SQLite database so
// audits can be compared over time.
package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/pwdrift/pwdrift/pkg/report"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the report history store backed by SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a store for the database at path. Call Init
// before use.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: path}, nil
}

// Init opens the database, enables WAL mode and runs pending migrations.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting in SQLite.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return s.migrate()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SaveReport stores a report document plus one finding row per drifting
// field, all in one transaction.
func (s *SQLiteStore) SaveReport(ctx context.Context, rep *report.Report) error {
	document, err := rep.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (
			id, version, baseline_source, generated_at, compliant,
			total_checks, drifted_checks, mismatched_fields, failed_checks, document
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rep.ID,
		string(rep.Version),
		rep.BaselineSource,
		rep.GeneratedAt.UTC(),
		rep.Compliant(),
		rep.Summary.TotalChecks,
		rep.Summary.DriftedChecks,
		rep.Summary.MismatchedFields,
		rep.Summary.FailedChecks,
		string(document),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	for _, result := range rep.Results {
		for _, drift := range result.Drifts {
			if drift.Match {
				continue
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO findings (report_id, component, category, field, current_value, expected_value)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				rep.ID,
				string(result.Component),
				string(result.Category),
				drift.Field,
				fmt.Sprintf("%v", drift.Current),
				fmt.Sprintf("%v", drift.Expected),
			)
			if err != nil {
				return fmt.Errorf("failed to insert finding: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

// GetReport rehydrates a stored report by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*report.Report, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM reports WHERE id = ?`, id).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	rep, err := report.FromJSON([]byte(document))
	if err != nil {
		return nil, fmt.Errorf("failed to decode stored report %s: %w", id, err)
	}
	return rep, nil
}

// ListReports returns summary rows, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, limit, offset int) ([]*ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, baseline_source, generated_at, compliant,
		       total_checks, drifted_checks, mismatched_fields, failed_checks
		FROM reports
		ORDER BY generated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	records := []*ReportRecord{}
	for rows.Next() {
		rec := &ReportRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.Version,
			&rec.BaselineSource,
			&rec.GeneratedAt,
			&rec.Compliant,
			&rec.TotalChecks,
			&rec.DriftedChecks,
			&rec.MismatchedFields,
			&rec.FailedChecks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return records, nil
}

// ListFindings returns the drifting fields of one stored report.
func (s *SQLiteStore) ListFindings(ctx context.Context, reportID string) ([]*Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, component, category, field, current_value, expected_value
		FROM findings
		WHERE report_id = ?
		ORDER BY component, category, field
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	findings := []*Finding{}
	for rows.Next() {
		f := &Finding{}
		err := rows.Scan(&f.ReportID, &f.Component, &f.Category, &f.Field, &f.Current, &f.Expected)
		if err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}
	return findings, nil
}

// DeleteReport removes a report and, via cascade, its findings.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("report not found: %s", id)
	}
	return nil
}

// PruneBefore deletes reports generated before the cutoff and returns how
// many were removed.
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE generated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune reports: %w", err)
	}
	return result.RowsAffected()
}
