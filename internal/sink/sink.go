// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/sijms/go-ora/v2" // Oracle driver
	_ "modernc.org/sqlite"         // SQLite driver

	"parcel-owners/internal/formatters"
	"parcel-owners/internal/observability"
	"parcel-owners/internal/owners"
	"parcel-owners/internal/paths"
	"parcel-owners/internal/resilience"
	"parcel-owners/internal/timeline"
)

// ErrUnsupportedDriver is returned by Open for drivers other than sqlite and oracle.
var ErrUnsupportedDriver = errors.New("unsupported sink driver")

const (
	DriverSQLite = "sqlite"
	DriverOracle = "oracle"
)

// Config holds database connection configuration
type Config struct {
	Driver         string
	DSN            string
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string

	// Retry governs retries of locked or dropped connections. The zero value
	// selects a driver-appropriate default.
	Retry *resilience.RetryConfig

	Observer *observability.StandardObserver
}

// Store persists parcel timelines. One Store tags every row it writes with
// the same run id.
type Store struct {
	db       *sql.DB
	driver   string
	runID    string
	retry    resilience.RetryConfig
	observer *observability.StandardObserver
}

// NormalizeDriver returns the canonical spelling of a driver name. The
// empty name selects sqlite.
func NormalizeDriver(name string) string {
	driver := strings.ToLower(strings.TrimSpace(name))
	if driver == "" {
		return DriverSQLite
	}
	return driver
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver := NormalizeDriver(cfg.Driver)

	var (
		connStr string
		retry   resilience.RetryConfig
	)
	switch driver {
	case DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = paths.DefaultDatabaseFile()
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		connStr = sqliteDSN(path)
		retry = resilience.DefaultRetryConfig()
	case DriverOracle:
		connStr = cfg.DSN
		if connStr == "" {
			connStr = oracleDSN(cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Service, cfg.WalletLocation)
		}
		retry = resilience.RemoteRetryConfig()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; busy_timeout covers the rest.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := resilience.RetryWithBackoff(pingCtx, retry, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:       db,
		driver:   driver,
		runID:    uuid.NewString(),
		retry:    retry,
		observer: cfg.Observer,
	}, nil
}

// sqliteDSN adds WAL mode and a busy timeout unless the DSN already sets pragmas.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// oracleDSN builds a properly encoded connection string. A wallet location
// selects an mTLS connection.
func oracleDSN(username, password, host, port, service, walletLocation string) string {
	if port == "" {
		port = "1521"
	}
	u := &url.URL{
		Scheme: "oracle",
		User:   url.UserPassword(username, password),
		Host:   host + ":" + port,
		Path:   "/" + service,
	}
	if walletLocation != "" {
		u.RawQuery = "ssl=true&wallet_location=" + url.QueryEscape(walletLocation)
	}
	return u.String()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RunID identifies the rows written through this store.
func (s *Store) RunID() string {
	return s.runID
}

// Driver returns the driver name.
func (s *Store) Driver() string {
	return s.driver
}

// bind returns the n-th (1-based) placeholder for the store's driver.
func (s *Store) bind(n int) string {
	if s.driver == DriverOracle {
		return fmt.Sprintf(":%d", n)
	}
	return "?"
}

func (s *Store) binds(count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = s.bind(i + 1)
	}
	return strings.Join(parts, ", ")
}

// SaveParcel replaces every stored row of the report's parcel in a single
// transaction.
func (s *Store) SaveParcel(ctx context.Context, report formatters.ParcelReport) error {
	if report.ParcelID == "" {
		return fmt.Errorf("cannot save a report without a parcel id")
	}
	finish := s.observer.StartTiming("sink", "save_parcel", report.ParcelID)

	rows, err := ownerRows(report)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return err
	}

	err = resilience.RetryWithBackoff(ctx, s.retry, func(ctx context.Context) error {
		return s.saveTx(ctx, report, rows)
	})
	finish(err == nil, map[string]interface{}{
		"owners":  len(rows),
		"invalid": len(report.Result.InvalidOwners),
		"run_id":  s.runID,
	})
	if err != nil {
		return fmt.Errorf("failed to save parcel %s: %w", report.ParcelID, err)
	}
	return nil
}

type ownerRow struct {
	bucket   string
	position int
	kind     string
	key      string
	payload  string
}

func ownerRows(report formatters.ParcelReport) ([]ownerRow, error) {
	t := report.Result.OwnersByDate
	if t == nil {
		return nil, nil
	}
	var rows []ownerRow
	for _, bucket := range t.Keys() {
		for i, o := range t.Owners(bucket) {
			payload, err := json.Marshal(o)
			if err != nil {
				return nil, fmt.Errorf("failed to encode owner: %w", err)
			}
			rows = append(rows, ownerRow{
				bucket:   bucket,
				position: i,
				kind:     o.Kind(),
				key:      owners.IdentityKey(o),
				payload:  string(payload),
			})
		}
	}
	return rows, nil
}

func (s *Store) saveTx(ctx context.Context, report formatters.ParcelReport, rows []ownerRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"parcel_owners", "parcel_invalid_owners"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE parcel_id = "+s.bind(1), report.ParcelID); err != nil {
			return err
		}
	}

	insertOwner := "INSERT INTO parcel_owners (run_id, parcel_id, bucket, position, owner_type, identity_key, payload) VALUES (" + s.binds(7) + ")"
	for _, r := range rows {
		if _, err = tx.ExecContext(ctx, insertOwner, s.runID, report.ParcelID, r.bucket, r.position, r.kind, r.key, r.payload); err != nil {
			return err
		}
	}

	insertInvalid := "INSERT INTO parcel_invalid_owners (run_id, parcel_id, position, raw, reason) VALUES (" + s.binds(5) + ")"
	for i, entry := range report.Result.InvalidOwners {
		if _, err = tx.ExecContext(ctx, insertInvalid, s.runID, report.ParcelID, i, entry.Raw, string(entry.Reason)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadOwners rebuilds the stored timeline of a parcel. A parcel with no
// stored owners yields a timeline holding only an empty current bucket.
func (s *Store) LoadOwners(ctx context.Context, parcelID string) (*timeline.Timeline, error) {
	query := "SELECT bucket, payload FROM parcel_owners WHERE parcel_id = " + s.bind(1) + " ORDER BY bucket, position"

	t := timeline.New()
	err := resilience.RetryWithBackoff(ctx, s.retry, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, parcelID)
		if err != nil {
			return err
		}
		defer rows.Close()

		t = timeline.New()
		for rows.Next() {
			var bucket, payload string
			if err := rows.Scan(&bucket, &payload); err != nil {
				return err
			}
			o, err := owners.DecodeOwner([]byte(payload))
			if err != nil {
				return resilience.NewPermanentError(fmt.Sprintf("corrupt owner row for parcel %s", parcelID), err)
			}
			t.Add(bucket, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load owners of parcel %s: %w", parcelID, err)
	}
	return t, nil
}

// LoadInvalid returns the stored invalid entries of a parcel in their
// original order.
func (s *Store) LoadInvalid(ctx context.Context, parcelID string) ([]owners.InvalidOwnerEntry, error) {
	query := "SELECT raw, reason FROM parcel_invalid_owners WHERE parcel_id = " + s.bind(1) + " ORDER BY position"

	return resilience.RetryWithResult(ctx, s.retry, func(ctx context.Context) ([]owners.InvalidOwnerEntry, error) {
		rows, err := s.db.QueryContext(ctx, query, parcelID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var entries []owners.InvalidOwnerEntry
		for rows.Next() {
			var raw, reason string
			if err := rows.Scan(&raw, &reason); err != nil {
				return nil, err
			}
			code, err := owners.ParseReasonCode(reason)
			if err != nil {
				return nil, resilience.NewPermanentError(fmt.Sprintf("corrupt invalid-owner row for parcel %s", parcelID), err)
			}
			entries = append(entries, owners.InvalidOwnerEntry{Raw: raw, Reason: code})
		}
		return entries, rows.Err()
	})
}

// LoadResult returns the stored timeline and invalid entries of a parcel.
func (s *Store) LoadResult(ctx context.Context, parcelID string) (timeline.Result, error) {
	t, err := s.LoadOwners(ctx, parcelID)
	if err != nil {
		return timeline.Result{}, err
	}
	invalid, err := s.LoadInvalid(ctx, parcelID)
	if err != nil {
		return timeline.Result{}, fmt.Errorf("failed to load invalid owners of parcel %s: %w", parcelID, err)
	}
	return timeline.Result{OwnersByDate: t, InvalidOwners: invalid}, nil
}
