// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"fmt"
	"strings"

	"parcel-owners/internal/resilience"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS parcel_owners (
		run_id       TEXT NOT NULL,
		parcel_id    TEXT NOT NULL,
		bucket       TEXT NOT NULL,
		position     INTEGER NOT NULL,
		owner_type   TEXT NOT NULL,
		identity_key TEXT NOT NULL,
		payload      TEXT NOT NULL,
		PRIMARY KEY (parcel_id, bucket, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parcel_owners_identity ON parcel_owners (identity_key)`,
	`CREATE TABLE IF NOT EXISTS parcel_invalid_owners (
		run_id    TEXT NOT NULL,
		parcel_id TEXT NOT NULL,
		position  INTEGER NOT NULL,
		raw       TEXT NOT NULL,
		reason    TEXT NOT NULL,
		PRIMARY KEY (parcel_id, position)
	)`,
}

var oracleSchema = []string{
	`CREATE TABLE parcel_owners (
		run_id       VARCHAR2(36) NOT NULL,
		parcel_id    VARCHAR2(128) NOT NULL,
		bucket       VARCHAR2(32) NOT NULL,
		position     NUMBER(10) NOT NULL,
		owner_type   VARCHAR2(16) NOT NULL,
		identity_key VARCHAR2(1024) NOT NULL,
		payload      CLOB NOT NULL,
		CONSTRAINT pk_parcel_owners PRIMARY KEY (parcel_id, bucket, position)
	)`,
	`CREATE INDEX idx_parcel_owners_identity ON parcel_owners (identity_key)`,
	`CREATE TABLE parcel_invalid_owners (
		run_id    VARCHAR2(36) NOT NULL,
		parcel_id VARCHAR2(128) NOT NULL,
		position  NUMBER(10) NOT NULL,
		raw       VARCHAR2(4000) NOT NULL,
		reason    VARCHAR2(64) NOT NULL,
		CONSTRAINT pk_parcel_invalid_owners PRIMARY KEY (parcel_id, position)
	)`,
}

// Migrate creates the sink tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	finish := s.observer.StartTiming("sink", "migrate", s.driver)

	statements := sqliteSchema
	if s.driver == DriverOracle {
		statements = oracleSchema
	}

	for _, stmt := range statements {
		err := resilience.RetryWithBackoff(ctx, s.retry, func(ctx context.Context) error {
			_, err := s.db.ExecContext(ctx, stmt)
			return err
		})
		// Oracle has no IF NOT EXISTS: ORA-00955 means the object is already there.
		if err != nil && s.driver == DriverOracle && strings.Contains(err.Error(), "ORA-00955") {
			err = nil
		}
		if err != nil {
			finish(false, map[string]interface{}{"error": err.Error()})
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	finish(true, map[string]interface{}{"statements": len(statements)})
	return nil
}
