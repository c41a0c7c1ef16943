package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// SchemaVersion is the latest schema known to this binary
const SchemaVersion = 1

// RunMigrations executes all database migrations. It is safe to run on every start.
func RunMigrations(db *DB) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := db.ddl()
	for _, stmt := range schema {
		if err := execSQL(tx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	var currentVersion int
	err = tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	switch {
	case currentVersion == 0:
		if err := execSQL(tx, `INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return err
		}
	case currentVersion > SchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}

	return tx.Commit()
}

// ddl returns the replacer that turns the portable schema into the driver's dialect
func (db *DB) ddl() *strings.Replacer {
	if db.Driver == DriverPostgres {
		return strings.NewReplacer(
			"{{serial}}", "BIGSERIAL PRIMARY KEY",
			"{{timestamp}}", "TIMESTAMPTZ",
		)
	}
	return strings.NewReplacer(
		"{{serial}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{timestamp}}", "DATETIME",
	)
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
var schema = []string{
	`
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER NOT NULL,
    applied_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`
CREATE TABLE IF NOT EXISTS issuers (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL,
    enabled    INTEGER NOT NULL DEFAULT 1,
    created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`
CREATE TABLE IF NOT EXISTS issuer_tokens (
    id           {{serial}},
    issuer_id    TEXT NOT NULL REFERENCES issuers(id) ON DELETE CASCADE,
    token_hash   TEXT NOT NULL UNIQUE,
    created_at   {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at   {{timestamp}},
    last_used_at {{timestamp}}
)`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_issuer_id ON issuer_tokens(issuer_id)`,

	`
CREATE TABLE IF NOT EXISTS lots (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    typology      TEXT NOT NULL DEFAULT '',
    period        TEXT NOT NULL DEFAULT '',
    materials     TEXT NOT NULL DEFAULT '',
    dimensions_cm TEXT,
    description   TEXT NOT NULL DEFAULT '',
    score_100     DOUBLE PRECISION,
    created_at    {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`
CREATE TABLE IF NOT EXISTS expertises (
    id               TEXT PRIMARY KEY,
    lot_id           TEXT NOT NULL,
    normalized_score DOUBLE PRECISION,
    classification   TEXT NOT NULL DEFAULT '',
    expert_summary   TEXT NOT NULL DEFAULT '',
    tests_performed  TEXT,
    created_at       {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_expertises_lot_id ON expertises(lot_id)`,

	`
CREATE TABLE IF NOT EXISTS certificates (
    certificate_id     TEXT PRIMARY KEY,
    schema_version     INTEGER NOT NULL DEFAULT 1,
    public_fingerprint TEXT NOT NULL,
    version            INTEGER NOT NULL,
    status             TEXT NOT NULL,
    issued_at          {{timestamp}} NOT NULL,
    revoked_at         {{timestamp}},
    revoked_reason     TEXT,
    lot_id             TEXT NOT NULL,
    issuer_id          TEXT NOT NULL,
    expertise_id       TEXT,
    data_public        TEXT NOT NULL,
    pdf_key            TEXT NOT NULL,
    pdf_content_hash   TEXT NOT NULL,
    pdf_size           BIGINT NOT NULL,
    verification_count BIGINT NOT NULL DEFAULT 0,
    last_verified_at   {{timestamp}},
    metadata           TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_certs_lot_id ON certificates(lot_id, issued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_certs_issuer_id ON certificates(issuer_id, issued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_certs_fingerprint ON certificates(public_fingerprint)`,

	`
CREATE TABLE IF NOT EXISTS certificate_verifications (
    id             {{serial}},
    certificate_id TEXT NOT NULL,
    ts             {{timestamp}} NOT NULL,
    ip_hmac        TEXT NOT NULL,
    ua_hmac        TEXT NOT NULL,
    result         TEXT NOT NULL,
    route          TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_verifications_cert ON certificate_verifications(certificate_id, ts)`,
}
