package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"

	sqlite := &DB{Driver: DriverSQLite}
	assert.Equal(t, q, sqlite.Rebind(q))

	pg := &DB{Driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3", pg.Rebind(q))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("mysql", "x")
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	database, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	require.NoError(t, RunMigrations(database))

	var rows int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&rows))
	assert.Equal(t, 1, rows)

	for _, table := range []string{"issuers", "issuer_tokens", "lots", "expertises", "certificates", "certificate_verifications"} {
		var n int
		require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n), table)
	}
}

func TestMigrationsRejectNewerSchema(t *testing.T) {
	database, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, RunMigrations(database))
	_, err = database.Exec(`INSERT INTO schema_version (version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)

	assert.Error(t, RunMigrations(database))
}

func TestPostgresDDL(t *testing.T) {
	pg := &DB{Driver: DriverPostgres}
	out := pg.ddl().Replace("id {{serial}}, ts {{timestamp}}")
	assert.Equal(t, "id BIGSERIAL PRIMARY KEY, ts TIMESTAMPTZ", out)
}
