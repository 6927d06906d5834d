package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "projects_pkey"}

	require.True(t, isUniqueViolation(unique))
	require.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	require.False(t, isUniqueViolation(&pgconn.PgError{Code: pgerrcode.CheckViolation}))
	require.False(t, isUniqueViolation(errors.New("boom")))
}

func TestMapPostgresError(t *testing.T) {
	require.NoError(t, mapPostgresError(nil))

	plain := errors.New("boom")
	require.Equal(t, plain, mapPostgresError(plain))

	pgErr := &pgconn.PgError{Code: pgerrcode.AdminShutdown, Message: "terminating"}
	mapped := mapPostgresError(pgErr)
	require.ErrorIs(t, mapped, pgErr)
	require.Contains(t, mapped.Error(), "database unavailable")
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	require.Equal(t, 1, migrations[0].version)
	require.Contains(t, migrations[0].content, "CREATE TABLE projects")

	for i := 1; i < len(migrations); i++ {
		require.Less(t, migrations[i-1].version, migrations[i].version)
	}
}
