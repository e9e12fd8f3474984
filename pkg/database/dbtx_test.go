package database

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/hkf/crm/internal/models"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil, "person"))
	assert.ErrorIs(t, MapError(pgx.ErrNoRows, "person"), models.ErrNotFound)

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "enrollments_person_id_fkey"}
	err := MapError(fk, "delete person")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Contains(t, err.Error(), "enrollments_person_id_fkey")

	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "23505"}, "org"), models.ErrConflict)
	assert.True(t, models.IsValidation(MapError(&pgconn.PgError{Code: "23514", ConstraintName: "people_status_check"}, "person")))

	other := errors.New("connection reset")
	assert.ErrorIs(t, MapError(other, "person"), other)
}

func TestMustAffect(t *testing.T) {
	assert.ErrorIs(t, MustAffect(pgconn.NewCommandTag("UPDATE 0"), nil, "cohort"), models.ErrNotFound)
	assert.NoError(t, MustAffect(pgconn.NewCommandTag("UPDATE 1"), nil, "cohort"))
	assert.ErrorIs(t, MustAffect(pgconn.CommandTag{}, pgx.ErrNoRows, "cohort"), models.ErrNotFound)
}

func TestMigrationNames_Sorted(t *testing.T) {
	names, err := MigrationNames()
	assert.NoError(t, err)
	assert.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}
