package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintErrorDetection(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: "violates index"})
	fk := &pgconn.PgError{Code: "23503", Message: "violates reference"}

	assert.True(t, isUniqueConstraintError(unique))
	assert.False(t, isForeignKeyError(unique))
	assert.True(t, isForeignKeyError(fk))
	assert.False(t, isUniqueConstraintError(fk))

	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, isForeignKeyError(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isForeignKeyError(errors.New("connection reset")))
}
