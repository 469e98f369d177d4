package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageErrorUnwrapsSentinel(t *testing.T) {
	err := NewStorageError("save item", fmt.Errorf("driver: %w", ErrDuplicateID))
	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.Contains(t, err.Error(), "save item")
}

func TestIsValidation(t *testing.T) {
	err := NewValidationError("name", "must not be empty")
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidation(ErrNotFound))
}

func TestRollbackErrorUnwrapsCause(t *testing.T) {
	cause := NewStorageError("save item", errors.New("disk full"))
	err := &RollbackError{Cause: cause, RolledBack: []string{"i1", "i2"}}

	var se *StorageError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "rolled back 2 items")
}

func TestRollbackFailedErrorListsRemaining(t *testing.T) {
	err := &RollbackFailedError{
		Cause:       errors.New("write failed"),
		RollbackErr: errors.New("delete failed"),
		Remaining:   []string{"i1"},
	}
	assert.Contains(t, err.Error(), "i1")
	assert.Contains(t, err.Error(), "rollback failed")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("local_first")
	assert.NoError(t, err)
	assert.Equal(t, ModeLocalFirst, m)

	m, err = ParseMode("cloud_first")
	assert.NoError(t, err)
	assert.Equal(t, ModeCloudFirst, m)

	_, err = ParseMode("uninitialized")
	assert.Error(t, err)

	_, err = ParseMode("bogus")
	assert.Error(t, err)
}

func TestParseMigrationStrategy(t *testing.T) {
	for _, s := range []string{"intelligent_merge", "migrate_all", "cloud_only"} {
		got, err := ParseMigrationStrategy(s)
		assert.NoError(t, err)
		assert.Equal(t, MigrationStrategy(s), got)
	}
	_, err := ParseMigrationStrategy("merge")
	assert.Error(t, err)
}
