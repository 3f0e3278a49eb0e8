package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDBLockError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDBLockError(errors.New("database is locked")))
	assert.True(t, IsDBLockError(errors.New("SQLITE_BUSY: database busy")))
	assert.True(t, IsDBLockError(errors.New("Lock wait timeout exceeded")))
	assert.True(t, IsDBLockError(errors.New("deadlock detected")))
	assert.False(t, IsDBLockError(errors.New("syntax error")))
	assert.False(t, IsDBLockError(nil))
}

func TestIsTransientDBError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTransientDBError(context.DeadlineExceeded))
	assert.True(t, IsTransientDBError(context.Canceled))
	assert.True(t, IsTransientDBError(errors.New("database is locked")))
	assert.False(t, IsTransientDBError(errors.New("constraint failed")))
	assert.False(t, IsTransientDBError(nil))
}

func TestIsConnectionRefused(t *testing.T) {
	t.Parallel()

	assert.True(t, IsConnectionRefused(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, IsConnectionRefused(errors.New("read: connection reset by peer")))
	assert.True(t, IsConnectionRefused(errors.New("lookup db: no such host")))
	assert.False(t, IsConnectionRefused(errors.New("permission denied")))
	assert.False(t, IsConnectionRefused(nil))
}
