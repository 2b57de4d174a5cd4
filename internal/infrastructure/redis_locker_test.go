package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"Recurra/internal/domain/recurring"

	"github.com/go-redis/redismock/v8"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, 30*time.Second)
	locker.newToken = func() string { return "token-1" }
	id := ulid.Make()

	mock.ExpectSetNX(lockKey(id), "token-1", 30*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{lockKey(id)}, "token-1").SetVal(int64(1))

	unlock, err := locker.TryLock(context.Background(), id)
	require.NoError(t, err)
	unlock()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerHeld(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, time.Minute)
	locker.newToken = func() string { return "token-2" }
	id := ulid.Make()

	mock.ExpectSetNX(lockKey(id), "token-2", time.Minute).SetVal(false)

	_, err := locker.TryLock(context.Background(), id)
	assert.ErrorIs(t, err, recurring.ErrLockHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLockerUnavailable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, time.Minute)
	locker.newToken = func() string { return "token-3" }
	id := ulid.Make()

	mock.ExpectSetNX(lockKey(id), "token-3", time.Minute).SetErr(errors.New("dial tcp: connection refused"))

	_, err := locker.TryLock(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, recurring.ErrLockHeld)
}
