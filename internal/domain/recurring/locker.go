package recurring

import (
	"context"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ErrLockHeld indica que outra execução está processando a mesma definição.
var ErrLockHeld = errors.New("recurring expense is locked by another run")

type Locker interface {
	TryLock(ctx context.Context, recurringID ulid.ULID) (unlock func(), err error)
}

type LocalLocker struct {
	mu   sync.Mutex
	held map[ulid.ULID]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[ulid.ULID]struct{})}
}

func (l *LocalLocker) TryLock(_ context.Context, recurringID ulid.ULID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[recurringID]; ok {
		return nil, ErrLockHeld
	}
	l.held[recurringID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, recurringID)
			l.mu.Unlock()
		})
	}, nil
}
