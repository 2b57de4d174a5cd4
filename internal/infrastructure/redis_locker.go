package infrastructure

import (
	"context"
	"fmt"
	"time"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/logger"
	"Recurra/internal/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"
)

const (
	lockKeyPrefix = "recurra:lock:recurring:"
	unlockTimeout = 2 * time.Second
)

// releaseScript só apaga a chave se o token ainda for nosso; um lock expirado
// e readquirido por outra instância não pode ser liberado por engano.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

type RedisLocker struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

var _ recurring.Locker = (*RedisLocker)(nil)

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, newToken: pkg.GenerateULID}
}

func lockKey(recurringID ulid.ULID) string {
	return lockKeyPrefix + recurringID.String()
}

func (l *RedisLocker) TryLock(ctx context.Context, recurringID ulid.ULID) (func(), error) {
	key := lockKey(recurringID)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, recurring.ErrLockHeld
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Falha ao liberar lock; ele expira pelo TTL")
		}
	}, nil
}
