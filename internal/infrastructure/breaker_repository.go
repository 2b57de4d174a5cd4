package infrastructure

import (
	"context"
	"errors"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"
	"Recurra/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/sony/gobreaker"
)

type BreakerRepository struct {
	recurring.Store
	cb *gobreaker.CircuitBreaker
}

var _ recurring.Store = (*BreakerRepository)(nil)

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func NewBreakerRepository(store recurring.Store, settings BreakerSettings) *BreakerRepository {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	st := gobreaker.Settings{
		Name:    "recurring-store",
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Violação de unicidade é resposta válida do repositório, não falha de infraestrutura.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recurring.ErrAlreadyGenerated) || errors.Is(err, recurring.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker do repositório mudou de estado")
		},
	}
	return &BreakerRepository{Store: store, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerRepository) CreateTransaction(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Store.CreateTransaction(ctx, tx)
	})
	if err != nil {
		return ulid.ULID{}, err
	}
	return out.(ulid.ULID), nil
}

func (b *BreakerRepository) UpdateSchedule(ctx context.Context, recurringID ulid.ULID, update recurring.ScheduleUpdate) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.Store.UpdateSchedule(ctx, recurringID, update)
	})
	return err
}

func (b *BreakerRepository) AppendLogEntry(ctx context.Context, entry *recurring.GenerationLogEntry) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.Store.AppendLogEntry(ctx, entry)
	})
	return err
}

func (b *BreakerRepository) HasSucceededOn(ctx context.Context, recurringID ulid.ULID, date time.Time) (bool, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.Store.HasSucceededOn(ctx, recurringID, date)
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}
