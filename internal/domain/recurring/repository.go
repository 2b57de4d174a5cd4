package recurring

import (
	"context"
	"errors"
	"time"

	"Recurra/internal/domain/transaction"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrAlreadyGenerated é devolvido quando a restrição única do repositório
	// impede uma segunda geração para o mesmo par (definição, data).
	ErrAlreadyGenerated = errors.New("recurring expense already generated for date")
	ErrNotFound         = errors.New("recurring expense not found")
)

type LedgerStore interface {
	HasSucceededOn(ctx context.Context, recurringID ulid.ULID, date time.Time) (bool, error)
	AppendLogEntry(ctx context.Context, entry *GenerationLogEntry) error
	ListLogEntries(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*GenerationLogEntry, int64, error)
}

type Repository interface {
	LedgerStore
	FindActiveDefinitions(ctx context.Context) ([]*RecurringExpense, error)
	FindPendingGeneration(ctx context.Context, today time.Time) ([]*RecurringExpense, error)
	CreateTransaction(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error)
	UpdateSchedule(ctx context.Context, recurringID ulid.ULID, update ScheduleUpdate) error
}

type DefinitionRepository interface {
	Create(ctx context.Context, def *RecurringExpense) error
	// Update grava só os campos descritivos e a regra; cursor e is_active mudam via UpdateSchedule.
	Update(ctx context.Context, def *RecurringExpense) error
	Delete(ctx context.Context, recurringID ulid.ULID) error
	GetByID(ctx context.Context, recurringID ulid.ULID) (*RecurringExpense, error)
	List(ctx context.Context, pagination *pkg.PaginationParams) ([]*RecurringExpense, int64, error)
}

type TransactionReader interface {
	ListGeneratedTransactions(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*transaction.Transaction, int64, error)
}

type Store interface {
	Repository
	DefinitionRepository
	TransactionReader
}
