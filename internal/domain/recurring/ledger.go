package recurring

import (
	"context"
	"errors"
	"time"

	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type GenerationStatus string

const (
	StatusSuccess GenerationStatus = "success"
	StatusFailed  GenerationStatus = "failed"
	StatusSkipped GenerationStatus = "skipped"
)

const (
	ReasonPastEndDate      = "past end date"
	ReasonAlreadyGenerated = "already generated"
	ReasonLockHeld         = "locked by another run"
)

type GenerationLogEntry struct {
	Id                     ulid.ULID        `json:"id"`
	RecurringExpenseId     ulid.ULID        `json:"recurringExpenseId"`
	GenerationDate         time.Time        `json:"generationDate"`
	GeneratedTransactionId *ulid.ULID       `json:"generatedTransactionId,omitempty"`
	Status                 GenerationStatus `json:"status"`
	Reason                 string           `json:"reason,omitempty"`
	CreatedAt              time.Time        `json:"createdAt"`
}

var errReasonRequired = errors.New("generation log entry requires a reason when status is not success")

type Ledger struct {
	store LedgerStore
	now   func() time.Time
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

func (l *Ledger) Succeeded(ctx context.Context, recurringID ulid.ULID, date time.Time) (bool, error) {
	return l.store.HasSucceededOn(ctx, recurringID, pkg.DateOf(date))
}

func (l *Ledger) RecordSuccess(ctx context.Context, recurringID ulid.ULID, date time.Time, transactionID ulid.ULID) (*GenerationLogEntry, error) {
	return l.record(ctx, &GenerationLogEntry{
		RecurringExpenseId:     recurringID,
		GenerationDate:         date,
		GeneratedTransactionId: &transactionID,
		Status:                 StatusSuccess,
	})
}

func (l *Ledger) RecordFailure(ctx context.Context, recurringID ulid.ULID, date time.Time, cause error) (*GenerationLogEntry, error) {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}
	return l.record(ctx, &GenerationLogEntry{
		RecurringExpenseId: recurringID,
		GenerationDate:     date,
		Status:             StatusFailed,
		Reason:             reason,
	})
}

func (l *Ledger) RecordSkip(ctx context.Context, recurringID ulid.ULID, date time.Time, reason string) (*GenerationLogEntry, error) {
	return l.record(ctx, &GenerationLogEntry{
		RecurringExpenseId: recurringID,
		GenerationDate:     date,
		Status:             StatusSkipped,
		Reason:             reason,
	})
}

func (l *Ledger) History(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*GenerationLogEntry, int64, error) {
	return l.store.ListLogEntries(ctx, recurringID, pkg.NormalizePagination(pagination))
}

func (l *Ledger) record(ctx context.Context, entry *GenerationLogEntry) (*GenerationLogEntry, error) {
	if entry.Status != StatusSuccess && entry.Reason == "" {
		return nil, errReasonRequired
	}
	entry.Id = pkg.GenerateULIDObject()
	entry.GenerationDate = pkg.DateOf(entry.GenerationDate)
	entry.CreatedAt = l.now()

	if err := l.store.AppendLogEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
