package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type dayKey struct {
	id  ulid.ULID
	day time.Time
}

type MemoryRepository struct {
	mu           sync.RWMutex
	definitions  map[ulid.ULID]recurring.RecurringExpense
	logs         []recurring.GenerationLogEntry
	transactions []transaction.Transaction
	successes    map[dayKey]struct{}
	generated    map[dayKey]struct{}
}

var _ recurring.Store = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		definitions: make(map[ulid.ULID]recurring.RecurringExpense),
		successes:   make(map[dayKey]struct{}),
		generated:   make(map[dayKey]struct{}),
	}
}

func (m *MemoryRepository) Create(_ context.Context, rec *recurring.RecurringExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[rec.Id] = *rec
	return nil
}

func (m *MemoryRepository) Update(_ context.Context, rec *recurring.RecurringExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.definitions[rec.Id]
	if !ok {
		return recurring.ErrNotFound
	}
	next := *rec
	next.IsActive = stored.IsActive
	next.LastGenerated = stored.LastGenerated
	next.NextGenerate = stored.NextGenerate
	m.definitions[rec.Id] = next
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, recurringID ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[recurringID]; !ok {
		return recurring.ErrNotFound
	}
	delete(m.definitions, recurringID)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, recurringID ulid.ULID) (*recurring.RecurringExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.definitions[recurringID]
	if !ok {
		return nil, recurring.ErrNotFound
	}
	return &rec, nil
}

func (m *MemoryRepository) List(_ context.Context, pagination *pkg.PaginationParams) ([]*recurring.RecurringExpense, int64, error) {
	all := m.filter(func(*recurring.RecurringExpense) bool { return true })
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, pagination), int64(len(all)), nil
}

func (m *MemoryRepository) FindActiveDefinitions(_ context.Context) ([]*recurring.RecurringExpense, error) {
	out := m.filter(func(r *recurring.RecurringExpense) bool { return r.IsActive })
	sortByCursor(out)
	return out, nil
}

func (m *MemoryRepository) FindPendingGeneration(_ context.Context, today time.Time) ([]*recurring.RecurringExpense, error) {
	day := pkg.DateOf(today)
	out := m.filter(func(r *recurring.RecurringExpense) bool {
		return r.IsActive && r.NextGenerate != nil && !r.NextGenerate.After(day)
	})
	sortByCursor(out)
	return out, nil
}

func (m *MemoryRepository) UpdateSchedule(_ context.Context, recurringID ulid.ULID, update recurring.ScheduleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.definitions[recurringID]
	if !ok {
		return recurring.ErrNotFound
	}
	if update.LastGenerated != nil {
		rec.LastGenerated = update.LastGenerated
	}
	rec.NextGenerate = update.NextGenerate
	rec.IsActive = update.IsActive
	rec.UpdatedAt = time.Now()
	m.definitions[recurringID] = rec
	return nil
}

func (m *MemoryRepository) HasSucceededOn(_ context.Context, recurringID ulid.ULID, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := dayKey{id: recurringID, day: pkg.DateOf(date)}
	_, logged := m.successes[key]
	_, generated := m.generated[key]
	return logged || generated, nil
}

func (m *MemoryRepository) AppendLogEntry(_ context.Context, entry *recurring.GenerationLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.Status == recurring.StatusSuccess {
		key := dayKey{id: entry.RecurringExpenseId, day: pkg.DateOf(entry.GenerationDate)}
		if _, ok := m.successes[key]; ok {
			return recurring.ErrAlreadyGenerated
		}
		m.successes[key] = struct{}{}
	}
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *MemoryRepository) ListLogEntries(_ context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*recurring.GenerationLogEntry, int64, error) {
	m.mu.RLock()
	var out []*recurring.GenerationLogEntry
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].RecurringExpenseId == recurringID {
			e := m.logs[i]
			out = append(out, &e)
		}
	}
	m.mu.RUnlock()
	return page(out, pagination), int64(len(out)), nil
}

func (m *MemoryRepository) CreateTransaction(_ context.Context, tx *transaction.Transaction) (ulid.ULID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.RecurringExpenseId != nil {
		key := dayKey{id: *tx.RecurringExpenseId, day: pkg.DateOf(tx.Date)}
		if _, ok := m.generated[key]; ok {
			return ulid.ULID{}, recurring.ErrAlreadyGenerated
		}
		m.generated[key] = struct{}{}
	}
	if pkg.IsEmptyULID(tx.Id) {
		tx.Id = pkg.GenerateULIDObject()
	}
	now := time.Now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	m.transactions = append(m.transactions, *tx)
	return tx.Id, nil
}

func (m *MemoryRepository) ListGeneratedTransactions(_ context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*transaction.Transaction, int64, error) {
	m.mu.RLock()
	var out []*transaction.Transaction
	for i := range m.transactions {
		if id := m.transactions[i].RecurringExpenseId; id != nil && *id == recurringID {
			tx := m.transactions[i]
			out = append(out, &tx)
		}
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return page(out, pagination), int64(len(out)), nil
}

func (m *MemoryRepository) filter(keep func(*recurring.RecurringExpense) bool) []*recurring.RecurringExpense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*recurring.RecurringExpense, 0, len(m.definitions))
	for _, rec := range m.definitions {
		rec := rec
		if keep(&rec) {
			out = append(out, &rec)
		}
	}
	return out
}

func sortByCursor(defs []*recurring.RecurringExpense) {
	sort.Slice(defs, func(i, j int) bool {
		a, b := defs[i].NextGenerate, defs[j].NextGenerate
		if a != nil && b != nil && !a.Equal(*b) {
			return a.Before(*b)
		}
		return defs[i].Id.Compare(defs[j].Id) < 0
	})
}

func page[T any](items []T, pagination *pkg.PaginationParams) []T {
	pagination = pkg.NormalizePagination(pagination)
	start := pagination.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + pagination.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
