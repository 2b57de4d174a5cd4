package recurring_test

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

// fakeStore guarda tudo em memória e imita as restrições únicas do banco.
type fakeStore struct {
	mu   sync.Mutex
	defs map[ulid.ULID]*recurring.RecurringExpense
	logs []*recurring.GenerationLogEntry
	txs  []*transaction.Transaction

	updates         int
	scheduleUpdates int

	findPendingFn    func(ctx context.Context, today time.Time) ([]*recurring.RecurringExpense, error)
	createTxFn       func(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error)
	updateScheduleFn func(ctx context.Context, id ulid.ULID, update recurring.ScheduleUpdate) error
	appendLogFn      func(ctx context.Context, entry *recurring.GenerationLogEntry) error
}

func newFakeStore(defs ...*recurring.RecurringExpense) *fakeStore {
	s := &fakeStore{defs: make(map[ulid.ULID]*recurring.RecurringExpense)}
	for _, d := range defs {
		s.defs[d.Id] = d
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, def *recurring.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *def
	s.defs[def.Id] = &c
	return nil
}

func (s *fakeStore) Update(_ context.Context, def *recurring.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.defs[def.Id]
	if !ok {
		return recurring.ErrNotFound
	}
	c := *def
	c.IsActive = stored.IsActive
	c.LastGenerated = stored.LastGenerated
	c.NextGenerate = stored.NextGenerate
	s.defs[def.Id] = &c
	s.updates++
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, id)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id ulid.ULID) (*recurring.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defs[id]
	if !ok {
		return nil, recurring.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (s *fakeStore) List(_ context.Context, pagination *pkg.PaginationParams) ([]*recurring.RecurringExpense, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*recurring.RecurringExpense, 0, len(s.defs))
	for _, d := range s.defs {
		c := *d
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) FindActiveDefinitions(_ context.Context) ([]*recurring.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*recurring.RecurringExpense
	for _, d := range s.defs {
		if d.IsActive {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Compare(out[j].Id) < 0 })
	return out, nil
}

func (s *fakeStore) FindPendingGeneration(ctx context.Context, today time.Time) ([]*recurring.RecurringExpense, error) {
	if s.findPendingFn != nil {
		return s.findPendingFn(ctx, today)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*recurring.RecurringExpense
	for _, d := range s.defs {
		if d.IsActive && d.NextGenerate != nil && !d.NextGenerate.After(today) {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Compare(out[j].Id) < 0 })
	return out, nil
}

func (s *fakeStore) HasSucceededOn(_ context.Context, id ulid.ULID, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.logs {
		if e.RecurringExpenseId == id && e.GenerationDate.Equal(date) && e.Status == recurring.StatusSuccess {
			return true, nil
		}
	}
	for _, tx := range s.txs {
		if tx.RecurringExpenseId != nil && *tx.RecurringExpenseId == id && tx.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateTransaction(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error) {
	if s.createTxFn != nil {
		if id, err := s.createTxFn(ctx, tx); err != nil || !pkg.IsEmptyULID(id) {
			return id, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txs {
		if existing.RecurringExpenseId != nil && tx.RecurringExpenseId != nil &&
			*existing.RecurringExpenseId == *tx.RecurringExpenseId && existing.Date.Equal(tx.Date) {
			return ulid.ULID{}, recurring.ErrAlreadyGenerated
		}
	}
	tx.Id = ulid.Make()
	s.txs = append(s.txs, tx)
	return tx.Id, nil
}

func (s *fakeStore) UpdateSchedule(ctx context.Context, id ulid.ULID, update recurring.ScheduleUpdate) error {
	if s.updateScheduleFn != nil {
		if err := s.updateScheduleFn(ctx, id, update); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defs[id]
	if !ok {
		return recurring.ErrNotFound
	}
	if update.LastGenerated != nil {
		d.LastGenerated = update.LastGenerated
	}
	d.NextGenerate = update.NextGenerate
	d.IsActive = update.IsActive
	s.scheduleUpdates++
	return nil
}

func (s *fakeStore) AppendLogEntry(ctx context.Context, entry *recurring.GenerationLogEntry) error {
	if s.appendLogFn != nil {
		if err := s.appendLogFn(ctx, entry); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Status == recurring.StatusSuccess {
		for _, e := range s.logs {
			if e.RecurringExpenseId == entry.RecurringExpenseId && e.GenerationDate.Equal(entry.GenerationDate) && e.Status == recurring.StatusSuccess {
				return recurring.ErrAlreadyGenerated
			}
		}
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *fakeStore) ListLogEntries(_ context.Context, id ulid.ULID, _ *pkg.PaginationParams) ([]*recurring.GenerationLogEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*recurring.GenerationLogEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].RecurringExpenseId == id {
			out = append(out, s.logs[i])
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) ListGeneratedTransactions(_ context.Context, id ulid.ULID, _ *pkg.PaginationParams) ([]*transaction.Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*transaction.Transaction
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].RecurringExpenseId != nil && *s.txs[i].RecurringExpenseId == id {
			out = append(out, s.txs[i])
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) definition(id ulid.ULID) recurring.RecurringExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.defs[id]
}

func (s *fakeStore) logsFor(id ulid.ULID, status recurring.GenerationStatus) []*recurring.GenerationLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*recurring.GenerationLogEntry
	for _, e := range s.logs {
		if e.RecurringExpenseId == id && e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

func (s *fakeStore) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

type fakeRecorder struct {
	mu          sync.Mutex
	generations map[recurring.GenerationStatus]int
	runs        int
	runErrs     int
}

func (r *fakeRecorder) ObserveGeneration(status recurring.GenerationStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations == nil {
		r.generations = make(map[recurring.GenerationStatus]int)
	}
	r.generations[status]++
}

func (r *fakeRecorder) ObserveRun(_ recurring.RunResult, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
	if err != nil {
		r.runErrs++
	}
}

type lockedLocker struct{}

func (lockedLocker) TryLock(context.Context, ulid.ULID) (func(), error) {
	return nil, recurring.ErrLockHeld
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}
