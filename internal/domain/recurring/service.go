package recurring

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"Recurra/internal/domain/transaction"
	appErrors "Recurra/internal/errors"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const maxUpcomingDays = 366

type Service struct {
	Repository   DefinitionRepository
	Schedule     Repository
	Transactions TransactionReader
	Ledger       *Ledger
	Location     *time.Location
	Now          func() time.Time
}

func NewService(store Store, location *time.Location) *Service {
	return &Service{
		Repository:   store,
		Schedule:     store,
		Transactions: store,
		Ledger:       NewLedger(store),
		Location:     location,
		Now:          time.Now,
	}
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return pkg.DateOf(s.clock().In(loc))
}

func (s *Service) CreateRecurring(ctx context.Context, req *CreateRecurringRequest) (*RecurringExpense, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	cfg, err := NewFrequencyConfig(req.Frequency, req.Params)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	rec := &RecurringExpense{
		Id:              pkg.GenerateULIDObject(),
		Name:            strings.TrimSpace(req.Name),
		Category:        strings.TrimSpace(req.Category),
		Amount:          req.Amount,
		Frequency:       req.Frequency,
		FrequencyConfig: cfg,
		StartDate:       pkg.DateOf(req.StartDate),
		EndDate:         datePtrOrNil(req.EndDate),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.reschedule(rec); err != nil {
		return nil, err
	}

	if err := s.Repository.Create(ctx, rec); err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}

	return rec, nil
}

func (s *Service) UpdateRecurring(ctx context.Context, recurringID ulid.ULID, req *UpdateRecurringRequest) (*RecurringExpense, error) {
	rec, err := s.GetRecurringByID(ctx, recurringID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.NewValidationError("name", "nome não pode ser vazio")
		}
		rec.Name = name
	}

	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, appErrors.NewValidationError("category", "categoria não pode ser vazia")
		}
		rec.Category = category
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, appErrors.NewValidationError("amount", "deve ser maior que zero")
		}
		rec.Amount = *req.Amount
	}

	scheduleChanged := false

	if req.Frequency != nil || req.Params != nil {
		frequency := rec.Frequency
		if req.Frequency != nil {
			frequency = *req.Frequency
		}
		params := ParamsOf(rec.FrequencyConfig)
		if req.Params != nil {
			params = *req.Params
		}
		cfg, err := NewFrequencyConfig(frequency, params)
		if err != nil {
			return nil, err
		}
		rec.Frequency = frequency
		rec.FrequencyConfig = cfg
		scheduleChanged = true
	}

	if req.ClearEndDate {
		rec.EndDate = nil
		scheduleChanged = true
	} else if req.EndDate != nil {
		end := pkg.DateOf(*req.EndDate)
		if end.Before(rec.StartDate) {
			return nil, appErrors.NewValidationError("end_date", "data de fim anterior a data de início")
		}
		rec.EndDate = &end
		scheduleChanged = true
	}

	scheduleChanged = scheduleChanged && rec.IsActive
	if scheduleChanged {
		if err := s.reschedule(rec); err != nil {
			return nil, err
		}
	}

	rec.UpdatedAt = s.clock()
	if err := s.Repository.Update(ctx, rec); err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	if scheduleChanged {
		if err := s.saveSchedule(ctx, rec); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func (s *Service) PauseRecurring(ctx context.Context, recurringID ulid.ULID) (*RecurringExpense, error) {
	rec, err := s.GetRecurringByID(ctx, recurringID)
	if err != nil {
		return nil, err
	}

	rec.IsActive = false
	rec.NextGenerate = nil
	rec.UpdatedAt = s.clock()

	if err := s.saveSchedule(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ResumeRecurring reativa uma definição pausada ou encerrada, recalculando o cursor a partir de hoje.
func (s *Service) ResumeRecurring(ctx context.Context, recurringID ulid.ULID) (*RecurringExpense, error) {
	rec, err := s.GetRecurringByID(ctx, recurringID)
	if err != nil {
		return nil, err
	}

	rec.IsActive = true
	if err := s.reschedule(rec); err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, appErrors.NewValidationError("end_date", "a data de fim da recorrência já passou")
	}

	rec.UpdatedAt = s.clock()
	if err := s.saveSchedule(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecurring remove a definição; o livro de gerações permanece intacto.
func (s *Service) DeleteRecurring(ctx context.Context, recurringID ulid.ULID) error {
	if _, err := s.GetRecurringByID(ctx, recurringID); err != nil {
		return err
	}

	if err := s.Repository.Delete(ctx, recurringID); err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (s *Service) GetRecurringByID(ctx context.Context, recurringID ulid.ULID) (*RecurringExpense, error) {
	rec, err := s.Repository.GetByID(ctx, recurringID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, appErrors.ErrRecurringNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return rec, nil
}

func (s *Service) ListRecurring(ctx context.Context, pagination *pkg.PaginationParams) ([]*RecurringExpense, int64, error) {
	items, total, err := s.Repository.List(ctx, pkg.NormalizePagination(pagination))
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return items, total, nil
}

func (s *Service) History(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*GenerationLogEntry, int64, error) {
	entries, total, err := s.Ledger.History(ctx, recurringID, pagination)
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return entries, total, nil
}

// GeneratedTransactions lista os lançamentos materializados a partir da definição, mais recentes primeiro.
func (s *Service) GeneratedTransactions(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*transaction.Transaction, int64, error) {
	if _, err := s.GetRecurringByID(ctx, recurringID); err != nil {
		return nil, 0, err
	}

	items, total, err := s.Transactions.ListGeneratedTransactions(ctx, recurringID, pkg.NormalizePagination(pagination))
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return items, total, nil
}

type UpcomingOccurrence struct {
	RecurringExpenseId ulid.ULID       `json:"recurringExpenseId"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Amount             decimal.Decimal `json:"amount"`
	Date               time.Time       `json:"date"`
}

// Upcoming lista as gerações previstas das definições ativas nos próximos days dias,
// incluindo as já atrasadas.
func (s *Service) Upcoming(ctx context.Context, days int) ([]UpcomingOccurrence, error) {
	if days < 1 || days > maxUpcomingDays {
		return nil, appErrors.NewValidationError("days", "dias deve estar entre 1 e 366")
	}

	defs, err := s.Schedule.FindActiveDefinitions(ctx)
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}

	today := s.today()
	until := today.AddDate(0, 0, days)
	out := make([]UpcomingOccurrence, 0)
	for _, def := range defs {
		if def.NextGenerate == nil {
			continue
		}
		dates, err := Occurrences(def.FrequencyConfig, *def.NextGenerate, today, until, def.EndDate)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			out = append(out, UpcomingOccurrence{
				RecurringExpenseId: def.Id,
				Name:               def.Name,
				Category:           def.Category,
				Amount:             def.Amount,
				Date:               d,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Name < out[j].Name
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// reschedule recalcula o cursor de uma definição ativa. Depois de alguma geração a âncora
// é a última data gerada, nunca a data de início: editar a regra não regera datas já
// materializadas nem recua o agendamento para antes de hoje.
func (s *Service) reschedule(rec *RecurringExpense) error {
	today := s.today()

	var (
		next time.Time
		err  error
	)
	if rec.LastGenerated != nil {
		next, err = NextAfter(rec.FrequencyConfig, *rec.LastGenerated, today)
	} else {
		next, err = NextRun(rec.FrequencyConfig, rec.StartDate, today)
	}
	if err != nil {
		return err
	}

	if rec.PastEnd(next) {
		rec.IsActive = false
		rec.NextGenerate = nil
		return nil
	}
	rec.NextGenerate = &next
	return nil
}

// saveSchedule grava apenas cursor e estado; last_generated continua sendo do Generator.
func (s *Service) saveSchedule(ctx context.Context, rec *RecurringExpense) error {
	update := ScheduleUpdate{NextGenerate: rec.NextGenerate, IsActive: rec.IsActive}
	if err := s.Schedule.UpdateSchedule(ctx, rec.Id, update); err != nil {
		if errors.Is(err, ErrNotFound) {
			return appErrors.ErrRecurringNotFound.WithError(err)
		}
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func validateCreateRequest(req *CreateRecurringRequest) error {
	if req == nil {
		return appErrors.ErrBadRequest
	}

	if strings.TrimSpace(req.Name) == "" {
		return appErrors.NewValidationError("name", "nome é obrigatório")
	}

	if strings.TrimSpace(req.Category) == "" {
		return appErrors.NewValidationError("category", "categoria é obrigatória")
	}

	if !req.Amount.IsPositive() {
		return appErrors.NewValidationError("amount", "deve ser maior que zero")
	}

	if !req.Frequency.IsValid() {
		return appErrors.NewConfigurationError("frequency", "frequência inválida")
	}

	if req.StartDate.IsZero() {
		return appErrors.NewValidationError("start_date", "data de início é obrigatória")
	}

	if req.EndDate != nil && pkg.DateOf(*req.EndDate).Before(pkg.DateOf(req.StartDate)) {
		return appErrors.NewValidationError("end_date", "data de fim anterior a data de início")
	}

	return nil
}

func datePtrOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := pkg.DateOf(*t)
	return &d
}

type CreateRecurringRequest struct {
	Name      string
	Category  string
	Amount    decimal.Decimal
	Frequency FrequencyType
	Params    FrequencyParams
	StartDate time.Time
	EndDate   *time.Time
}

type UpdateRecurringRequest struct {
	Name         *string
	Category     *string
	Amount       *decimal.Decimal
	Frequency    *FrequencyType
	Params       *FrequencyParams
	EndDate      *time.Time
	ClearEndDate bool
}
