package infrastructure

import (
	"context"
	"errors"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecurringRepository struct {
	DB      *gorm.DB
	Timeout time.Duration
}

var _ recurring.Store = (*RecurringRepository)(nil)

func NewRecurringRepository(db *gorm.DB, timeout time.Duration) *RecurringRepository {
	return &RecurringRepository{DB: db, Timeout: timeout}
}

type recurringExpenseDB struct {
	Id              string          `gorm:"type:varchar(26);primaryKey;column:id"`
	Name            string          `gorm:"type:varchar(255);not null;column:name"`
	Category        string          `gorm:"type:varchar(100);not null;column:category"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null;column:amount"`
	Frequency       string          `gorm:"type:varchar(10);not null;column:frequency"`
	FrequencyConfig datatypes.JSON  `gorm:"column:frequency_config"`
	StartDate       time.Time       `gorm:"type:date;not null;column:start_date"`
	EndDate         *time.Time      `gorm:"type:date;column:end_date"`
	IsActive        bool            `gorm:"not null;index:idx_recurring_expenses_pending,priority:1;column:is_active"`
	LastGenerated   *time.Time      `gorm:"type:date;column:last_generated"`
	NextGenerate    *time.Time      `gorm:"type:date;index:idx_recurring_expenses_pending,priority:2;column:next_generate"`
	CreatedAt       time.Time       `gorm:"not null;column:created_at"`
	UpdatedAt       time.Time       `gorm:"not null;column:updated_at"`
}

func (recurringExpenseDB) TableName() string {
	return "recurring_expenses"
}

type generationLogDB struct {
	Id                     string    `gorm:"type:varchar(26);primaryKey;column:id"`
	RecurringExpenseId     string    `gorm:"type:varchar(26);not null;index;column:recurring_expense_id"`
	GenerationDate         time.Time `gorm:"type:date;not null;column:generation_date"`
	GeneratedTransactionId *string   `gorm:"type:varchar(26);column:generated_transaction_id"`
	Status                 string    `gorm:"type:varchar(10);not null;column:status"`
	Reason                 string    `gorm:"type:text;column:reason"`
	CreatedAt              time.Time `gorm:"not null;column:created_at"`
}

func (generationLogDB) TableName() string {
	return "generation_logs"
}

func toDomainRecurring(rdb *recurringExpenseDB) (*recurring.RecurringExpense, error) {
	id, err := pkg.ParseULID(rdb.Id)
	if err != nil {
		return nil, err
	}

	frequency := recurring.FrequencyType(rdb.Frequency)
	cfg, err := recurring.DecodeConfig(frequency, rdb.FrequencyConfig)
	if err != nil {
		return nil, err
	}

	return &recurring.RecurringExpense{
		Id:              id,
		Name:            rdb.Name,
		Category:        rdb.Category,
		Amount:          rdb.Amount,
		Frequency:       frequency,
		FrequencyConfig: cfg,
		StartDate:       pkg.DateOf(rdb.StartDate),
		EndDate:         dateOrNil(rdb.EndDate),
		IsActive:        rdb.IsActive,
		LastGenerated:   dateOrNil(rdb.LastGenerated),
		NextGenerate:    dateOrNil(rdb.NextGenerate),
		CreatedAt:       rdb.CreatedAt,
		UpdatedAt:       rdb.UpdatedAt,
	}, nil
}

func toDBRecurring(r *recurring.RecurringExpense) (*recurringExpenseDB, error) {
	cfg, err := recurring.EncodeConfig(r.FrequencyConfig)
	if err != nil {
		return nil, err
	}

	return &recurringExpenseDB{
		Id:              r.Id.String(),
		Name:            r.Name,
		Category:        r.Category,
		Amount:          r.Amount,
		Frequency:       string(r.Frequency),
		FrequencyConfig: datatypes.JSON(cfg),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IsActive:        r.IsActive,
		LastGenerated:   r.LastGenerated,
		NextGenerate:    r.NextGenerate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func toDomainLogEntry(ldb *generationLogDB) (*recurring.GenerationLogEntry, error) {
	id, err := pkg.ParseULID(ldb.Id)
	if err != nil {
		return nil, err
	}
	recurringID, err := pkg.ParseULID(ldb.RecurringExpenseId)
	if err != nil {
		return nil, err
	}

	var txID *ulid.ULID
	if ldb.GeneratedTransactionId != nil && *ldb.GeneratedTransactionId != "" {
		parsed, err := pkg.ParseULID(*ldb.GeneratedTransactionId)
		if err != nil {
			return nil, err
		}
		txID = &parsed
	}

	return &recurring.GenerationLogEntry{
		Id:                     id,
		RecurringExpenseId:     recurringID,
		GenerationDate:         pkg.DateOf(ldb.GenerationDate),
		GeneratedTransactionId: txID,
		Status:                 recurring.GenerationStatus(ldb.Status),
		Reason:                 ldb.Reason,
		CreatedAt:              ldb.CreatedAt,
	}, nil
}

func toDBLogEntry(e *recurring.GenerationLogEntry) *generationLogDB {
	return &generationLogDB{
		Id:                     e.Id.String(),
		RecurringExpenseId:     e.RecurringExpenseId.String(),
		GenerationDate:         e.GenerationDate,
		GeneratedTransactionId: ulidStringOrNil(e.GeneratedTransactionId),
		Status:                 string(e.Status),
		Reason:                 e.Reason,
		CreatedAt:              e.CreatedAt,
	}
}

func (r *RecurringRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func (r *RecurringRepository) Create(ctx context.Context, rec *recurring.RecurringExpense) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rdb, err := toDBRecurring(rec)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(rdb).Error
}

func (r *RecurringRepository) Update(ctx context.Context, rec *recurring.RecurringExpense) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rdb, err := toDBRecurring(rec)
	if err != nil {
		return err
	}

	// Select explícito para gravar também end_date nulo. As colunas de agendamento ficam de
	// fora: uma cópia lida antes de uma geração não pode recuar o cursor.
	result := r.DB.WithContext(ctx).Model(&recurringExpenseDB{}).
		Where("id = ?", rdb.Id).
		Select("name", "category", "amount", "frequency", "frequency_config", "end_date", "updated_at").
		Updates(rdb)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

func (r *RecurringRepository) Delete(ctx context.Context, recurringID ulid.ULID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result := r.DB.WithContext(ctx).Where("id = ?", recurringID.String()).Delete(&recurringExpenseDB{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

func (r *RecurringRepository) GetByID(ctx context.Context, recurringID ulid.ULID) (*recurring.RecurringExpense, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rdb recurringExpenseDB
	err := r.DB.WithContext(ctx).Where("id = ?", recurringID.String()).First(&rdb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recurring.ErrNotFound
		}
		return nil, err
	}
	return toDomainRecurring(&rdb)
}

func (r *RecurringRepository) List(ctx context.Context, pagination *pkg.PaginationParams) ([]*recurring.RecurringExpense, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.DB.WithContext(ctx).Model(&recurringExpenseDB{})
	return pkg.Paginate(query, pagination, "created_at DESC", toDomainRecurring)
}

func (r *RecurringRepository) FindActiveDefinitions(ctx context.Context) ([]*recurring.RecurringExpense, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []recurringExpenseDB
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("next_generate ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecurrings(rows)
}

func (r *RecurringRepository) FindPendingGeneration(ctx context.Context, today time.Time) ([]*recurring.RecurringExpense, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []recurringExpenseDB
	err := r.DB.WithContext(ctx).
		Where("is_active = ? AND next_generate <= ?", true, pkg.DateOf(today)).
		Order("next_generate ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecurrings(rows)
}

func (r *RecurringRepository) UpdateSchedule(ctx context.Context, recurringID ulid.ULID, update recurring.ScheduleUpdate) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	values := map[string]interface{}{
		"next_generate": update.NextGenerate,
		"is_active":     update.IsActive,
		"updated_at":    time.Now(),
	}
	if update.LastGenerated != nil {
		values["last_generated"] = *update.LastGenerated
	}

	result := r.DB.WithContext(ctx).Model(&recurringExpenseDB{}).
		Where("id = ?", recurringID.String()).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

// HasSucceededOn consulta o livro e também o back-reference do lançamento, cobrindo
// uma execução que gravou o lançamento mas caiu antes de registrar o sucesso.
func (r *RecurringRepository) HasSucceededOn(ctx context.Context, recurringID ulid.ULID, date time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	day := pkg.DateOf(date)

	var logs int64
	err := r.DB.WithContext(ctx).Model(&generationLogDB{}).
		Where("recurring_expense_id = ? AND generation_date = ? AND status = ?",
			recurringID.String(), day, string(recurring.StatusSuccess)).
		Count(&logs).Error
	if err != nil {
		return false, err
	}
	if logs > 0 {
		return true, nil
	}

	var txs int64
	err = r.DB.WithContext(ctx).Model(&transactionDB{}).
		Where("recurring_expense_id = ? AND date = ?", recurringID.String(), day).
		Count(&txs).Error
	if err != nil {
		return false, err
	}
	return txs > 0, nil
}

func (r *RecurringRepository) AppendLogEntry(ctx context.Context, entry *recurring.GenerationLogEntry) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.DB.WithContext(ctx).Create(toDBLogEntry(entry)).Error; err != nil {
		if isDuplicateKey(err) {
			return recurring.ErrAlreadyGenerated
		}
		return err
	}
	return nil
}

func (r *RecurringRepository) ListLogEntries(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*recurring.GenerationLogEntry, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.DB.WithContext(ctx).Model(&generationLogDB{}).Where("recurring_expense_id = ?", recurringID.String())
	return pkg.Paginate(query, pagination, "created_at DESC, id DESC", toDomainLogEntry)
}

func (r *RecurringRepository) CreateTransaction(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if pkg.IsEmptyULID(tx.Id) {
		tx.Id = pkg.GenerateULIDObject()
	}

	if err := r.DB.WithContext(ctx).Create(toDBTransaction(tx)).Error; err != nil {
		if isDuplicateKey(err) {
			return ulid.ULID{}, recurring.ErrAlreadyGenerated
		}
		return ulid.ULID{}, err
	}
	return tx.Id, nil
}

func toDomainRecurrings(rows []recurringExpenseDB) ([]*recurring.RecurringExpense, error) {
	out := make([]*recurring.RecurringExpense, 0, len(rows))
	for i := range rows {
		rec, err := toDomainRecurring(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := pkg.DateOf(*t)
	return &d
}

func ulidStringOrNil(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func (r *RecurringRepository) ListGeneratedTransactions(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*transaction.Transaction, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.DB.WithContext(ctx).Model(&transactionDB{}).Where("recurring_expense_id = ?", recurringID.String())
	return pkg.Paginate(query, pagination, "date DESC", toDomainTransaction)
}
