package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Recurra/config"
	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"
	"Recurra/internal/logger"
	"Recurra/internal/pkg"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	recurringCollection     = "recurring_expenses"
	generationLogCollection = "generation_logs"
	transactionCollection   = "transactions"
)

type MongoRepository struct {
	client       *mongo.Client
	recurring    *mongo.Collection
	logs         *mongo.Collection
	transactions *mongo.Collection
}

var _ recurring.Store = (*MongoRepository)(nil)

type recurringDocument struct {
	Id              string                    `bson:"_id"`
	Name            string                    `bson:"name"`
	Category        string                    `bson:"category"`
	Amount          primitive.Decimal128      `bson:"amount"`
	Frequency       string                    `bson:"frequency"`
	FrequencyConfig recurring.FrequencyParams `bson:"frequency_config"`
	StartDate       time.Time                 `bson:"start_date"`
	EndDate         *time.Time                `bson:"end_date,omitempty"`
	IsActive        bool                      `bson:"is_active"`
	LastGenerated   *time.Time                `bson:"last_generated,omitempty"`
	NextGenerate    *time.Time                `bson:"next_generate"`
	CreatedAt       time.Time                 `bson:"created_at"`
	UpdatedAt       time.Time                 `bson:"updated_at"`
}

type generationLogDocument struct {
	Id                     string    `bson:"_id"`
	RecurringExpenseId     string    `bson:"recurring_expense_id"`
	GenerationDate         time.Time `bson:"generation_date"`
	GeneratedTransactionId *string   `bson:"generated_transaction_id,omitempty"`
	Status                 string    `bson:"status"`
	Reason                 string    `bson:"reason,omitempty"`
	CreatedAt              time.Time `bson:"created_at"`
}

type transactionDocument struct {
	Id                 string               `bson:"_id"`
	Type               string               `bson:"type"`
	Amount             primitive.Decimal128 `bson:"amount"`
	Category           string               `bson:"category"`
	Note               string               `bson:"note"`
	Date               time.Time            `bson:"date"`
	RecurringExpenseId *string              `bson:"recurring_expense_id,omitempty"`
	CreatedAt          time.Time            `bson:"created_at"`
	UpdatedAt          time.Time            `bson:"updated_at"`
}

func NewMongoClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI).SetTimeout(cfg.Database.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info().Str("database", cfg.Mongo.Database).Msg("Conexão com MongoDB estabelecida com sucesso")
	return client, nil
}

func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	db := client.Database(database)
	return &MongoRepository{
		client:       client,
		recurring:    db.Collection(recurringCollection),
		logs:         db.Collection(generationLogCollection),
		transactions: db.Collection(transactionCollection),
	}
}

// EnsureIndexes cria os índices únicos parciais que garantem uma única geração por (definição, data).
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "recurring_expense_id", Value: 1}, {Key: "generation_date", Value: 1}},
			Options: options.Index().
				SetName("uniq_success_per_date").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(recurring.StatusSuccess)}),
		},
		{
			Keys:    bson.D{{Key: "recurring_expense_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("history"),
		},
	})
	if err != nil {
		return fmt.Errorf("create generation log indexes: %w", err)
	}

	_, err = m.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recurring_expense_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().
			SetName("uniq_recurring_date").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"recurring_expense_id": bson.M{"$type": "string"}}),
	})
	if err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}

	_, err = m.recurring.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "next_generate", Value: 1}},
		Options: options.Index().SetName("pending"),
	})
	if err != nil {
		return fmt.Errorf("create recurring indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func toRecurringDocument(r *recurring.RecurringExpense) (*recurringDocument, error) {
	amount, err := primitive.ParseDecimal128(r.Amount.String())
	if err != nil {
		return nil, err
	}
	return &recurringDocument{
		Id:              r.Id.String(),
		Name:            r.Name,
		Category:        r.Category,
		Amount:          amount,
		Frequency:       string(r.Frequency),
		FrequencyConfig: recurring.ParamsOf(r.FrequencyConfig),
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IsActive:        r.IsActive,
		LastGenerated:   r.LastGenerated,
		NextGenerate:    r.NextGenerate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func fromRecurringDocument(doc *recurringDocument) (*recurring.RecurringExpense, error) {
	id, err := pkg.ParseULID(doc.Id)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, err
	}
	frequency := recurring.FrequencyType(doc.Frequency)
	cfg, err := recurring.NewFrequencyConfig(frequency, doc.FrequencyConfig)
	if err != nil {
		return nil, err
	}

	return &recurring.RecurringExpense{
		Id:              id,
		Name:            doc.Name,
		Category:        doc.Category,
		Amount:          amount,
		Frequency:       frequency,
		FrequencyConfig: cfg,
		StartDate:       pkg.DateOf(doc.StartDate),
		EndDate:         dateOrNil(doc.EndDate),
		IsActive:        doc.IsActive,
		LastGenerated:   dateOrNil(doc.LastGenerated),
		NextGenerate:    dateOrNil(doc.NextGenerate),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func toTransactionDocument(tx *transaction.Transaction) (*transactionDocument, error) {
	row := toDBTransaction(tx)
	amount, err := primitive.ParseDecimal128(row.Amount.String())
	if err != nil {
		return nil, err
	}
	return &transactionDocument{
		Id:                 row.Id,
		Type:               row.Type,
		Amount:             amount,
		Category:           row.Category,
		Note:               row.Note,
		Date:               row.Date,
		RecurringExpenseId: row.RecurringExpenseId,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}

func fromTransactionDocument(doc *transactionDocument) (*transaction.Transaction, error) {
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, err
	}
	return toDomainTransaction(&transactionDB{
		Id:                 doc.Id,
		Type:               doc.Type,
		Amount:             amount,
		Category:           doc.Category,
		Note:               doc.Note,
		Date:               doc.Date,
		RecurringExpenseId: doc.RecurringExpenseId,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	})
}

func (m *MongoRepository) Create(ctx context.Context, rec *recurring.RecurringExpense) error {
	doc, err := toRecurringDocument(rec)
	if err != nil {
		return err
	}
	_, err = m.recurring.InsertOne(ctx, doc)
	return err
}

func (m *MongoRepository) Update(ctx context.Context, rec *recurring.RecurringExpense) error {
	doc, err := toRecurringDocument(rec)
	if err != nil {
		return err
	}

	result, err := m.recurring.UpdateOne(ctx, bson.M{"_id": doc.Id}, bson.M{"$set": bson.M{
		"name":             doc.Name,
		"category":         doc.Category,
		"amount":           doc.Amount,
		"frequency":        doc.Frequency,
		"frequency_config": doc.FrequencyConfig,
		"end_date":         doc.EndDate,
		"updated_at":       doc.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, recurringID ulid.ULID) error {
	result, err := m.recurring.DeleteOne(ctx, bson.M{"_id": recurringID.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

func (m *MongoRepository) GetByID(ctx context.Context, recurringID ulid.ULID) (*recurring.RecurringExpense, error) {
	var doc recurringDocument
	err := m.recurring.FindOne(ctx, bson.M{"_id": recurringID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, recurring.ErrNotFound
		}
		return nil, err
	}
	return fromRecurringDocument(&doc)
}

func (m *MongoRepository) List(ctx context.Context, pagination *pkg.PaginationParams) ([]*recurring.RecurringExpense, int64, error) {
	return findPage(ctx, m.recurring, bson.M{}, bson.D{{Key: "created_at", Value: -1}}, pagination, fromRecurringDocument)
}

func (m *MongoRepository) FindActiveDefinitions(ctx context.Context) ([]*recurring.RecurringExpense, error) {
	return m.findRecurring(ctx, bson.M{"is_active": true})
}

func (m *MongoRepository) FindPendingGeneration(ctx context.Context, today time.Time) ([]*recurring.RecurringExpense, error) {
	return m.findRecurring(ctx, bson.M{
		"is_active":     true,
		"next_generate": bson.M{"$lte": pkg.DateOf(today)},
	})
}

func (m *MongoRepository) findRecurring(ctx context.Context, filter bson.M) ([]*recurring.RecurringExpense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "next_generate", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.recurring.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []recurringDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*recurring.RecurringExpense, 0, len(docs))
	for i := range docs {
		rec, err := fromRecurringDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MongoRepository) UpdateSchedule(ctx context.Context, recurringID ulid.ULID, update recurring.ScheduleUpdate) error {
	set := bson.M{
		"next_generate": update.NextGenerate,
		"is_active":     update.IsActive,
		"updated_at":    time.Now(),
	}
	if update.LastGenerated != nil {
		set["last_generated"] = *update.LastGenerated
	}

	result, err := m.recurring.UpdateOne(ctx, bson.M{"_id": recurringID.String()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return recurring.ErrNotFound
	}
	return nil
}

func (m *MongoRepository) HasSucceededOn(ctx context.Context, recurringID ulid.ULID, date time.Time) (bool, error) {
	day := pkg.DateOf(date)

	logs, err := m.logs.CountDocuments(ctx, bson.M{
		"recurring_expense_id": recurringID.String(),
		"generation_date":      day,
		"status":               string(recurring.StatusSuccess),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	if logs > 0 {
		return true, nil
	}

	txs, err := m.transactions.CountDocuments(ctx, bson.M{
		"recurring_expense_id": recurringID.String(),
		"date":                 day,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return txs > 0, nil
}

func (m *MongoRepository) AppendLogEntry(ctx context.Context, entry *recurring.GenerationLogEntry) error {
	row := toDBLogEntry(entry)
	_, err := m.logs.InsertOne(ctx, generationLogDocument{
		Id:                     row.Id,
		RecurringExpenseId:     row.RecurringExpenseId,
		GenerationDate:         row.GenerationDate,
		GeneratedTransactionId: row.GeneratedTransactionId,
		Status:                 row.Status,
		Reason:                 row.Reason,
		CreatedAt:              row.CreatedAt,
	})
	if isDuplicateKey(err) {
		return recurring.ErrAlreadyGenerated
	}
	return err
}

func (m *MongoRepository) ListLogEntries(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*recurring.GenerationLogEntry, int64, error) {
	return findPage(ctx, m.logs,
		bson.M{"recurring_expense_id": recurringID.String()},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		pagination,
		func(doc *generationLogDocument) (*recurring.GenerationLogEntry, error) {
			return toDomainLogEntry(&generationLogDB{
				Id:                     doc.Id,
				RecurringExpenseId:     doc.RecurringExpenseId,
				GenerationDate:         doc.GenerationDate,
				GeneratedTransactionId: doc.GeneratedTransactionId,
				Status:                 doc.Status,
				Reason:                 doc.Reason,
				CreatedAt:              doc.CreatedAt,
			})
		})
}

func (m *MongoRepository) CreateTransaction(ctx context.Context, tx *transaction.Transaction) (ulid.ULID, error) {
	if pkg.IsEmptyULID(tx.Id) {
		tx.Id = pkg.GenerateULIDObject()
	}

	doc, err := toTransactionDocument(tx)
	if err != nil {
		return ulid.ULID{}, err
	}
	if _, err := m.transactions.InsertOne(ctx, doc); err != nil {
		if isDuplicateKey(err) {
			return ulid.ULID{}, recurring.ErrAlreadyGenerated
		}
		return ulid.ULID{}, err
	}
	return tx.Id, nil
}

func (m *MongoRepository) ListGeneratedTransactions(ctx context.Context, recurringID ulid.ULID, pagination *pkg.PaginationParams) ([]*transaction.Transaction, int64, error) {
	return findPage(ctx, m.transactions,
		bson.M{"recurring_expense_id": recurringID.String()},
		bson.D{{Key: "date", Value: -1}},
		pagination,
		fromTransactionDocument)
}

// findPage é o equivalente documental de pkg.Paginate.
func findPage[T any, D any](
	ctx context.Context,
	coll *mongo.Collection,
	filter bson.M,
	sort bson.D,
	pagination *pkg.PaginationParams,
	converter func(*D) (*T, error),
) ([]*T, int64, error) {
	pagination = pkg.NormalizePagination(pagination)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(pagination.Offset())).
		SetLimit(int64(pagination.Limit))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	out := make([]*T, 0, len(docs))
	for i := range docs {
		item, err := converter(&docs[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, total, nil
}
