package infrastructure

import (
	"context"
	"testing"
	"time"

	"Recurra/internal/domain/recurring"
	"Recurra/internal/domain/transaction"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockMongoRepository(mt *mtest.T) *MongoRepository {
	return &MongoRepository{
		client:       mt.Client,
		recurring:    mt.Coll,
		logs:         mt.Coll,
		transactions: mt.Coll,
	}
}

func sampleDefinition() *recurring.RecurringExpense {
	next := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &recurring.RecurringExpense{
		Id:              ulid.Make(),
		Name:            "Seguro",
		Category:        "Carro",
		Amount:          decimal.RequireFromString("230.45"),
		Frequency:       recurring.FrequencyYearly,
		FrequencyConfig: recurring.Yearly{MonthOfYear: time.April, DayOfMonth: 15},
		StartDate:       time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC),
		EndDate:         &end,
		IsActive:        true,
		NextGenerate:    &next,
		CreatedAt:       time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecurringDocumentMapping(t *testing.T) {
	def := sampleDefinition()

	doc, err := toRecurringDocument(def)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.FrequencyConfig.MonthOfYear)

	back, err := fromRecurringDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, def.Id, back.Id)
	assert.True(t, def.Amount.Equal(back.Amount))
	assert.Equal(t, def.FrequencyConfig, back.FrequencyConfig)
	assert.True(t, back.EndDate.Equal(*def.EndDate))
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get by id", func(mt *mtest.T) {
		repo := mockMongoRepository(mt)
		def := sampleDefinition()
		doc, err := toRecurringDocument(def)
		require.NoError(mt, err)

		raw, err := bson.Marshal(doc)
		require.NoError(mt, err)
		var fields bson.D
		require.NoError(mt, bson.Unmarshal(raw, &fields))

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, fields))

		got, err := repo.GetByID(context.Background(), def.Id)
		require.NoError(mt, err)
		assert.Equal(mt, def.Name, got.Name)
		assert.True(mt, got.NextGenerate.Equal(*def.NextGenerate))
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		repo := mockMongoRepository(mt)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), ulid.Make())
		assert.ErrorIs(mt, err, recurring.ErrNotFound)
	})

	mt.Run("duplicate transaction", func(mt *mtest.T) {
		repo := mockMongoRepository(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: transactions index: uniq_recurring_date",
		}))

		recurringID := ulid.Make()
		_, err := repo.CreateTransaction(context.Background(), &transaction.Transaction{
			Type:               transaction.TypeExpense,
			Amount:             decimal.RequireFromString("10"),
			Category:           "Contas",
			Date:               time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
			RecurringExpenseId: &recurringID,
		})
		assert.ErrorIs(mt, err, recurring.ErrAlreadyGenerated)
	})

	mt.Run("update schedule not found", func(mt *mtest.T) {
		repo := mockMongoRepository(mt)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})

		err := repo.UpdateSchedule(context.Background(), ulid.Make(), recurring.ScheduleUpdate{IsActive: false})
		assert.ErrorIs(mt, err, recurring.ErrNotFound)
	})
}
