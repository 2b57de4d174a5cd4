package infrastructure

import (
	"Recurra/config"
	"Recurra/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	generationLogSuccessIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_generation_logs_success
		ON generation_logs (recurring_expense_id, generation_date)
		WHERE status = 'success'`
	transactionRecurringDateIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_recurring_date
		ON transactions (recurring_expense_id, date)
		WHERE recurring_expense_id IS NOT NULL`
)

func NewDb(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error().
			Err(err).
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.DBName).
			Msg("Falha ao conectar ao banco de dados")
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error().Err(err).Msg("Falha ao obter instância do banco de dados")
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	logger.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.DBName).
		Msg("Conexão com banco de dados estabelecida com sucesso")

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *gorm.DB) error {
	logger.Info().Msg("Executando migrations...")

	entities := []interface{}{
		&recurringExpenseDB{},
		&generationLogDB{},
		&transactionDB{},
	}

	for _, entity := range entities {
		if err := db.AutoMigrate(entity); err != nil {
			logger.Error().
				Err(err).
				Str("entity", getEntityName(entity)).
				Msg("Erro ao migrar entidade")
			return err
		}
	}

	// Índices parciais não são expressáveis por tags do gorm.
	for _, stmt := range []string{generationLogSuccessIndex, transactionRecurringDateIndex} {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Error().Err(err).Msg("Erro ao criar índice único parcial")
			return err
		}
	}

	logger.Info().Msg("Migrations executadas com sucesso!")
	return nil
}

func getEntityName(entity interface{}) string {
	switch entity.(type) {
	case *recurringExpenseDB:
		return "RecurringExpense"
	case *generationLogDB:
		return "GenerationLog"
	case *transactionDB:
		return "Transaction"
	default:
		return "Unknown"
	}
}
