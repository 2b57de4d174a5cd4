package fx

import (
	"log"

	"Recurra/config"
	"Recurra/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		loadConfig,
	),
	fx.Invoke(
		initLogger,
	),
)

// loadConfig lê o .env antes de montar a configuração; variáveis já
// definidas no ambiente prevalecem.
func loadConfig() (*config.Config, error) {
	LoadEnvFiles()
	return config.Load()
}

func LoadEnvFiles() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: não foi possível carregar .env do diretório atual: %v", err)
	}
}

func initLogger(cfg *config.Config) {
	logger.Init(cfg)
}
