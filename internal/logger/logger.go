package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"Recurra/config"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configura o nível e o formato de saída conforme o ambiente.
func Init(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	log = zerolog.New(out).With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("environment", cfg.App.Environment).
		Logger()
}

// SetOutput troca o destino dos logs; usado em testes.
func SetOutput(w io.Writer) {
	log = log.Output(w)
}

func Get() *zerolog.Logger {
	return &log
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
