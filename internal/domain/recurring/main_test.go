package recurring_test

import (
	"io"
	"os"
	"testing"

	"Recurra/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}
