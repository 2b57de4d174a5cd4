package infrastructure

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// isDuplicateKey reconhece violação de índice único no postgres (traduzida ou não pelo gorm)
// e no mongo.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "23505") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "violates unique constraint")
}
