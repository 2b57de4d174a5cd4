package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBadRequest        = NewAppError("BAD_REQUEST", "Requisição inválida", http.StatusBadRequest)
	ErrTooManyRequests   = NewAppError("TOO_MANY_REQUESTS", "Muitas requisições, tente novamente em instantes", http.StatusTooManyRequests)
	ErrRecurringNotFound = NewAppError("RECURRING_NOT_FOUND", "Despesa recorrente não encontrada", http.StatusNotFound)
)

const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodePersistence   = "PERSISTENCE_ERROR"
	CodeFatal         = "GENERATION_ABORTED"
)

type AppError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is compara pelo código, assim errors.Is(err, ErrRecurringNotFound) funciona com clones.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	clone := e.clone()
	clone.Err = err
	return clone
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func WrapError(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
		Details:    make(map[string]interface{}),
	}
}

func (e *AppError) clone() *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	return &clone
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func FromError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	if errors.Is(err, context.Canceled) {
		return WrapError(err, "REQUEST_CANCELED", "Requisição cancelada pelo cliente", http.StatusRequestTimeout)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, "TIMEOUT", "Tempo limite excedido", http.StatusGatewayTimeout)
	}

	return WrapError(err, "UNKNOWN_ERROR", "Erro desconhecido", http.StatusInternalServerError)
}

func NewValidationError(field, message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// NewConfigurationError sinaliza uma regra de frequência inválida, rejeitada antes de chegar ao agendador.
func NewConfigurationError(field, message string) *AppError {
	return &AppError{
		Code:       CodeConfiguration,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

func NewPersistenceError(err error) *AppError {
	return WrapError(err, CodePersistence, "Falha ao gravar no repositório", http.StatusServiceUnavailable)
}

func NewFatalError(err error) *AppError {
	return WrapError(err, CodeFatal, "Execução de geração abortada: repositório indisponível", http.StatusServiceUnavailable)
}

func NewDatabaseError(err error) *AppError {
	return WrapError(err, "DATABASE_ERROR", "Erro ao executar operação no banco de dados", http.StatusInternalServerError)
}

func ParseValidationErrors(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ErrBadRequest.WithError(err)
	}

	fieldErrors := make([]map[string]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fieldErrors = append(fieldErrors, map[string]string{
			"field":   translateFieldName(fieldErr.Field()),
			"message": translateValidationError(fieldErr),
		})
	}

	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "Erro de validação nos campos",
		StatusCode: http.StatusBadRequest,
		Details: map[string]interface{}{
			"fields": fieldErrors,
		},
	}
}

func translateFieldName(field string) string {
	fieldMap := map[string]string{
		"amount":          "valor",
		"name":            "nome",
		"category":        "categoria",
		"frequency":       "frequência",
		"frequencyconfig": "configuração da frequência",
		"daysofweek":      "dias da semana",
		"dayofmonth":      "dia do mês",
		"monthofyear":     "mês do ano",
		"startdate":       "data de início",
		"enddate":         "data de fim",
		"days":            "dias",
	}
	if translated, ok := fieldMap[strings.ToLower(field)]; ok {
		return translated
	}
	return field
}

func translateValidationError(fe validator.FieldError) string {
	fieldName := translateFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", fieldName)
	case "min":
		return fmt.Sprintf("%s deve ser no mínimo %s", fieldName, fe.Param())
	case "max":
		return fmt.Sprintf("%s deve ser no máximo %s", fieldName, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", fieldName, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", fieldName, fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", fieldName, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um dos valores: %s", fieldName, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s deve ser uma data válida", fieldName)
	default:
		return fmt.Sprintf("Validação '%s' falhou para %s", fe.Tag(), fieldName)
	}
}
