package recurring

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	appErrors "Recurra/internal/errors"
)

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "DAILY"
	FrequencyWeekly  FrequencyType = "WEEKLY"
	FrequencyMonthly FrequencyType = "MONTHLY"
	FrequencyYearly  FrequencyType = "YEARLY"
)

func (f FrequencyType) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

type FrequencyConfig interface {
	Frequency() FrequencyType
	validate() error
}

type Daily struct{}

type Weekly struct {
	DaysOfWeek []time.Weekday `json:"days_of_week"`
}

type Monthly struct {
	DayOfMonth int `json:"day_of_month"`
}

type Yearly struct {
	MonthOfYear time.Month `json:"month_of_year"`
	DayOfMonth  int        `json:"day_of_month"`
}

func (Daily) Frequency() FrequencyType   { return FrequencyDaily }
func (Weekly) Frequency() FrequencyType  { return FrequencyWeekly }
func (Monthly) Frequency() FrequencyType { return FrequencyMonthly }
func (Yearly) Frequency() FrequencyType  { return FrequencyYearly }

func (Daily) validate() error { return nil }

func (w Weekly) validate() error {
	if len(w.DaysOfWeek) == 0 {
		return appErrors.NewConfigurationError("days_of_week", "informe ao menos um dia da semana")
	}
	for _, d := range w.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return appErrors.NewConfigurationError("days_of_week", "dias devem estar entre 0 (domingo) e 6 (sábado)")
		}
	}
	return nil
}

func (m Monthly) validate() error {
	return validateDayOfMonth(m.DayOfMonth)
}

func (y Yearly) validate() error {
	if y.MonthOfYear < time.January || y.MonthOfYear > time.December {
		return appErrors.NewConfigurationError("month_of_year", "mês deve estar entre 1 e 12")
	}
	return validateDayOfMonth(y.DayOfMonth)
}

func validateDayOfMonth(day int) error {
	if day < 1 || day > 31 {
		return appErrors.NewConfigurationError("day_of_month", "dia deve estar entre 1 e 31")
	}
	return nil
}

func (w Weekly) Has(day time.Weekday) bool {
	for _, d := range w.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

func NewWeekly(days ...time.Weekday) (Weekly, error) {
	seen := make(map[time.Weekday]struct{}, len(days))
	set := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		set = append(set, d)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	w := Weekly{DaysOfWeek: set}
	if err := w.validate(); err != nil {
		return Weekly{}, err
	}
	return w, nil
}

func NewMonthly(dayOfMonth int) (Monthly, error) {
	m := Monthly{DayOfMonth: dayOfMonth}
	if err := m.validate(); err != nil {
		return Monthly{}, err
	}
	return m, nil
}

func NewYearly(month time.Month, dayOfMonth int) (Yearly, error) {
	y := Yearly{MonthOfYear: month, DayOfMonth: dayOfMonth}
	if err := y.validate(); err != nil {
		return Yearly{}, err
	}
	return y, nil
}

type FrequencyParams struct {
	DaysOfWeek  []int `json:"days_of_week,omitempty" bson:"days_of_week,omitempty"`
	DayOfMonth  int   `json:"day_of_month,omitempty" bson:"day_of_month,omitempty"`
	MonthOfYear int   `json:"month_of_year,omitempty" bson:"month_of_year,omitempty"`
}

// NewFrequencyConfig converte o par (frequência, parâmetros) na variante correspondente,
// rejeitando com CONFIGURATION_ERROR qualquer combinação inválida.
func NewFrequencyConfig(frequency FrequencyType, params FrequencyParams) (FrequencyConfig, error) {
	switch frequency {
	case FrequencyDaily:
		return Daily{}, nil
	case FrequencyWeekly:
		days := make([]time.Weekday, 0, len(params.DaysOfWeek))
		for _, d := range params.DaysOfWeek {
			days = append(days, time.Weekday(d))
		}
		return NewWeekly(days...)
	case FrequencyMonthly:
		return NewMonthly(params.DayOfMonth)
	case FrequencyYearly:
		return NewYearly(time.Month(params.MonthOfYear), params.DayOfMonth)
	default:
		return nil, appErrors.NewConfigurationError("frequency", fmt.Sprintf("frequência inválida: %q", frequency))
	}
}

// ParamsOf faz o caminho inverso de NewFrequencyConfig.
func ParamsOf(cfg FrequencyConfig) FrequencyParams {
	switch c := cfg.(type) {
	case Weekly:
		days := make([]int, 0, len(c.DaysOfWeek))
		for _, d := range c.DaysOfWeek {
			days = append(days, int(d))
		}
		return FrequencyParams{DaysOfWeek: days}
	case Monthly:
		return FrequencyParams{DayOfMonth: c.DayOfMonth}
	case Yearly:
		return FrequencyParams{MonthOfYear: int(c.MonthOfYear), DayOfMonth: c.DayOfMonth}
	default:
		return FrequencyParams{}
	}
}

func EncodeConfig(cfg FrequencyConfig) ([]byte, error) {
	return json.Marshal(ParamsOf(cfg))
}

func DecodeConfig(frequency FrequencyType, data []byte) (FrequencyConfig, error) {
	var params FrequencyParams
	if len(data) > 0 {
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, appErrors.NewConfigurationError("frequency_config", "configuração de frequência ilegível").WithError(err)
		}
	}
	return NewFrequencyConfig(frequency, params)
}

// ValidateConfig confere que a variante está válida e casa com a frequência declarada.
func ValidateConfig(frequency FrequencyType, cfg FrequencyConfig) error {
	if cfg == nil {
		return appErrors.NewConfigurationError("frequency_config", "configuração de frequência ausente")
	}
	if cfg.Frequency() != frequency {
		return appErrors.NewConfigurationError("frequency_config",
			fmt.Sprintf("configuração %s não corresponde a frequência %s", cfg.Frequency(), frequency))
	}
	return cfg.validate()
}
