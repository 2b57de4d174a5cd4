package recurring_test

import (
	"testing"
	"time"

	"Recurra/internal/domain/recurring"
	appErrors "Recurra/internal/errors"
)

func TestNewFrequencyConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		frequency recurring.FrequencyType
		params    recurring.FrequencyParams
		want      recurring.FrequencyConfig
		wantErr   bool
	}{
		{name: "daily ignores params", frequency: recurring.FrequencyDaily, params: recurring.FrequencyParams{DayOfMonth: 9}, want: recurring.Daily{}},
		{
			name:      "weekly dedupes and sorts",
			frequency: recurring.FrequencyWeekly,
			params:    recurring.FrequencyParams{DaysOfWeek: []int{5, 1, 3, 1}},
			want:      recurring.Weekly{DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		},
		{name: "weekly empty", frequency: recurring.FrequencyWeekly, wantErr: true},
		{name: "weekly out of range", frequency: recurring.FrequencyWeekly, params: recurring.FrequencyParams{DaysOfWeek: []int{7}}, wantErr: true},
		{name: "monthly", frequency: recurring.FrequencyMonthly, params: recurring.FrequencyParams{DayOfMonth: 31}, want: recurring.Monthly{DayOfMonth: 31}},
		{name: "monthly zero", frequency: recurring.FrequencyMonthly, wantErr: true},
		{name: "monthly 32", frequency: recurring.FrequencyMonthly, params: recurring.FrequencyParams{DayOfMonth: 32}, wantErr: true},
		{
			name:      "yearly",
			frequency: recurring.FrequencyYearly,
			params:    recurring.FrequencyParams{MonthOfYear: 2, DayOfMonth: 29},
			want:      recurring.Yearly{MonthOfYear: time.February, DayOfMonth: 29},
		},
		{name: "yearly month 13", frequency: recurring.FrequencyYearly, params: recurring.FrequencyParams{MonthOfYear: 13, DayOfMonth: 1}, wantErr: true},
		{name: "unknown frequency", frequency: "HOURLY", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := recurring.NewFrequencyConfig(tt.frequency, tt.params)
			if tt.wantErr {
				if !appErrors.HasCode(err, appErrors.CodeConfiguration) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Frequency() != tt.frequency {
				t.Fatalf("expected frequency %s, got %s", tt.frequency, got.Frequency())
			}
			if w, ok := tt.want.(recurring.Weekly); ok {
				gw := got.(recurring.Weekly)
				if len(gw.DaysOfWeek) != len(w.DaysOfWeek) {
					t.Fatalf("expected days %v, got %v", w.DaysOfWeek, gw.DaysOfWeek)
				}
				for i := range w.DaysOfWeek {
					if gw.DaysOfWeek[i] != w.DaysOfWeek[i] {
						t.Fatalf("expected days %v, got %v", w.DaysOfWeek, gw.DaysOfWeek)
					}
				}
				return
			}
			if got != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestEncodeDecodeConfig(t *testing.T) {
	t.Parallel()

	cfg, err := recurring.NewYearly(time.December, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := recurring.EncodeConfig(cfg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data) != `{"day_of_month":25,"month_of_year":12}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	decoded, err := recurring.DecodeConfig(recurring.FrequencyYearly, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != cfg {
		t.Fatalf("expected %#v, got %#v", cfg, decoded)
	}
}

func TestDecodeConfigRejectsMismatch(t *testing.T) {
	t.Parallel()

	// Parâmetros mensais gravados para uma definição semanal.
	_, err := recurring.DecodeConfig(recurring.FrequencyWeekly, []byte(`{"day_of_month":10}`))
	if !appErrors.HasCode(err, appErrors.CodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	_, err = recurring.DecodeConfig(recurring.FrequencyMonthly, []byte(`{not json`))
	if !appErrors.HasCode(err, appErrors.CodeConfiguration) {
		t.Fatalf("expected configuration error for invalid json, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	if err := recurring.ValidateConfig(recurring.FrequencyDaily, recurring.Daily{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := recurring.ValidateConfig(recurring.FrequencyMonthly, recurring.Daily{}); !appErrors.HasCode(err, appErrors.CodeConfiguration) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if err := recurring.ValidateConfig(recurring.FrequencyWeekly, recurring.Weekly{}); !appErrors.HasCode(err, appErrors.CodeConfiguration) {
		t.Fatalf("expected empty weekly error, got %v", err)
	}
	if err := recurring.ValidateConfig(recurring.FrequencyDaily, nil); !appErrors.HasCode(err, appErrors.CodeConfiguration) {
		t.Fatalf("expected nil config error, got %v", err)
	}
}
