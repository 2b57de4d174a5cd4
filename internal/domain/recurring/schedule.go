package recurring

import (
	"time"

	appErrors "Recurra/internal/errors"
	"Recurra/internal/pkg"
)

// maxWeeklyScan limita a varredura semanal: oito dias cobrem qualquer dia da semana.
const maxWeeklyScan = 8

// NextRun devolve a próxima data elegível para geração a partir de anchor, nunca antes de today.
// Opera em datas de calendário; horários e fusos de anchor/today são descartados.
// A data de fim não é considerada aqui: decidir entre agendar ou desativar cabe ao Generator.
func NextRun(cfg FrequencyConfig, anchor, today time.Time) (time.Time, error) {
	anchor = pkg.DateOf(anchor)
	today = pkg.DateOf(today)

	switch c := cfg.(type) {
	case Daily:
		if !anchor.Before(today) {
			return anchor, nil
		}
		return today.AddDate(0, 0, 1), nil
	case Weekly:
		return nextWeekly(c, pkg.MaxDate(anchor, today))
	case Monthly:
		return nextMonthly(c.DayOfMonth, pkg.MaxDate(anchor, today)), nil
	case Yearly:
		return nextYearly(c.MonthOfYear, c.DayOfMonth, pkg.MaxDate(anchor, today)), nil
	default:
		return time.Time{}, appErrors.NewConfigurationError("frequency_config", "configuração de frequência ausente ou desconhecida")
	}
}

// NextAfter calcula o cursor seguinte a uma geração bem-sucedida em generated:
// a nova âncora é o dia seguinte, então o resultado avança estritamente.
func NextAfter(cfg FrequencyConfig, generated, today time.Time) (time.Time, error) {
	return NextRun(cfg, pkg.DateOf(generated).AddDate(0, 0, 1), today)
}

func nextWeekly(cfg Weekly, from time.Time) (time.Time, error) {
	day := from
	for i := 0; i < maxWeeklyScan; i++ {
		if cfg.Has(day.Weekday()) {
			return day, nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, appErrors.NewConfigurationError("days_of_week", "nenhum dia da semana configurado corresponde")
}

func nextMonthly(dayOfMonth int, from time.Time) time.Time {
	year, month := from.Year(), from.Month()
	for {
		candidate := clampedDate(year, month, dayOfMonth)
		if !candidate.Before(from) {
			return candidate
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
}

func nextYearly(monthOfYear time.Month, dayOfMonth int, from time.Time) time.Time {
	year := from.Year()
	for {
		candidate := clampedDate(year, monthOfYear, dayOfMonth)
		if !candidate.Before(from) {
			return candidate
		}
		year++
	}
}

// clampedDate monta a data rebaixando o dia para o último dia do mês quando necessário
// (31 em abril vira 30; 29, 30 ou 31 em fevereiro viram 28 ou 29).
func clampedDate(year int, month time.Month, day int) time.Time {
	if last := pkg.DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Occurrences lista as datas de geração de cfg a partir do cursor from até to (inclusivos),
// respeitando a data de fim quando informada. Depois do cursor cada data segue NextAfter
// com a referência today, como a execução de recuperação faz: um cursor diário atrasado
// aparece uma vez e a sequência continua a partir de hoje.
func Occurrences(cfg FrequencyConfig, from, today, to time.Time, end *time.Time) ([]time.Time, error) {
	from, today, to = pkg.DateOf(from), pkg.DateOf(today), pkg.DateOf(to)
	var out []time.Time

	next, err := NextRun(cfg, from, from)
	if err != nil {
		return nil, err
	}
	for !next.After(to) {
		if end != nil && next.After(pkg.DateOf(*end)) {
			break
		}
		out = append(out, next)
		if next, err = NextAfter(cfg, next, today); err != nil {
			return nil, err
		}
	}
	return out, nil
}
