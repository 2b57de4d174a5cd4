package pkg

import "time"

const DateLayout = "2006-01-02"

// DateOf reduz um instante ao dia de calendário correspondente, em UTC a meia-noite.
// O dia é lido no fuso do próprio valor, não convertido.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func DatePtr(t time.Time) *time.Time {
	return &t
}
