package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func TestRuleValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(15)}
		if err := r.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unsupported_frequency", func(t *testing.T) {
		r := &Rule{Frequency: "fortnightly", Interval: 1}
		if err := r.Validate(); err == nil {
			t.Error("expected error for unsupported frequency")
		}
	})

	t.Run("zero_interval", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyDaily, Interval: 0}
		if err := r.Validate(); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("day_of_month_out_of_range", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(32)}
		if err := r.Validate(); err == nil {
			t.Error("expected error for day_of_month 32")
		}
	})
}

func TestNext(t *testing.T) {
	t.Run("daily", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyDaily, Interval: 3}
		next, ok := r.Next(date(2025, time.June, 10))
		if !ok || !next.Equal(date(2025, time.June, 13)) {
			t.Errorf("expected 2025-06-13, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("weekly", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyWeekly, Interval: 2}
		next, ok := r.Next(date(2025, time.June, 10))
		if !ok || !next.Equal(date(2025, time.June, 24)) {
			t.Errorf("expected 2025-06-24, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("monthly_clamps_to_short_month", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(31)}

		next, ok := r.Next(date(2025, time.March, 31))
		if !ok || !next.Equal(date(2025, time.April, 30)) {
			t.Errorf("expected 2025-04-30, got %v (ok=%v)", next, ok)
		}

		next, ok = r.Next(next)
		if !ok || !next.Equal(date(2025, time.May, 31)) {
			t.Errorf("expected 2025-05-31, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("monthly_february_leap_year", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(30)}
		next, ok := r.Next(date(2024, time.January, 30))
		if !ok || !next.Equal(date(2024, time.February, 29)) {
			t.Errorf("expected 2024-02-29, got %v (ok=%v)", next, ok)
		}

		next, ok = r.Next(date(2025, time.January, 30))
		if !ok || !next.Equal(date(2025, time.February, 28)) {
			t.Errorf("expected 2025-02-28, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("monthly_no_overflow_into_next_month", func(t *testing.T) {
		// Without explicit clamping, Jan 31 + 1 month normalizes to Mar 3.
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(31)}
		next, ok := r.Next(date(2025, time.January, 31))
		if !ok || !next.Equal(date(2025, time.February, 28)) {
			t.Errorf("expected 2025-02-28, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("yearly_leap_day", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyYearly, Interval: 1}
		next, ok := r.Next(date(2024, time.February, 29))
		if !ok || !next.Equal(date(2025, time.February, 28)) {
			t.Errorf("expected 2025-02-28, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("end_date_cuts_off", func(t *testing.T) {
		end := date(2025, time.June, 30)
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, EndDate: &end}
		if _, ok := r.Next(date(2025, time.June, 15)); ok {
			t.Error("expected no occurrence past end date")
		}
	})

	t.Run("end_date_allows_final_occurrence", func(t *testing.T) {
		end := date(2025, time.July, 15)
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(15)}
		r.EndDate = &end
		next, ok := r.Next(date(2025, time.June, 15))
		if !ok || !next.Equal(date(2025, time.July, 15)) {
			t.Errorf("expected 2025-07-15, got %v (ok=%v)", next, ok)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 2, DayOfMonth: intPtr(29)}
		from := date(2025, time.January, 29)
		a, okA := r.Next(from)
		b, okB := r.Next(from)
		if okA != okB || !a.Equal(b) {
			t.Errorf("Next is not deterministic: %v vs %v", a, b)
		}
	})
}

func TestExpand(t *testing.T) {
	t.Run("finite_horizon", func(t *testing.T) {
		r := &Rule{Frequency: FrequencyMonthly, Interval: 1, DayOfMonth: intPtr(1)}
		dates := r.Expand(date(2025, time.January, 1), date(2025, time.June, 30))
		if len(dates) != 5 {
			t.Fatalf("expected 5 occurrences, got %d", len(dates))
		}
		if !dates[0].Equal(date(2025, time.February, 1)) {
			t.Errorf("first occurrence: expected 2025-02-01, got %v", dates[0])
		}
		if !dates[4].Equal(date(2025, time.June, 1)) {
			t.Errorf("last occurrence: expected 2025-06-01, got %v", dates[4])
		}
	})

	t.Run("end_date_before_horizon", func(t *testing.T) {
		end := date(2025, time.March, 31)
		r := &Rule{Frequency: FrequencyWeekly, Interval: 1, EndDate: &end}
		dates := r.Expand(date(2025, time.March, 1), date(2025, time.December, 31))
		for _, d := range dates {
			if d.After(end) {
				t.Errorf("occurrence %v exceeds end date", d)
			}
		}
		if len(dates) != 4 {
			t.Errorf("expected 4 occurrences, got %d", len(dates))
		}
	})

	t.Run("empty_when_rule_ended", func(t *testing.T) {
		end := date(2024, time.December, 31)
		r := &Rule{Frequency: FrequencyDaily, Interval: 1, EndDate: &end}
		if dates := r.Expand(date(2025, time.January, 1), date(2025, time.December, 31)); len(dates) != 0 {
			t.Errorf("expected no occurrences, got %d", len(dates))
		}
	})
}
