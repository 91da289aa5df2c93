// Package recurrence turns recurrence rules into concrete calendar dates.
//
// Evaluation is pure: the same rule and anchor date always produce the
// same occurrence, so callers can re-evaluate freely without side effects.
package recurrence

import (
	"time"

	apperrors "tirelire/internal/errors"
	"tirelire/internal/validator"
)

// Frequency is the unit a rule advances by.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Rule describes how a recurring transaction or reminder repeats.
// DayOfMonth anchors monthly/yearly rules; when it exceeds the length of a
// target month the occurrence clamps to that month's last day.
type Rule struct {
	Frequency  Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	Interval   int        `json:"interval" validate:"required,min=1"`
	DayOfMonth *int       `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Validate checks the rule against the wire contract: supported frequency,
// interval >= 1, day_of_month within 1-31.
func (r *Rule) Validate() error {
	if err := validator.Struct(r); err != nil {
		return apperrors.WithMessage(apperrors.ErrValidation, "invalid recurrence rule: "+err.Error())
	}
	return nil
}

// Next computes the first occurrence strictly after from. The second
// return value is false when the rule's end date cuts the series off.
func (r *Rule) Next(from time.Time) (time.Time, bool) {
	candidate := r.advance(from, 1)
	// Clamping can pull a monthly candidate back to or before the anchor
	// (e.g. day 31 anchored on the 31st of a longer month); step once more.
	if !candidate.After(from) {
		candidate = r.advance(from, 2)
	}
	if r.EndDate != nil && candidate.After(*r.EndDate) {
		return time.Time{}, false
	}
	return candidate, true
}

// Expand returns every occurrence after from up to and including horizon.
// The sequence is finite by construction: it stops at the horizon or at
// the rule's end date, whichever comes first.
func (r *Rule) Expand(from, horizon time.Time) []time.Time {
	var dates []time.Time
	cursor := from
	for {
		next, ok := r.Next(cursor)
		if !ok || next.After(horizon) {
			return dates
		}
		dates = append(dates, next)
		cursor = next
	}
}

// advance moves from forward by steps*interval periods of the rule's
// frequency, applying day-of-month clamping for monthly and yearly rules.
func (r *Rule) advance(from time.Time, steps int) time.Time {
	n := r.Interval * steps
	switch r.Frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, n)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return r.addMonths(from, n)
	case FrequencyYearly:
		return r.addYears(from, n)
	}
	return from
}

// addMonths advances by months without the overflow normalization that
// time.AddDate applies (Jan 31 + 1 month must be Feb 28/29, not Mar 3).
func (r *Rule) addMonths(from time.Time, months int) time.Time {
	year, month := from.Year(), int(from.Month())
	total := year*12 + (month - 1) + months
	targetYear := total / 12
	targetMonth := time.Month(total%12 + 1)

	day := from.Day()
	if r.DayOfMonth != nil {
		day = *r.DayOfMonth
	}
	if last := daysIn(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func (r *Rule) addYears(from time.Time, years int) time.Time {
	targetYear := from.Year() + years
	day := from.Day()
	if r.DayOfMonth != nil {
		day = *r.DayOfMonth
	}
	if last := daysIn(targetYear, from.Month()); day > last {
		day = last
	}
	return time.Date(targetYear, from.Month(), day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
