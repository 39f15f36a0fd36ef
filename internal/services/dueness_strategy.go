// Strategy registry for recurring expense dueness. Each frequency has
// a checker deciding whether a template should materialize a new
// expense given when it last did.

package services

import (
	"fmt"
	"time"

	"gastapp/internal/core"
)

// DuenessChecker reports whether a recurring template is due based on
// the last materialization time and the template's start date.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, startDate core.Date) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when 7 or more days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun).Hours()/24 >= 7
}

// MonthlyChecker fires in a new month once the template's start day is
// reached, clamping to the last day of short months.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, startDate core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(startDate.Day(), now)
}

// YearlyChecker fires in a new year once the template's start month and
// day are reached.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, startDate core.Date) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	switch {
	case now.Month() < startDate.Month():
		return false
	case now.Month() == startDate.Month():
		return now.Day() >= clampDay(startDate.Day(), now)
	default:
		return true
	}
}

// clampDay maps a target day of month into the current month, so a
// template started on the 31st still fires in February.
func clampDay(targetDay int, now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDay {
		return lastDay
	}
	return targetDay
}

var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.FrequencyDaily:   DailyChecker{},
	core.FrequencyWeekly:  WeeklyChecker{},
	core.FrequencyMonthly: MonthlyChecker{},
	core.FrequencyYearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error
// for frequencies that never recur.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("no dueness checker for frequency %q", frequency)
	}
	return checker, nil
}
