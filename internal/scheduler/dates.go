package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for every date field.
const DateLayout = "2006-01-02"

// TruncateDate drops the clock part, keeping the calendar day in UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return TruncateDate(t), nil
}

// NextWeekday walks forward from start until it lands on day. start itself counts.
func NextWeekday(start time.Time, day time.Weekday) time.Time {
	current := TruncateDate(start)
	for current.Weekday() != day {
		current = current.AddDate(0, 0, 1)
	}
	return current
}

// maxOccurrences bounds WeeklyDates for windows with a corrupt end date.
const maxOccurrences = 260

// WeeklyDates lists every day-of-week occurrence from start up to, but not
// including, end. The first occurrence is always returned.
func WeeklyDates(start, end time.Time, day time.Weekday) []time.Time {
	current := NextWeekday(start, day)
	dates := []time.Time{current}
	end = TruncateDate(end)
	for len(dates) < maxOccurrences {
		current = current.AddDate(0, 0, 7)
		if !current.Before(end) {
			break
		}
		dates = append(dates, current)
	}
	return dates
}

// ParseWeekday accepts full or three-letter English day names in any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid day of week %q", raw)
}

func moduleWindow(semesterStart time.Time, index, total, durationWeeks int) (time.Time, time.Time) {
	weeksOffset := index * durationWeeks / total
	start := semesterStart.AddDate(0, 0, 7*weeksOffset)
	end := start.AddDate(0, 0, 7*durationWeeks)
	return start, end
}
