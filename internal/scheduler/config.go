package scheduler

import "time"

// TimeSlot is a fixed teaching window expressed as HH:MM strings.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Config tunes class generation. Zero values fall back to the defaults below.
type Config struct {
	ClassesPerWeek      int            `json:"classesPerWeek"`
	Days                []time.Weekday `json:"days"`
	TimeSlots           []TimeSlot     `json:"timeSlots"`
	DurationWeeks       int            `json:"durationWeeks"`
	SemesterStart       time.Time      `json:"semesterStart"`
	HonorClassesPerWeek bool           `json:"honorClassesPerWeek"`
}

const (
	defaultClassesPerWeek = 2
	defaultDurationWeeks  = 12
	examDurationMinutes   = 120
	examLeadDays          = 7
)

// DefaultDays is Monday through Friday.
var DefaultDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// DefaultTimeSlots are five two-hour blocks between 08:00 and 18:00.
var DefaultTimeSlots = []TimeSlot{
	{Start: "08:00", End: "10:00"},
	{Start: "10:00", End: "12:00"},
	{Start: "12:00", End: "14:00"},
	{Start: "14:00", End: "16:00"},
	{Start: "16:00", End: "18:00"},
}

// ExamTimes lists the start times an exam may be placed in.
var ExamTimes = []string{"09:00", "14:00"}

func (c Config) withDefaults(now time.Time) Config {
	if c.ClassesPerWeek <= 0 {
		c.ClassesPerWeek = defaultClassesPerWeek
	}
	if len(c.Days) == 0 {
		c.Days = append([]time.Weekday(nil), DefaultDays...)
	}
	if len(c.TimeSlots) == 0 {
		c.TimeSlots = append([]TimeSlot(nil), DefaultTimeSlots...)
	}
	if c.DurationWeeks <= 0 {
		c.DurationWeeks = defaultDurationWeeks
	}
	if c.SemesterStart.IsZero() {
		c.SemesterStart = now
	}
	c.SemesterStart = TruncateDate(c.SemesterStart)
	return c
}

// sessionsPerModule is one unless the weekly class count is explicitly honoured.
func (c Config) sessionsPerModule() int {
	if !c.HonorClassesPerWeek {
		return 1
	}
	if c.ClassesPerWeek > len(c.Days) {
		return len(c.Days)
	}
	return c.ClassesPerWeek
}
