package models

import (
	"fmt"
	"time"
)

// DaysPerWeek is the fixed number of weekly schedule entries.
const DaysPerWeek = 7

// clockLayout is the time-of-day format used by the device service.
const clockLayout = "15:04"

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeeklyScheduleEntry is the power window of one weekday. Day 0 is Monday.
// Times are device-local wall clock values without timezone.
type WeeklyScheduleEntry struct {
	Day       int    `json:"day_of_week"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	StopTime  string `json:"stop_time"`
}

// SchedulePatch holds the fields of a single edit; nil fields keep the current value.
type SchedulePatch struct {
	Enabled   *bool   `json:"enabled,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	StopTime  *string `json:"stop_time,omitempty"`
}

// Apply returns e with the non-nil patch fields applied.
func (p SchedulePatch) Apply(e WeeklyScheduleEntry) WeeklyScheduleEntry {
	if p.Enabled != nil {
		e.Enabled = *p.Enabled
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.StopTime != nil {
		e.StopTime = *p.StopTime
	}
	return e
}

// Empty reports whether the patch changes nothing.
func (p SchedulePatch) Empty() bool {
	return p.Enabled == nil && p.StartTime == nil && p.StopTime == nil
}

// Complete reports whether the patch sets every field.
func (p SchedulePatch) Complete() bool {
	return p.Enabled != nil && p.StartTime != nil && p.StopTime != nil
}

// DayName returns the English weekday name for day, or "" when out of range.
func DayName(day int) string {
	if !ValidDay(day) {
		return ""
	}
	return dayNames[day]
}

func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}

// ValidateClock checks an HH:MM time-of-day value.
func ValidateClock(s string) error {
	if _, err := time.Parse(clockLayout, s); err != nil {
		return fmt.Errorf("invalid time %q: use HH:MM", s)
	}
	return nil
}

// EmptyWeek returns the seven entries before the first load.
func EmptyWeek() [DaysPerWeek]WeeklyScheduleEntry {
	var week [DaysPerWeek]WeeklyScheduleEntry
	for d := range week {
		week[d] = WeeklyScheduleEntry{Day: d, Name: dayNames[d]}
	}
	return week
}
