package Scheduler

import "time"

const (
	// Working day boundaries for field visits.
	DayStartHour = 8
	DayEndHour   = 17

	// SlotBuffer is the travel and handover gap between consecutive jobs.
	SlotBuffer = 30 * time.Minute

	// DefaultJobHours sizes a visit when the order carries no estimate.
	DefaultJobHours = 2.0
)

// NextSlot returns the earliest workable start after the given time: buffer
// applied, clamped into the working day, weekends rolled forward to Monday
// morning.
func NextSlot(after time.Time) time.Time {
	slot := after.Add(SlotBuffer)
	if slot.Hour() >= DayEndHour {
		slot = atHour(slot.AddDate(0, 0, 1), DayStartHour)
	} else if slot.Hour() < DayStartHour {
		slot = atHour(slot, DayStartHour)
	}
	for isWeekend(slot) {
		slot = atHour(slot.AddDate(0, 0, 1), DayStartHour)
	}
	return slot
}

// SlotEnd places the end of a visit that starts at the given time.
func SlotEnd(start time.Time, estimatedHours float64) time.Time {
	hours := estimatedHours
	if hours <= 0 {
		hours = DefaultJobHours
	}
	return start.Add(time.Duration(hours * float64(time.Hour)))
}

func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
