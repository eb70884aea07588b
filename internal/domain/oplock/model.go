package oplock

import "time"

// Lock is a per-day, per-workflow advisory record. Created with
// create-if-absent semantics, never updated; a second trigger of the same
// daily sweep sees the existing record and skips.
type Lock struct {
	Workflow   string
	DayKey     string
	AcquiredAt time.Time
}

// Heartbeat is the daily operational record the watchdog reads. It only
// ever grows; the watchdog itself never writes one.
type Heartbeat struct {
	DayKey          string
	DispatchedCount int
	SettledCount    int
	Notes           string
	UpdatedAt       time.Time
}
