package league

import (
	"fmt"
	"strings"
	"time"
)

const (
	StateForming   = "forming"
	StateScheduled = "scheduled"
	StateActive    = "active"
	StateCompleted = "completed"
)

// League is a capacity-bounded competition sharing one fixture calendar
// and one standings table.
type League struct {
	ID          string
	Name        string
	Season      int
	Capacity    int
	Timezone    string
	State       string
	Rounds      int
	MemberCount int
	KickoffAt   *time.Time
	CreatedAt   time.Time
}

func (l League) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("league id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Capacity < 2 {
		return fmt.Errorf("league capacity must be >= 2")
	}
	if l.Season < 1 {
		return fmt.Errorf("league season must be >= 1")
	}
	if !IsValidState(l.State) {
		return fmt.Errorf("invalid league state %q", l.State)
	}

	return nil
}

func (l League) IsFull() bool {
	return l.MemberCount >= l.Capacity
}

func IsValidState(state string) bool {
	switch state {
	case StateForming, StateScheduled, StateActive, StateCompleted:
		return true
	default:
		return false
	}
}

// CanTransition enforces the one-way lifecycle. The only way back is an
// administrative reset, which bypasses this check on purpose.
func CanTransition(from, to string) bool {
	switch from {
	case StateForming:
		return to == StateScheduled
	case StateScheduled:
		return to == StateActive
	case StateActive:
		return to == StateCompleted
	default:
		return false
	}
}

// NextKickoff computes the next daily slot (tomorrow at kickoffHour local
// time) in the league's timezone, returned in UTC.
func NextKickoff(now time.Time, timezone string, kickoffHour int) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, kickoffHour, 0, 0, 0, loc)
	return next.UTC()
}

// SeasonCode formats the season label used in artifact and replay paths.
func SeasonCode(season int) string {
	return fmt.Sprintf("S%d", season)
}
