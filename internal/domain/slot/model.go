package slot

import (
	"fmt"
	"time"
)

// Slot is a numbered seat inside a league, holding exactly one team
// (human or bot). A team occupies at most one seat across the whole
// system; the dedupe sweep restores that invariant when it breaks.
type Slot struct {
	LeagueID string
	Number   int
	TeamID   string
	IsBot    bool
	LockedAt time.Time
}

func (s Slot) Validate() error {
	if s.LeagueID == "" {
		return fmt.Errorf("slot league id is required")
	}
	if s.Number < 1 {
		return fmt.Errorf("slot number must be >= 1")
	}
	if s.TeamID == "" {
		return fmt.Errorf("slot team id is required")
	}
	return nil
}

// Membership is the denormalized "this team is in this league" record
// used for fast existence checks on the assignment fast path.
type Membership struct {
	TeamID     string
	LeagueID   string
	SlotNumber int
	JoinedAt   time.Time
}

// CanonicalPick chooses the authoritative seat when a team is found in
// more than one. It prefers the seat matching the membership record's
// league, then the most recently locked seat.
func CanonicalPick(seats []Slot, memberLeagueID string) (Slot, []Slot) {
	if len(seats) == 0 {
		return Slot{}, nil
	}
	canonical := seats[0]
	for _, s := range seats[1:] {
		if betterCanonical(s, canonical, memberLeagueID) {
			canonical = s
		}
	}
	demoted := make([]Slot, 0, len(seats)-1)
	for _, s := range seats {
		if s.LeagueID == canonical.LeagueID && s.Number == canonical.Number {
			continue
		}
		demoted = append(demoted, s)
	}
	return canonical, demoted
}

func betterCanonical(candidate, current Slot, memberLeagueID string) bool {
	candidateMatches := memberLeagueID != "" && candidate.LeagueID == memberLeagueID
	currentMatches := memberLeagueID != "" && current.LeagueID == memberLeagueID
	if candidateMatches != currentMatches {
		return candidateMatches
	}
	return candidate.LockedAt.After(current.LockedAt)
}
