package matchplan

import (
	"fmt"
	"time"
)

// Plan freezes both sides' lineups at dispatch time. Written at most once
// per match; later roster edits never reach a match already in flight.
type Plan struct {
	MatchID   string
	LeagueID  string
	CreatedAt time.Time
	Home      Side
	Away      Side
}

type Side struct {
	TeamID    string
	Name      string
	Formation string
	Tactics   string
	Starters  []PlannedPlayer
	Bench     []PlannedPlayer
}

// PlannedPlayer carries the per-player metadata the simulation engine
// consumes. Position and rating come from a best-effort enrichment pass
// and may be zero-valued when the lookup failed.
type PlannedPlayer struct {
	PlayerID string
	Position string
	Rating   int
	Stamina  int
	Traits   []string
}

func (p Plan) Validate() error {
	if p.MatchID == "" {
		return fmt.Errorf("plan match id is required")
	}
	if p.LeagueID == "" {
		return fmt.Errorf("plan league id is required")
	}
	if p.Home.TeamID == "" || p.Away.TeamID == "" {
		return fmt.Errorf("plan requires both side team ids")
	}
	return nil
}
