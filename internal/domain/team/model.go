package team

import (
	"fmt"
	"strings"
)

// Team is an occupant eligible to hold a league seat: either human-owned
// or a synthetic bot keeping the calendar full.
type Team struct {
	ID        string
	Name      string
	OwnerID   string
	IsBot     bool
	Rating    int
	Formation string
	Tactics   string
	Players   []Player
}

// Player carries the roster attributes the match plan snapshot needs.
type Player struct {
	ID       string
	Name     string
	Role     string
	Position string
	Rating   int
	Stamina  int
	Traits   []string
}

const (
	RoleStarter = "starter"
	RoleBench   = "bench"
	RoleReserve = "reserve"
)

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if !t.IsBot && strings.TrimSpace(t.OwnerID) == "" {
		return fmt.Errorf("human team requires an owner id")
	}
	return nil
}

// Lineup splits the roster into the ordered starter and bench id lists
// frozen into a match plan.
func (t Team) Lineup() (starters, bench []Player) {
	for _, p := range t.Players {
		switch p.Role {
		case RoleStarter:
			starters = append(starters, p)
		case RoleBench:
			bench = append(bench, p)
		}
	}
	return starters, bench
}
