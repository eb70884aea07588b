package postgres

import (
	"time"

	"github.com/ligatr/league-engine/internal/domain/slot"
)

type slotTableModel struct {
	LeagueID string    `db:"league_id"`
	Number   int       `db:"slot_number"`
	TeamID   string    `db:"team_id"`
	IsBot    bool      `db:"is_bot"`
	LockedAt time.Time `db:"locked_at"`
}

func (m slotTableModel) toDomain() slot.Slot {
	return slot.Slot{
		LeagueID: m.LeagueID,
		Number:   m.Number,
		TeamID:   m.TeamID,
		IsBot:    m.IsBot,
		LockedAt: m.LockedAt,
	}
}

func slotModelFromDomain(s slot.Slot) slotTableModel {
	return slotTableModel{
		LeagueID: s.LeagueID,
		Number:   s.Number,
		TeamID:   s.TeamID,
		IsBot:    s.IsBot,
		LockedAt: s.LockedAt,
	}
}

type membershipTableModel struct {
	TeamID     string    `db:"team_id"`
	LeagueID   string    `db:"league_id"`
	SlotNumber int       `db:"slot_number"`
	JoinedAt   time.Time `db:"joined_at"`
}

func (m membershipTableModel) toDomain() slot.Membership {
	return slot.Membership{
		TeamID:     m.TeamID,
		LeagueID:   m.LeagueID,
		SlotNumber: m.SlotNumber,
		JoinedAt:   m.JoinedAt,
	}
}

func membershipModelFromDomain(m slot.Membership) membershipTableModel {
	return membershipTableModel{
		TeamID:     m.TeamID,
		LeagueID:   m.LeagueID,
		SlotNumber: m.SlotNumber,
		JoinedAt:   m.JoinedAt,
	}
}
