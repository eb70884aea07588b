package postgres

import (
	"time"

	"github.com/ligatr/league-engine/internal/domain/league"
)

type leagueTableModel struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Season      int        `db:"season"`
	Capacity    int        `db:"capacity"`
	Timezone    string     `db:"timezone"`
	State       string     `db:"state"`
	Rounds      int        `db:"rounds"`
	MemberCount int        `db:"member_count"`
	KickoffAt   *time.Time `db:"kickoff_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (m leagueTableModel) toDomain() league.League {
	return league.League{
		ID:          m.ID,
		Name:        m.Name,
		Season:      m.Season,
		Capacity:    m.Capacity,
		Timezone:    m.Timezone,
		State:       m.State,
		Rounds:      m.Rounds,
		MemberCount: m.MemberCount,
		KickoffAt:   m.KickoffAt,
		CreatedAt:   m.CreatedAt,
	}
}

func leagueModelFromDomain(l league.League) leagueTableModel {
	return leagueTableModel{
		ID:          l.ID,
		Name:        l.Name,
		Season:      l.Season,
		Capacity:    l.Capacity,
		Timezone:    l.Timezone,
		State:       l.State,
		Rounds:      l.Rounds,
		MemberCount: l.MemberCount,
		KickoffAt:   l.KickoffAt,
		CreatedAt:   l.CreatedAt,
	}
}
