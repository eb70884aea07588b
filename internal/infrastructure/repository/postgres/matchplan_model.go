package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/domain/matchplan"
)

type matchPlanTableModel struct {
	MatchID   string    `db:"match_id"`
	LeagueID  string    `db:"league_id"`
	CreatedAt time.Time `db:"created_at"`
	Plan      []byte    `db:"plan"`
}

// planDoc is the JSONB body of match_plans.plan. The side team ids are
// duplicated into the document so the artifact consumer never needs a
// second lookup.
type planDoc struct {
	Home planSideDoc `json:"home"`
	Away planSideDoc `json:"away"`
}

type planSideDoc struct {
	TeamID    string          `json:"teamId"`
	Name      string          `json:"name,omitempty"`
	Formation string          `json:"formation,omitempty"`
	Tactics   string          `json:"tactics,omitempty"`
	Starters  []planPlayerDoc `json:"starters,omitempty"`
	Bench     []planPlayerDoc `json:"bench,omitempty"`
}

type planPlayerDoc struct {
	PlayerID string   `json:"playerId"`
	Position string   `json:"position,omitempty"`
	Rating   int      `json:"rating,omitempty"`
	Stamina  int      `json:"stamina,omitempty"`
	Traits   []string `json:"traits,omitempty"`
}

func (m matchPlanTableModel) toDomain() (matchplan.Plan, error) {
	var doc planDoc
	if err := sonic.Unmarshal(m.Plan, &doc); err != nil {
		return matchplan.Plan{}, fmt.Errorf("decode match plan %s: %w", m.MatchID, err)
	}
	return matchplan.Plan{
		MatchID:   m.MatchID,
		LeagueID:  m.LeagueID,
		CreatedAt: m.CreatedAt,
		Home:      doc.Home.toDomain(),
		Away:      doc.Away.toDomain(),
	}, nil
}

func (d planSideDoc) toDomain() matchplan.Side {
	return matchplan.Side{
		TeamID:    d.TeamID,
		Name:      d.Name,
		Formation: d.Formation,
		Tactics:   d.Tactics,
		Starters:  planPlayersToDomain(d.Starters),
		Bench:     planPlayersToDomain(d.Bench),
	}
}

func planPlayersToDomain(docs []planPlayerDoc) []matchplan.PlannedPlayer {
	if len(docs) == 0 {
		return nil
	}
	out := make([]matchplan.PlannedPlayer, 0, len(docs))
	for _, d := range docs {
		out = append(out, matchplan.PlannedPlayer{
			PlayerID: d.PlayerID,
			Position: d.Position,
			Rating:   d.Rating,
			Stamina:  d.Stamina,
			Traits:   d.Traits,
		})
	}
	return out
}

func matchPlanModelFromDomain(p matchplan.Plan) (matchPlanTableModel, error) {
	doc := planDoc{
		Home: planSideFromDomain(p.Home),
		Away: planSideFromDomain(p.Away),
	}
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return matchPlanTableModel{}, fmt.Errorf("encode match plan %s: %w", p.MatchID, err)
	}
	return matchPlanTableModel{
		MatchID:   p.MatchID,
		LeagueID:  p.LeagueID,
		CreatedAt: p.CreatedAt,
		Plan:      raw,
	}, nil
}

func planSideFromDomain(s matchplan.Side) planSideDoc {
	return planSideDoc{
		TeamID:    s.TeamID,
		Name:      s.Name,
		Formation: s.Formation,
		Tactics:   s.Tactics,
		Starters:  planPlayersFromDomain(s.Starters),
		Bench:     planPlayersFromDomain(s.Bench),
	}
}

func planPlayersFromDomain(players []matchplan.PlannedPlayer) []planPlayerDoc {
	if len(players) == 0 {
		return nil
	}
	out := make([]planPlayerDoc, 0, len(players))
	for _, p := range players {
		out = append(out, planPlayerDoc{
			PlayerID: p.PlayerID,
			Position: p.Position,
			Rating:   p.Rating,
			Stamina:  p.Stamina,
			Traits:   p.Traits,
		})
	}
	return out
}
