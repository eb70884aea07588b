package postgres

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/domain/team"
)

type teamTableModel struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	OwnerID   string `db:"owner_id"`
	IsBot     bool   `db:"is_bot"`
	Rating    int    `db:"rating"`
	Formation string `db:"formation"`
	Tactics   string `db:"tactics"`
	Players   []byte `db:"players"`
}

// rosterPlayerDoc is the JSONB shape of one player inside teams.players.
type rosterPlayerDoc struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Position string   `json:"position"`
	Rating   int      `json:"rating"`
	Stamina  int      `json:"stamina"`
	Traits   []string `json:"traits,omitempty"`
}

func (m teamTableModel) toDomain() (team.Team, error) {
	t := team.Team{
		ID:        m.ID,
		Name:      m.Name,
		OwnerID:   m.OwnerID,
		IsBot:     m.IsBot,
		Rating:    m.Rating,
		Formation: m.Formation,
		Tactics:   m.Tactics,
	}
	if len(m.Players) == 0 {
		return t, nil
	}

	var docs []rosterPlayerDoc
	if err := sonic.Unmarshal(m.Players, &docs); err != nil {
		return team.Team{}, fmt.Errorf("decode team %s roster: %w", m.ID, err)
	}
	t.Players = make([]team.Player, 0, len(docs))
	for _, d := range docs {
		t.Players = append(t.Players, team.Player{
			ID:       d.ID,
			Name:     d.Name,
			Role:     d.Role,
			Position: d.Position,
			Rating:   d.Rating,
			Stamina:  d.Stamina,
			Traits:   d.Traits,
		})
	}
	return t, nil
}

func teamModelFromDomain(t team.Team) (teamTableModel, error) {
	docs := make([]rosterPlayerDoc, 0, len(t.Players))
	for _, p := range t.Players {
		docs = append(docs, rosterPlayerDoc{
			ID:       p.ID,
			Name:     p.Name,
			Role:     p.Role,
			Position: p.Position,
			Rating:   p.Rating,
			Stamina:  p.Stamina,
			Traits:   p.Traits,
		})
	}
	raw, err := sonic.Marshal(docs)
	if err != nil {
		return teamTableModel{}, fmt.Errorf("encode team %s roster: %w", t.ID, err)
	}

	return teamTableModel{
		ID:        t.ID,
		Name:      t.Name,
		OwnerID:   t.OwnerID,
		IsBot:     t.IsBot,
		Rating:    t.Rating,
		Formation: t.Formation,
		Tactics:   t.Tactics,
		Players:   raw,
	}, nil
}
