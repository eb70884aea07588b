package postgres

import "github.com/ligatr/league-engine/internal/domain/standing"

type standingTableModel struct {
	LeagueID       string `db:"league_id"`
	TeamID         string `db:"team_id"`
	TeamName       string `db:"team_name"`
	Played         int    `db:"played"`
	Won            int    `db:"won"`
	Drawn          int    `db:"drawn"`
	Lost           int    `db:"lost"`
	GoalsFor       int    `db:"goals_for"`
	GoalsAgainst   int    `db:"goals_against"`
	GoalDifference int    `db:"goal_difference"`
	Points         int    `db:"points"`
}

func (m standingTableModel) toDomain() standing.Row {
	return standing.Row{
		LeagueID:       m.LeagueID,
		TeamID:         m.TeamID,
		TeamName:       m.TeamName,
		Played:         m.Played,
		Won:            m.Won,
		Drawn:          m.Drawn,
		Lost:           m.Lost,
		GoalsFor:       m.GoalsFor,
		GoalsAgainst:   m.GoalsAgainst,
		GoalDifference: m.GoalDifference,
		Points:         m.Points,
	}
}

func standingModelFromDomain(row standing.Row) standingTableModel {
	return standingTableModel{
		LeagueID:       row.LeagueID,
		TeamID:         row.TeamID,
		TeamName:       row.TeamName,
		Played:         row.Played,
		Won:            row.Won,
		Drawn:          row.Drawn,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
	}
}
