package standing

import "sort"

// Row is the running aggregate of one team inside one league. It is
// initialized to zero at membership time and incremented exactly once per
// finalized match touching the team.
type Row struct {
	LeagueID       string
	TeamID         string
	TeamName       string
	Played         int
	Won            int
	Drawn          int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
}

func Zero(leagueID, teamID, teamName string) Row {
	return Row{LeagueID: leagueID, TeamID: teamID, TeamName: teamName}
}

// ApplyResult folds one final score into the row. goalsFor are the goals
// scored by this row's team.
func (r *Row) ApplyResult(goalsFor, goalsAgainst int) {
	r.Played++
	r.GoalsFor += goalsFor
	r.GoalsAgainst += goalsAgainst
	r.GoalDifference = r.GoalsFor - r.GoalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		r.Won++
		r.Points += 3
	case goalsFor < goalsAgainst:
		r.Lost++
	default:
		r.Drawn++
		r.Points++
	}
}

// Sort orders rows by points, then goal difference, then goals scored,
// falling back to team name so the table is stable.
func Sort(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDifference != rows[j].GoalDifference {
			return rows[i].GoalDifference > rows[j].GoalDifference
		}
		if rows[i].GoalsFor != rows[j].GoalsFor {
			return rows[i].GoalsFor > rows[j].GoalsFor
		}
		return rows[i].TeamName < rows[j].TeamName
	})
}
