package fixture

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

const (
	StatusScheduled = "scheduled"
	StatusRunning   = "running"
	StatusPlayed    = "played"
	StatusFailed    = "failed"
)

// Fixture is one scheduled contest between two teams of a league.
// In the happy path it is mutated exactly twice: scheduled -> running at
// dispatch, running -> played at finalize.
type Fixture struct {
	ID         string
	LeagueID   string
	Season     int
	Round      int
	HomeTeamID string
	AwayTeamID string
	KickoffAt  time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
	StartedAt  *time.Time
	EndedAt    *time.Time
	ReplayPath string
}

func (f Fixture) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("fixture id is required")
	}
	if strings.TrimSpace(f.LeagueID) == "" {
		return fmt.Errorf("fixture league id is required")
	}
	if f.Round < 1 {
		return fmt.Errorf("fixture round must be >= 1")
	}
	if f.HomeTeamID == f.AwayTeamID {
		return fmt.Errorf("fixture sides must differ")
	}
	return nil
}

func (f Fixture) Touches(teamID string) bool {
	return f.HomeTeamID == teamID || f.AwayTeamID == teamID
}

func IsUnfinished(status string) bool {
	return status == StatusScheduled || status == StatusRunning
}

// Seed derives the deterministic simulation seed for a match. The match id
// alone is enough; the league id only matters when the match id is empty
// (legacy records imported without one).
func Seed(leagueID, matchID string) int64 {
	key := matchID
	if strings.TrimSpace(key) == "" {
		key = leagueID + "/" + matchID
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// SeedKey is the stable string form of the seed used by the timeline
// generator, so replays are reproducible from the artifact alone.
func SeedKey(leagueID, matchID string) string {
	return fmt.Sprintf("match-%s-%d", matchID, Seed(leagueID, matchID))
}

// ArtifactPath follows the results/{season}/{league}/{match}.json convention.
func ArtifactPath(seasonCode, leagueID, matchID string) string {
	return fmt.Sprintf("results/%s/%s/%s.json", seasonCode, leagueID, matchID)
}

// ParseArtifactPath inverts ArtifactPath. It accepts an optional leading
// slash, as storage event notifications deliver both shapes.
func ParseArtifactPath(path string) (seasonCode, leagueID, matchID string, err error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(path), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 4 || parts[0] != "results" || !strings.HasSuffix(parts[3], ".json") {
		return "", "", "", fmt.Errorf("invalid result artifact path %q", path)
	}
	matchID = strings.TrimSuffix(parts[3], ".json")
	if parts[1] == "" || parts[2] == "" || matchID == "" {
		return "", "", "", fmt.Errorf("invalid result artifact path %q", path)
	}
	return parts[1], parts[2], matchID, nil
}
