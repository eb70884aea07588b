package team

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

const (
	DefaultBotRating = 60
	ratingJitter     = 8
	staminaBase      = 70
	staminaJitter    = 20
)

// starterPositions is the fixed 4-4-2 template every bot fields.
var starterPositions = []string{
	"GK",
	"DF", "DF", "DF", "DF",
	"MF", "MF", "MF", "MF",
	"FW", "FW",
}

var benchPositions = []string{"GK", "DF", "DF", "MF", "MF", "FW", "FW"}

var reservePositions = []string{"DF", "MF", "MF", "FW"}

var traitPool = []string{
	"aggressive", "calm", "fast", "leader", "playmaker", "poacher", "stopper", "workhorse",
}

// SynthesizeBot derives a full placeholder team from its identity alone.
// The generator is seeded by the bot id, so the same id always yields the
// same roster whether or not an earlier copy was persisted.
func SynthesizeBot(botID string, rating int) Team {
	if rating <= 0 {
		rating = DefaultBotRating
	}
	rng := rand.New(rand.NewSource(seedFor(botID)))

	players := make([]Player, 0, len(starterPositions)+len(benchPositions)+len(reservePositions))
	index := 0
	appendGroup := func(positions []string, role string) {
		for _, pos := range positions {
			index++
			players = append(players, Player{
				ID:       fmt.Sprintf("%s-p%02d", botID, index),
				Name:     syntheticName(rng, pos, index),
				Role:     role,
				Position: pos,
				Rating:   jitter(rng, rating, ratingJitter),
				Stamina:  jitter(rng, staminaBase, staminaJitter),
				Traits:   drawTraits(rng),
			})
		}
	}
	appendGroup(starterPositions, RoleStarter)
	appendGroup(benchPositions, RoleBench)
	appendGroup(reservePositions, RoleReserve)

	return Team{
		ID:        botID,
		Name:      botDisplayName(botID),
		IsBot:     true,
		Rating:    rating,
		Formation: "4-4-2",
		Tactics:   "balanced",
		Players:   players,
	}
}

func seedFor(botID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(botID))
	return int64(h.Sum64())
}

func jitter(rng *rand.Rand, center, spread int) int {
	value := center + rng.Intn(2*spread+1) - spread
	if value < 1 {
		value = 1
	}
	if value > 99 {
		value = 99
	}
	return value
}

func drawTraits(rng *rand.Rand) []string {
	count := 1 + rng.Intn(2)
	picked := make([]string, 0, count)
	seen := make(map[int]struct{}, count)
	for len(picked) < count {
		i := rng.Intn(len(traitPool))
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		picked = append(picked, traitPool[i])
	}
	return picked
}

var syntheticSurnames = []string{
	"Aksoy", "Arslan", "Aydin", "Celik", "Demir", "Erdem", "Gunes", "Kaya",
	"Koc", "Ozturk", "Polat", "Sahin", "Tekin", "Yildiz", "Yilmaz", "Zengin",
}

func syntheticName(rng *rand.Rand, position string, index int) string {
	surname := syntheticSurnames[rng.Intn(len(syntheticSurnames))]
	return fmt.Sprintf("%s %s-%d", surname, position, index)
}

func botDisplayName(botID string) string {
	suffix := botID
	if i := strings.LastIndex(botID, "-"); i >= 0 && i+1 < len(botID) {
		suffix = botID[i+1:]
	}
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return "FC " + strings.ToUpper(suffix)
}
