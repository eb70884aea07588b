// Package timeline fabricates deterministic goal timelines for matches
// settled without a real simulation engine. The uniform random score is an
// explicit placeholder for the external engine and must stay swappable
// behind the same interface, not be tuned into "realistic" logic.
package timeline

import (
	"hash/fnv"
	"math/rand"
)

const (
	SideHome = "home"
	SideAway = "away"

	matchMinutes = 90
	maxGoals     = 4
)

// Event is one goal with the running score after it. The JSON shape is
// part of the result artifact document.
type Event struct {
	Minute    int    `json:"minute"`
	Side      string `json:"side"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

// RandomScore draws the placeholder final score (0..4 per side) from the
// seed key. Same key, same score.
func RandomScore(seedKey string) (home, away int) {
	rng := newRNG(seedKey)
	return rng.Intn(maxGoals + 1), rng.Intn(maxGoals + 1)
}

// Generate produces the goal events for a known final score. The whole
// sequence is a pure function of the seed key and the score: minutes are
// drawn without repetition, the goal-to-side assignment is shuffled with
// the same generator, and the running score accumulates per event.
func Generate(seedKey string, homeGoals, awayGoals int) []Event {
	total := homeGoals + awayGoals
	if total <= 0 {
		return nil
	}
	rng := newRNG(seedKey)

	minutes := drawDistinctMinutes(rng, total)
	sides := make([]string, 0, total)
	for i := 0; i < homeGoals; i++ {
		sides = append(sides, SideHome)
	}
	for i := 0; i < awayGoals; i++ {
		sides = append(sides, SideAway)
	}
	rng.Shuffle(len(sides), func(i, j int) {
		sides[i], sides[j] = sides[j], sides[i]
	})

	events := make([]Event, 0, total)
	home, away := 0, 0
	for i := 0; i < total; i++ {
		if sides[i] == SideHome {
			home++
		} else {
			away++
		}
		events = append(events, Event{
			Minute:    minutes[i],
			Side:      sides[i],
			HomeScore: home,
			AwayScore: away,
		})
	}
	return events
}

func newRNG(seedKey string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seedKey))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// drawDistinctMinutes returns count unique minutes in ascending order.
func drawDistinctMinutes(rng *rand.Rand, count int) []int {
	if count > matchMinutes {
		count = matchMinutes
	}
	used := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		minute := 1 + rng.Intn(matchMinutes)
		if _, dup := used[minute]; dup {
			continue
		}
		used[minute] = struct{}{}
		out = append(out, minute)
	}
	// Keep event order chronological; insertion sort is fine at this size.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
