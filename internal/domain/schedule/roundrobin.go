package schedule

import "fmt"

// Mode selects how many times every pair of entries meets.
type Mode string

const (
	SingleRoundRobin Mode = "single"
	DoubleRoundRobin Mode = "double"
)

// ByeEntry is the synthetic participant padded in when the entry count is
// odd. Pairings touching it are suppressed, never emitted.
const ByeEntry = "__bye__"

// Pairing is one generated match slot: round number plus the two sides.
type Pairing struct {
	Round int
	Home  string
	Away  string
}

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case SingleRoundRobin, DoubleRoundRobin:
		return Mode(value), nil
	case "":
		return SingleRoundRobin, nil
	default:
		return "", fmt.Errorf("invalid round-robin mode %q", value)
	}
}

// Rounds returns the number of rounds produced for n entries (after bye
// padding) in the given mode.
func Rounds(n int, mode Mode) int {
	if n%2 != 0 {
		n++
	}
	rounds := n - 1
	if mode == DoubleRoundRobin {
		rounds *= 2
	}
	return rounds
}

// GenerateRoundRobin builds the deterministic calendar for the given
// ordered entries using the circle method: entry 0 stays fixed while the
// rest rotate one position per round, round r pairing position i with
// position n-1-i. Home and away alternate with round parity so the
// rotation artifact alone never hands one side every home game. Output is
// round-major; within a round, pairs follow position order.
func GenerateRoundRobin(entries []string, mode Mode) ([]Pairing, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("round robin requires at least 2 entries, got %d", len(entries))
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == "" {
			return nil, fmt.Errorf("round robin entries must be non-empty")
		}
		if e == ByeEntry {
			return nil, fmt.Errorf("round robin entries must not use the reserved bye entry")
		}
		if _, dup := seen[e]; dup {
			return nil, fmt.Errorf("duplicate round robin entry %q", e)
		}
		seen[e] = struct{}{}
	}

	padded := entries
	if len(padded)%2 != 0 {
		padded = append(append([]string(nil), padded...), ByeEntry)
	}

	firstPass := singlePass(padded)
	if mode == SingleRoundRobin {
		return firstPass, nil
	}

	roundOffset := len(padded) - 1
	out := make([]Pairing, 0, 2*len(firstPass))
	out = append(out, firstPass...)
	for _, p := range firstPass {
		out = append(out, Pairing{
			Round: p.Round + roundOffset,
			Home:  p.Away,
			Away:  p.Home,
		})
	}
	return out, nil
}

func singlePass(entries []string) []Pairing {
	n := len(entries)
	rounds := n - 1
	out := make([]Pairing, 0, rounds*n/2)

	for r := 0; r < rounds; r++ {
		rotated := rotate(entries, r)
		for i := 0; i < n/2; i++ {
			home, away := rotated[i], rotated[n-1-i]
			if r%2 == 1 {
				home, away = away, home
			}
			if home == ByeEntry || away == ByeEntry {
				continue
			}
			out = append(out, Pairing{Round: r + 1, Home: home, Away: away})
		}
	}
	return out
}

// rotate keeps position 0 fixed and shifts the remaining entries by r.
func rotate(entries []string, r int) []string {
	n := len(entries)
	out := make([]string, n)
	out[0] = entries[0]
	for i := 1; i < n; i++ {
		out[i] = entries[1+((i-1+r)%(n-1))]
	}
	return out
}
