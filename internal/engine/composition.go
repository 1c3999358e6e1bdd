package engine

import "math/rand/v2"

type Composition struct {
	Sailors  int
	Pirates  int
	Cultists int
}

// compositions maps a table size to its allowed (Sailor, Pirate, Cultist) splits. Every
// split also carries exactly one CULT_LEADER. Five players get one of two splits, drawn
// per match.
var compositions = map[int][]Composition{
	5:  {{Sailors: 3, Pirates: 1}, {Sailors: 2, Pirates: 2}},
	6:  {{Sailors: 3, Pirates: 2}},
	7:  {{Sailors: 4, Pirates: 2}},
	8:  {{Sailors: 4, Pirates: 3}},
	9:  {{Sailors: 5, Pirates: 3}},
	10: {{Sailors: 5, Pirates: 4}},
	11: {{Sailors: 5, Pirates: 4, Cultists: 1}},
}

// RolesForCount returns the role multiset for n players, unshuffled.
func RolesForCount(n int, rng *rand.Rand) ([]Role, error) {
	options, ok := compositions[n]
	if !ok {
		return nil, countError(n)
	}
	c := options[0]
	if len(options) > 1 {
		c = options[rng.IntN(len(options))]
	}
	roles := make([]Role, 0, n)
	roles = append(roles, RoleCultLeader)
	for range c.Sailors {
		roles = append(roles, RoleSailor)
	}
	for range c.Pirates {
		roles = append(roles, RolePirate)
	}
	for range c.Cultists {
		roles = append(roles, RoleCultist)
	}
	return roles, nil
}

// IsValidComposition checks roles against the table for n players.
func IsValidComposition(roles []Role, n int) bool {
	if len(roles) != n {
		return false
	}
	var got Composition
	leaders := 0
	for _, r := range roles {
		switch r {
		case RoleCultLeader:
			leaders++
		case RoleSailor:
			got.Sailors++
		case RolePirate:
			got.Pirates++
		case RoleCultist:
			got.Cultists++
		default:
			return false
		}
	}
	if leaders != 1 {
		return false
	}
	for _, c := range compositions[n] {
		if c == got {
			return true
		}
	}
	return false
}

func countError(n int) error {
	if n < MinPlayers {
		return ErrBelowMinimum.With("min", itoa(MinPlayers)).With("count", itoa(n))
	}
	return ErrAboveMaximum.With("max", itoa(MaxPlayers)).With("count", itoa(n))
}
