package engine

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxNameRunes = 24

// DefaultRules mirrors the config defaults; tests and the hub fall back to it.
var DefaultRules = Rules{
	ConversionSeconds:      30,
	GunsStashSeconds:       30,
	CultCabinSearchSeconds: 30,
	GunsPerStash:           3,
}

func NewEmptyState(code string, rules Rules) State {
	s := State{
		Code:               code,
		Players:            []Player{},
		Status:             StatusWaiting,
		Mode:               ModeAutomatic,
		Assignments:        map[string]Role{},
		OriginalRoles:      map[string]Role{},
		ConvertedPlayerIDs: []string{},
		RoleSelection:      RoleSelectionStatus{Phase: PhaseIdle},
		Rules:              rules,
	}
	for _, k := range RitualKinds {
		s.resetRitual(k)
	}
	return s
}

// Clone returns a deep copy; the reducer mutates the copy and discards it on error.
func (s State) Clone() State {
	c := s
	c.Players = slices.Clone(s.Players)
	c.Assignments = cloneMap(s.Assignments)
	c.OriginalRoles = cloneMap(s.OriginalRoles)
	c.ConvertedPlayerIDs = slices.Clone(s.ConvertedPlayerIDs)
	if s.Outcome != nil {
		o := *s.Outcome
		c.Outcome = &o
	}

	c.RoleSelection.Selections = cloneMap(s.RoleSelection.Selections)

	c.Conversion.Responses = cloneMap(s.Conversion.Responses)
	c.Conversion.Quiz = s.Conversion.Quiz.clone()
	if r := s.Conversion.Result; r != nil {
		c.Conversion.Result = &ConversionResult{ConvertedPlayerID: r.ConvertedPlayerID, CorrectAnswers: slices.Clone(r.CorrectAnswers)}
	}

	c.CultCabinSearch.Claims = cloneMap(s.CultCabinSearch.Claims)
	c.CultCabinSearch.Acknowledged = cloneMap(s.CultCabinSearch.Acknowledged)
	c.CultCabinSearch.Quiz = s.CultCabinSearch.Quiz.clone()
	if r := s.CultCabinSearch.Result; r != nil {
		c.CultCabinSearch.Result = &CultCabinSearchResult{RevealedRoles: cloneMap(r.RevealedRoles), CorrectAnswers: slices.Clone(r.CorrectAnswers)}
	}

	c.GunsStash.Responses = cloneMap(s.GunsStash.Responses)
	c.GunsStash.Quiz = s.GunsStash.Quiz.clone()
	c.GunsStash.Distribution = cloneMap(s.GunsStash.Distribution)
	if r := s.GunsStash.Result; r != nil {
		c.GunsStash.Result = &GunsStashResult{Distribution: cloneMap(r.Distribution), CorrectAnswers: slices.Clone(r.CorrectAnswers)}
	}

	c.CabinSearch.Result = clonePtr(s.CabinSearch.Result)
	c.Flogging.Result = clonePtr(s.Flogging.Result)
	c.FeedTheKraken.Result = clonePtr(s.FeedTheKraken.Result)
	c.OffWithTongue.Result = clonePtr(s.OffWithTongue.Result)
	return c
}

// cloneMap keeps nil as nil so a cloned state compares equal to its source.
func cloneMap[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func itoa(n int) string { return strconv.Itoa(n) }

func (s *State) player(id string) *Player {
	if id == "" {
		return nil
	}
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// Player returns a copy of the roster entry for id.
func (s State) Player(id string) (Player, bool) {
	if p := s.player(id); p != nil {
		return *p, true
	}
	return Player{}, false
}

func (s *State) host() *Player {
	for i := range s.Players {
		if s.Players[i].IsHost {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) isHost(id string) bool {
	p := s.player(id)
	return p != nil && p.IsHost
}

func (s *State) isHuman(id string) bool {
	p := s.player(id)
	return p != nil && !p.IsBot
}

// TeamOf is the effective team: converted players count as Cult whatever they were dealt.
func (s State) TeamOf(id string) Team {
	if containsID(s.ConvertedPlayerIDs, id) {
		return TeamCult
	}
	switch s.Assignments[id] {
	case RoleCultLeader, RoleCultist:
		return TeamCult
	case RolePirate:
		return TeamPirates
	case RoleSailor:
		return TeamSailors
	}
	return ""
}

// rolePresent reports whether anyone at the table currently plays r. Converted players
// count as cultists.
func (s *State) rolePresent(r Role) bool {
	if r == RoleCultist && len(s.ConvertedPlayerIDs) > 0 {
		return true
	}
	for _, p := range s.Players {
		if s.Assignments[p.ID] == r {
			return true
		}
	}
	return false
}

func (s *State) newPlayer(id, name, photoURL string, env Env) Player {
	s.NextPlayerNumber++
	return Player{
		ID:        id,
		Name:      displayName(name, fmt.Sprintf("Player %d", s.NextPlayerNumber)),
		PhotoURL:  photoURL,
		IsOnline:  true,
		HasTongue: true,
		JoinedAt:  env.Now.UnixMilli(),
	}
}

// removePlayer drops id from the roster, hands the host seat on if needed and aborts any
// open role selection since it was sized for the old roster.
func (s *State) removePlayer(id string) {
	wasHost := s.isHost(id)
	s.Players = slices.DeleteFunc(s.Players, func(p Player) bool { return p.ID == id })
	if wasHost {
		promoteHost(s)
	}
	if s.RoleSelection.Phase == PhaseActive {
		s.RoleSelection.Phase = PhaseCancelled
		s.RoleSelection.Selections = map[string]RoleSelection{}
		s.RoleSelection.CancelReason = reason(ReasonPlayerRemoved, id)
	}
}

// promoteHost gives the seat to the earliest-joined remaining human. Roster order is join order.
func promoteHost(s *State) {
	for i := range s.Players {
		if !s.Players[i].IsBot {
			s.Players[i].IsHost = true
			return
		}
	}
}

// displayName trims and NFC-normalises name, capping it at 24 runes. Control characters
// are dropped. An empty result falls back to fallback.
func displayName(name, fallback string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	if runes := []rune(name); len(runes) > maxNameRunes {
		name = strings.TrimSpace(string(runes[:maxNameRunes]))
	}
	if name == "" {
		return fallback
	}
	return name
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
