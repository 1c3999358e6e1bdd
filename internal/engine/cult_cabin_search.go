package engine

type Position string

const (
	PositionCaptain    Position = "CAPTAIN"
	PositionNavigator  Position = "NAVIGATOR"
	PositionLieutenant Position = "LIEUTENANT"
	PositionCrew       Position = "CREW"
)

var officerPositions = []Position{PositionCaptain, PositionNavigator, PositionLieutenant}

func (p Position) officer() bool {
	return p == PositionCaptain || p == PositionNavigator || p == PositionLieutenant
}

type RevealedRole struct {
	PlayerID string `json:"playerId"`
	Role     Role   `json:"role"`
	Team     Team   `json:"team"`
}

type CultCabinSearchResult struct {
	RevealedRoles  map[Position]RevealedRole `json:"revealedRoles"`
	CorrectAnswers []string                  `json:"correctAnswers"`
}

// CultCabinSearchStatus: SETUP collects claims, ACTIVE shows officers their revealed-roles
// view and everyone else (the cult leader included) a quiz.
type CultCabinSearchStatus struct {
	Ritual
	Claims       map[string]Position    `json:"claims,omitempty"`
	Acknowledged map[string]bool        `json:"acknowledged,omitempty"`
	Quiz         QuizRound              `json:"quiz"`
	Result       *CultCabinSearchResult `json:"result,omitempty"`
}

func init() {
	timedRituals[RitualCultCabinSearch] = timedRitual{
		done: func(s *State) bool {
			c := s.CultCabinSearch
			for id, pos := range c.Claims {
				if pos.officer() && id != c.InitiatorID && !c.Acknowledged[id] && s.isHuman(id) {
					return false
				}
			}
			return c.Quiz.allAnswered()
		},
		finalize: finalizeCultCabinSearch,
	}
}

func startCultCabinSearch(s *State, cmd Command, env Env) ([]Event, error) {
	if _, err := guardStart(s, RitualCultCabinSearch, cmd.Actor); err != nil {
		return nil, err
	}
	if err := requireLeader(s, cmd.Actor); err != nil {
		return nil, err
	}
	_, ev := begin(s, RitualCultCabinSearch, PhaseSetup, cmd.Actor, "")
	c := &s.CultCabinSearch
	c.Claims = map[string]Position{}
	c.Acknowledged = map[string]bool{}
	for _, p := range s.Players {
		if p.IsBot && !p.IsEliminated {
			c.Claims[p.ID] = PositionCrew
		}
	}
	return []Event{ev}, nil
}

func claimCultCabinSearch(s *State, cmd Command, env Env) ([]Event, error) {
	c := &s.CultCabinSearch
	if c.Phase != PhaseSetup {
		return nil, ErrRitualNotPending.With("ritual", string(RitualCultCabinSearch))
	}
	who, err := actingAs(s, cmd.Actor, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	p := s.player(who)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.IsEliminated {
		return nil, ErrEliminated
	}
	pos := cmd.Position
	switch {
	case pos == PositionCrew:
	case pos.officer():
		if pos == PositionCaptain && !p.HasTongue {
			return nil, ErrSilencedCaptain.With("reason", "silenced").With("role", string(pos))
		}
		for id, claimed := range c.Claims {
			if claimed == pos && id != who {
				return nil, ErrPositionClaimed.With("role", string(pos))
			}
		}
	default:
		return nil, ErrUnknownPosition.With("role", string(pos))
	}
	if prev, ok := c.Claims[who]; ok && prev == pos {
		return nil, ErrAlreadyClaimed.With("role", string(pos))
	}
	c.Claims[who] = pos

	for _, p := range s.Players {
		if !p.IsEliminated {
			if _, ok := c.Claims[p.ID]; !ok {
				return nil, nil
			}
		}
	}
	if !validDistribution(c.Claims) {
		return []Event{cancel(s, RitualCultCabinSearch, reason(ReasonInvalidDistribution, ""))}, nil
	}
	var quizzed []string
	for _, id := range eligibleHumans(s) {
		if id == c.InitiatorID || !c.Claims[id].officer() {
			quizzed = append(quizzed, id)
		}
	}
	c.Quiz = newQuiz(quizzed, env.Rand)
	return []Event{startRound(&c.Ritual, RitualCultCabinSearch, env, s.Rules.CultCabinSearchSeconds)}, nil
}

// validDistribution: exactly one of each officer and at least one crew member.
func validDistribution(claims map[string]Position) bool {
	counts := map[Position]int{}
	for _, pos := range claims {
		counts[pos]++
	}
	for _, pos := range officerPositions {
		if counts[pos] != 1 {
			return false
		}
	}
	return counts[PositionCrew] >= 1
}

func submitCultCabinSearch(s *State, cmd Command, env Env) ([]Event, error) {
	c := &s.CultCabinSearch
	if c.Phase != PhaseActive {
		return nil, ErrRitualNotActive.With("ritual", string(RitualCultCabinSearch))
	}
	switch cmd.Action {
	case SubmitAnswerQuiz:
		if err := c.Quiz.answer(cmd.Actor, cmd.Answer); err != nil {
			return nil, err
		}
	case SubmitAcknowledge:
		if !c.Claims[cmd.Actor].officer() || cmd.Actor == c.InitiatorID {
			return nil, ErrNotParticipant
		}
		if c.Acknowledged[cmd.Actor] {
			return nil, ErrAlreadySubmitted
		}
		c.Acknowledged[cmd.Actor] = true
	default:
		return nil, ErrUnknownAction.With("action", string(cmd.Action))
	}
	return settle(s, RitualCultCabinSearch, env), nil
}

func finalizeCultCabinSearch(s *State, env Env) []Event {
	c := &s.CultCabinSearch
	revealed := map[Position]RevealedRole{}
	for id, pos := range c.Claims {
		if pos.officer() {
			revealed[pos] = RevealedRole{PlayerID: id, Role: s.Assignments[id], Team: s.TeamOf(id)}
		}
	}
	c.Result = &CultCabinSearchResult{RevealedRoles: revealed, CorrectAnswers: c.Quiz.correct(s)}
	return nil
}
