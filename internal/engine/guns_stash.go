package engine

import "strconv"

type GunsStashResult struct {
	Distribution   map[string]int `json:"distribution"`
	CorrectAnswers []string       `json:"correctAnswers"`
}

type GunsStashStatus struct {
	Ritual
	Responses    ConsentSet       `json:"responses,omitempty"`
	Quiz         QuizRound        `json:"quiz"`
	Distribution map[string]int   `json:"distribution,omitempty"`
	Result       *GunsStashResult `json:"result,omitempty"`
}

func init() {
	consentRituals[RitualGunsStash] = consentRitual{
		consent: func(s *State) ConsentSet { return s.GunsStash.Responses },
		activate: func(s *State, env Env) []Event {
			s.GunsStash.Quiz = newQuiz(without(eligibleHumans(s), s.GunsStash.InitiatorID), env.Rand)
			return []Event{startRound(&s.GunsStash.Ritual, RitualGunsStash, env, s.Rules.GunsStashSeconds)}
		},
	}
	timedRituals[RitualGunsStash] = timedRitual{
		done: func(s *State) bool {
			return s.GunsStash.Distribution != nil && s.GunsStash.Quiz.allAnswered()
		},
		finalize: finalizeGunsStash,
	}
}

func startGunsStash(s *State, cmd Command, env Env) ([]Event, error) {
	if _, err := guardStart(s, RitualGunsStash, cmd.Actor); err != nil {
		return nil, err
	}
	if err := requireLeader(s, cmd.Actor); err != nil {
		return nil, err
	}
	_, ev := begin(s, RitualGunsStash, PhasePending, cmd.Actor, "")
	s.GunsStash.Responses = newConsent(s, cmd.Actor)
	events := []Event{ev}
	if s.GunsStash.Responses.unanimous() {
		events = append(events, consentRituals[RitualGunsStash].activate(s, env)...)
	}
	return events, nil
}

// submitGunsDistribution takes the leader's split of the stash over living players.
func submitGunsDistribution(s *State, cmd Command, env Env) ([]Event, error) {
	g := &s.GunsStash
	if g.Phase != PhaseActive {
		return nil, ErrRitualNotActive.With("ritual", string(RitualGunsStash))
	}
	if cmd.Actor != g.InitiatorID {
		return nil, ErrNotInitiator
	}
	if g.Distribution != nil {
		return nil, ErrAlreadySubmitted
	}
	total := 0
	dist := map[string]int{}
	for id, n := range cmd.Distribution {
		p := s.player(id)
		if p == nil || p.IsEliminated || n < 0 {
			return nil, ErrBadDistribution.With("playerId", id)
		}
		if n > 0 {
			dist[id] = n
		}
		total += n
	}
	if total != s.Rules.GunsPerStash {
		return nil, ErrBadDistribution.With("total", strconv.Itoa(total)).With("want", strconv.Itoa(s.Rules.GunsPerStash))
	}
	g.Distribution = dist
	return settle(s, RitualGunsStash, env), nil
}

func submitGunsStashAnswer(s *State, cmd Command, env Env) ([]Event, error) {
	g := &s.GunsStash
	if g.Phase != PhaseActive {
		return nil, ErrRitualNotActive.With("ritual", string(RitualGunsStash))
	}
	if cmd.Action != "" && cmd.Action != SubmitAnswerQuiz {
		return nil, ErrUnknownAction.With("action", string(cmd.Action))
	}
	if err := g.Quiz.answer(cmd.Actor, cmd.Answer); err != nil {
		return nil, err
	}
	return settle(s, RitualGunsStash, env), nil
}

// finalizeGunsStash defaults a silent leader to keeping the whole stash.
func finalizeGunsStash(s *State, env Env) []Event {
	g := &s.GunsStash
	dist := g.Distribution
	if dist == nil {
		dist = map[string]int{g.InitiatorID: s.Rules.GunsPerStash}
	}
	g.Result = &GunsStashResult{Distribution: cloneMap(dist), CorrectAnswers: g.Quiz.correct(s)}
	return nil
}
