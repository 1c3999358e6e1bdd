package engine

type ConversionResult struct {
	ConvertedPlayerID string   `json:"convertedPlayerId,omitempty"`
	CorrectAnswers    []string `json:"correctAnswers"`
}

type ConversionStatus struct {
	Ritual
	Responses ConsentSet        `json:"responses,omitempty"`
	Quiz      QuizRound         `json:"quiz"`
	PickedID  string            `json:"pickedPlayerId,omitempty"`
	Result    *ConversionResult `json:"result,omitempty"`
}

func init() {
	consentRituals[RitualConversion] = consentRitual{
		consent: func(s *State) ConsentSet { return s.Conversion.Responses },
		activate: func(s *State, env Env) []Event {
			leader := s.Conversion.InitiatorID
			s.Conversion.Quiz = newQuiz(without(eligibleHumans(s), leader), env.Rand)
			return []Event{startRound(&s.Conversion.Ritual, RitualConversion, env, s.Rules.ConversionSeconds)}
		},
	}
	timedRituals[RitualConversion] = timedRitual{
		done: func(s *State) bool {
			return s.Conversion.PickedID != "" && s.Conversion.Quiz.allAnswered()
		},
		finalize: finalizeConversion,
	}
}

func startConversion(s *State, cmd Command, env Env) ([]Event, error) {
	if _, err := guardStart(s, RitualConversion, cmd.Actor); err != nil {
		return nil, err
	}
	if err := requireLeader(s, cmd.Actor); err != nil {
		return nil, err
	}
	_, ev := begin(s, RitualConversion, PhasePending, cmd.Actor, "")
	s.Conversion.Responses = newConsent(s, cmd.Actor)
	events := []Event{ev}
	// Nobody else to ask: the leader's own start is consent enough.
	if s.Conversion.Responses.unanimous() {
		events = append(events, consentRituals[RitualConversion].activate(s, env)...)
	}
	return events, nil
}

func submitConversion(s *State, cmd Command, env Env) ([]Event, error) {
	c := &s.Conversion
	if c.Phase != PhaseActive {
		return nil, ErrRitualNotActive.With("ritual", string(RitualConversion))
	}
	switch cmd.Action {
	case SubmitPickPlayer:
		if cmd.Actor != c.InitiatorID {
			return nil, ErrNotInitiator
		}
		if c.PickedID != "" {
			return nil, ErrAlreadySubmitted
		}
		if err := convertible(s, cmd.Actor, cmd.TargetID); err != nil {
			return nil, err
		}
		c.PickedID = cmd.TargetID
	case SubmitAnswerQuiz:
		if err := c.Quiz.answer(cmd.Actor, cmd.Answer); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownAction.With("action", string(cmd.Action))
	}
	return settle(s, RitualConversion, env), nil
}

// convertible: on roster, alive, not the leader, not already Cult, not unconvertible.
func convertible(s *State, leader, target string) error {
	p := s.player(target)
	if p == nil || target == leader || p.IsEliminated || p.IsUnconvertible || s.TeamOf(target) == TeamCult {
		return ErrInvalidTarget.With("playerId", target)
	}
	return nil
}

func finalizeConversion(s *State, env Env) []Event {
	c := &s.Conversion
	result := &ConversionResult{CorrectAnswers: c.Quiz.correct(s)}
	// The pick was valid when made; re-check in case the roster changed since.
	if c.PickedID != "" && convertible(s, c.InitiatorID, c.PickedID) == nil {
		result.ConvertedPlayerID = c.PickedID
		s.ConvertedPlayerIDs = append(s.ConvertedPlayerIDs, c.PickedID)
	}
	c.Result = result
	return nil
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
