package engine

type OffWithTongueResult struct {
	SilencedPlayerID string `json:"silencedPlayerId"`
}

type OffWithTongueStatus struct {
	Ritual
	Result *OffWithTongueResult `json:"result,omitempty"`
}

func init() {
	targetRituals[RitualOffWithTongue] = targetRitual{
		check: func(s *State, target *Player) error {
			if !target.HasTongue {
				return ErrInvalidTarget.With("playerId", target.ID).With("reason", "silenced")
			}
			return nil
		},
		// The only place HasTongue ever flips; it stays false for the rest of the match.
		resolve: func(s *State, env Env, target *Player) []Event {
			target.HasTongue = false
			s.OffWithTongue.Result = &OffWithTongueResult{SilencedPlayerID: target.ID}
			return nil
		},
	}
}
