package engine

type CabinSearchResult struct {
	SearchedPlayerID string `json:"searchedPlayerId"`
	Loyalty          Team   `json:"loyalty"`
}

// CabinSearchStatus is the captain's search of one player's cabin.
type CabinSearchStatus struct {
	Ritual
	Result *CabinSearchResult `json:"result,omitempty"`
}

func init() {
	targetRituals[RitualCabinSearch] = targetRitual{
		resolve: func(s *State, env Env, target *Player) []Event {
			s.CabinSearch.Result = &CabinSearchResult{SearchedPlayerID: target.ID, Loyalty: s.TeamOf(target.ID)}
			// A searched cabin has been seen by the captain; the cult can no longer turn them.
			target.IsUnconvertible = true
			return nil
		},
	}
}
