package engine

type FeedTheKrakenResult struct {
	EliminatedPlayerID string `json:"eliminatedPlayerId"`
	CultVictory        bool   `json:"cultVictory"`
}

type FeedTheKrakenStatus struct {
	Ritual
	Result *FeedTheKrakenResult `json:"result,omitempty"`
}

func init() {
	targetRituals[RitualFeedTheKraken] = targetRitual{resolve: resolveFeedTheKraken}
}

// resolveFeedTheKraken eliminates the target. Feeding the cult leader hands the Cult the win.
func resolveFeedTheKraken(s *State, env Env, target *Player) []Event {
	target.IsEliminated = true
	result := &FeedTheKrakenResult{EliminatedPlayerID: target.ID}
	s.FeedTheKraken.Result = result
	if s.Assignments[target.ID] != RoleCultLeader {
		return nil
	}
	result.CultVictory = true
	s.Outcome = &Outcome{Winner: TeamCult, Reason: "cultLeaderFed"}
	return []Event{{Type: EvtCultVictory, Ritual: RitualFeedTheKraken, PlayerID: target.ID}}
}
