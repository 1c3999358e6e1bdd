package engine

type FloggingResult struct {
	FloggedPlayerID string `json:"floggedPlayerId"`
	NotRole         Role   `json:"notRole"`
}

type FloggingStatus struct {
	Ritual
	Result *FloggingResult `json:"result,omitempty"`
}

func init() {
	targetRituals[RitualFlogging] = targetRitual{resolve: resolveFlogging}
}

// resolveFlogging reveals one role the target does not hold, drawn from the roles in play.
func resolveFlogging(s *State, env Env, target *Player) []Event {
	held := s.Assignments[target.ID]
	if containsID(s.ConvertedPlayerIDs, target.ID) {
		held = RoleCultist
	}
	var candidates []Role
	for _, r := range []Role{RoleSailor, RolePirate, RoleCultLeader, RoleCultist} {
		if r == held {
			continue
		}
		// A converted player is Cult in spirit, so neither cult role is a safe "not".
		if held == RoleCultist && r == RoleCultLeader {
			continue
		}
		if r == RoleCultist && !s.rolePresent(RoleCultist) {
			continue
		}
		candidates = append(candidates, r)
	}
	notRole := candidates[env.Rand.IntN(len(candidates))]
	target.NotRole = notRole
	s.Flogging.Result = &FloggingResult{FloggedPlayerID: target.ID, NotRole: notRole}
	return nil
}
