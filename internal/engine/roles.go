package engine

type RoleSelection struct {
	Role      Role `json:"role"`
	Confirmed bool `json:"confirmed"`
}

type RoleSelectionStatus struct {
	Phase        RitualPhase              `json:"phase"`
	Selections   map[string]RoleSelection `json:"selections,omitempty"`
	CancelReason string                   `json:"cancelReason,omitempty"`
}

func knownRole(r Role) bool {
	switch r {
	case RoleSailor, RolePirate, RoleCultLeader, RoleCultist:
		return true
	}
	return false
}

// dealRoles shuffles a fresh composition onto the roster and moves the lobby to PLAYING.
func dealRoles(s *State, env Env) ([]Event, error) {
	roles, err := RolesForCount(len(s.Players), env.Rand)
	if err != nil {
		return nil, err
	}
	env.Rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	if !IsValidComposition(roles, len(s.Players)) {
		return nil, ErrInvalidComposition.With("count", itoa(len(s.Players)))
	}
	assignments := make(map[string]Role, len(roles))
	for i, p := range s.Players {
		assignments[p.ID] = roles[i]
	}
	return commitAssignments(s, assignments), nil
}

func commitAssignments(s *State, assignments map[string]Role) []Event {
	s.Assignments = assignments
	s.OriginalRoles = cloneMap(assignments)
	s.Status = StatusPlaying
	return []Event{{Type: EvtGameStarted}}
}

func selectRole(s *State, cmd Command, env Env) ([]Event, error) {
	if s.RoleSelection.Phase != PhaseActive {
		return nil, ErrSelectionNotOpen
	}
	who, err := actingAs(s, cmd.Actor, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	if !knownRole(cmd.Role) {
		return nil, ErrUnknownRole.With("role", string(cmd.Role))
	}
	if s.RoleSelection.Selections[who].Confirmed {
		return nil, ErrRoleConfirmed
	}
	s.RoleSelection.Selections[who] = RoleSelection{Role: cmd.Role}
	return nil, nil
}

// confirmRole locks a selection. Once the whole roster has confirmed, the composition is
// either committed (lobby PLAYING) or every selection is thrown away.
func confirmRole(s *State, cmd Command, env Env) ([]Event, error) {
	rs := &s.RoleSelection
	if rs.Phase != PhaseActive {
		return nil, ErrSelectionNotOpen
	}
	who, err := actingAs(s, cmd.Actor, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	sel, ok := rs.Selections[who]
	if !ok {
		return nil, ErrNoRoleSelected
	}
	if sel.Confirmed {
		return nil, ErrRoleConfirmed
	}
	sel.Confirmed = true
	rs.Selections[who] = sel

	roles := make([]Role, 0, len(s.Players))
	for _, p := range s.Players {
		sel, ok := rs.Selections[p.ID]
		if !ok || !sel.Confirmed {
			return nil, nil
		}
		roles = append(roles, sel.Role)
	}
	if !IsValidComposition(roles, len(s.Players)) {
		failure := ErrInvalidComposition.With("count", itoa(len(s.Players)))
		rs.Selections = map[string]RoleSelection{}
		rs.Phase = PhaseCancelled
		rs.CancelReason = failure.Error()
		return []Event{{Type: EvtRoleSelectionFailed, Reason: failure.Error()}}, nil
	}
	assignments := make(map[string]Role, len(roles))
	for i, p := range s.Players {
		assignments[p.ID] = roles[i]
	}
	rs.Phase = PhaseCompleted
	return commitAssignments(s, assignments), nil
}

// cancelRoleSelection aborts unconditionally; the lobby stays WAITING.
func cancelRoleSelection(s *State, cmd Command, env Env) ([]Event, error) {
	rs := &s.RoleSelection
	if rs.Phase != PhaseActive {
		return nil, ErrSelectionNotOpen
	}
	if s.player(cmd.Actor) == nil {
		return nil, ErrUnknownPlayer
	}
	rs.Phase = PhaseCancelled
	rs.Selections = map[string]RoleSelection{}
	rs.CancelReason = reason(ReasonCancelled, cmd.Actor)
	return nil, nil
}

func openRoleSelection(s *State) {
	s.RoleSelection = RoleSelectionStatus{Phase: PhaseActive, Selections: map[string]RoleSelection{}}
}
