package engine

import "fmt"

func createLobby(s *State, cmd Command, env Env) ([]Event, error) {
	if s.Created {
		return nil, ErrLobbyExists
	}
	if cmd.Actor == "" {
		return nil, ErrUnknownPlayer
	}
	s.Created = true
	s.Status = StatusWaiting
	if s.Mode == "" {
		s.Mode = ModeAutomatic
	}
	host := s.newPlayer(cmd.Actor, cmd.Name, cmd.PhotoURL, env)
	host.IsHost = true
	s.Players = append(s.Players, host)
	return nil, nil
}

// joinLobby adds a player, or rehydrates one that is already on the roster.
func joinLobby(s *State, cmd Command, env Env) ([]Event, error) {
	if cmd.Actor == "" {
		return nil, ErrUnknownPlayer
	}
	if p := s.player(cmd.Actor); p != nil {
		p.IsOnline = true
		if cmd.Name != "" {
			p.Name = displayName(cmd.Name, p.Name)
		}
		if cmd.PhotoURL != "" {
			p.PhotoURL = cmd.PhotoURL
		}
		return nil, nil
	}
	if s.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	if len(s.Players) >= MaxPlayers {
		return nil, ErrLobbyFull.With("max", itoa(MaxPlayers))
	}
	if s.RoleSelection.Phase == PhaseActive {
		return nil, ErrSelectionOpen
	}
	p := s.newPlayer(cmd.Actor, cmd.Name, cmd.PhotoURL, env)
	p.IsHost = s.host() == nil
	s.Players = append(s.Players, p)
	return nil, nil
}

func leaveLobby(s *State, cmd Command, env Env) ([]Event, error) {
	if s.player(cmd.Actor) == nil {
		return nil, ErrUnknownPlayer
	}
	if s.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	s.removePlayer(cmd.Actor)
	return nil, nil
}

// kickPlayer works in both lobby states; mid-match it also aborts whatever ritual is live.
func kickPlayer(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if cmd.PlayerID == cmd.Actor {
		return nil, ErrCannotKickSelf
	}
	if s.player(cmd.PlayerID) == nil {
		return nil, ErrUnknownPlayer
	}
	s.removePlayer(cmd.PlayerID)
	events := []Event{{Type: EvtPlayerKicked, PlayerID: cmd.PlayerID}}
	if s.Status == StatusPlaying {
		events = append(events, cancelLive(s, reason(ReasonPlayerRemoved, cmd.PlayerID))...)
	}
	return events, nil
}

func addBot(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if s.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	if s.RoleSelection.Phase == PhaseActive {
		return nil, ErrSelectionOpen
	}
	if len(s.Players) >= MaxPlayers {
		return nil, ErrLobbyFull.With("max", itoa(MaxPlayers))
	}
	s.NextBotNumber++
	id := cmd.PlayerID
	if id == "" {
		id = fmt.Sprintf("bot-%d", s.NextBotNumber)
	}
	if s.player(id) != nil {
		return nil, ErrInvalidTarget.With("playerId", id)
	}
	name := cmd.Name
	if name == "" {
		name = fmt.Sprintf("Bot %d", s.NextBotNumber)
	}
	bot := s.newPlayer(id, name, "", env)
	bot.IsBot = true
	s.Players = append(s.Players, bot)
	return nil, nil
}

func updateProfile(s *State, cmd Command, env Env) ([]Event, error) {
	who, err := actingAs(s, cmd.Actor, cmd.PlayerID)
	if err != nil {
		return nil, err
	}
	p := s.player(who)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if cmd.Name != "" {
		p.Name = displayName(cmd.Name, p.Name)
	}
	if cmd.PhotoURL != "" {
		p.PhotoURL = cmd.PhotoURL
	}
	return nil, nil
}

func connectionLost(s *State, cmd Command, env Env) ([]Event, error) {
	p := s.player(cmd.Actor)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if !p.IsOnline {
		return nil, ErrUnknownPlayer.With("reason", "offline")
	}
	p.IsOnline = false
	return nil, nil
}

func setDistributionMode(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if s.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	if s.RoleSelection.Phase == PhaseActive {
		return nil, ErrSelectionOpen
	}
	if cmd.Mode != ModeAutomatic && cmd.Mode != ModeManual {
		return nil, ErrUnknownMode.With("mode", string(cmd.Mode))
	}
	s.Mode = cmd.Mode
	return nil, nil
}

func startGame(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if s.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	if s.RoleSelection.Phase == PhaseActive {
		return nil, ErrSelectionOpen
	}
	if n := len(s.Players); n < MinPlayers || n > MaxPlayers {
		return nil, countError(n)
	}
	clearMatch(s)
	if s.Mode == ModeManual {
		openRoleSelection(s)
		return nil, nil
	}
	return dealRoles(s, env)
}

// resetGame starts a fresh match with the same roster.
func resetGame(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if n := len(s.Players); n < MinPlayers || n > MaxPlayers {
		return nil, countError(n)
	}
	clearMatch(s)
	if s.Mode == ModeManual {
		openRoleSelection(s)
		return nil, nil
	}
	return dealRoles(s, env)
}

func backToLobby(s *State, cmd Command, env Env) ([]Event, error) {
	if !s.isHost(cmd.Actor) {
		return nil, ErrNotHost
	}
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	clearMatch(s)
	return nil, nil
}

// clearMatch drops everything that belongs to one match and returns the lobby to WAITING.
func clearMatch(s *State) {
	s.Status = StatusWaiting
	s.Assignments = map[string]Role{}
	s.OriginalRoles = map[string]Role{}
	s.ConvertedPlayerIDs = []string{}
	s.IsFloggingUsed = false
	s.IsGunsStashUsed = false
	s.IsCultCabinSearchUsed = false
	s.IsOffWithTongueUsed = false
	s.Outcome = nil
	s.RoleSelection = RoleSelectionStatus{Phase: PhaseIdle}
	for _, k := range RitualKinds {
		s.resetRitual(k)
	}
	for i := range s.Players {
		p := &s.Players[i]
		p.IsEliminated = false
		p.IsUnconvertible = false
		p.HasTongue = true
		p.NotRole = ""
	}
}
