package engine

import (
	"slices"
	"strconv"
	"time"
)

type RitualKind string

const (
	RitualConversion      RitualKind = "CONVERSION"
	RitualCabinSearch     RitualKind = "CABIN_SEARCH"
	RitualCultCabinSearch RitualKind = "CULT_CABIN_SEARCH"
	RitualGunsStash       RitualKind = "GUNS_STASH"
	RitualFlogging        RitualKind = "FLOGGING"
	RitualFeedTheKraken   RitualKind = "FEED_THE_KRAKEN"
	RitualOffWithTongue   RitualKind = "OFF_WITH_TONGUE"
)

var RitualKinds = []RitualKind{
	RitualConversion,
	RitualCabinSearch,
	RitualCultCabinSearch,
	RitualGunsStash,
	RitualFlogging,
	RitualFeedTheKraken,
	RitualOffWithTongue,
}

// RitualPhase is the tag of every ritual status. IDLE means "never started this match".
type RitualPhase string

const (
	PhaseIdle      RitualPhase = "IDLE"
	PhasePending   RitualPhase = "PENDING"
	PhaseSetup     RitualPhase = "SETUP"
	PhaseActive    RitualPhase = "ACTIVE"
	PhaseCompleted RitualPhase = "COMPLETED"
	PhaseCancelled RitualPhase = "CANCELLED"
)

func (p RitualPhase) Live() bool {
	return p == PhasePending || p == PhaseSetup || p == PhaseActive
}

func (p RitualPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// Ritual is the header shared by all ritual statuses.
type Ritual struct {
	Phase        RitualPhase `json:"phase"`
	Generation   int         `json:"generation,omitempty"`
	InitiatorID  string      `json:"initiatorId,omitempty"`
	TargetID     string      `json:"targetId,omitempty"`
	StartTime    int64       `json:"startTime,omitempty"` // unix millis
	Duration     int64       `json:"duration,omitempty"`  // millis
	EndTime      int64       `json:"endTime,omitempty"`   // unix millis
	CancelReason string      `json:"cancelReason,omitempty"`
}

type Consent string

const (
	ConsentPending  Consent = "pending"
	ConsentAccepted Consent = "accepted"
	ConsentDeclined Consent = "declined"
)

// Cancellation reasons. They follow the error format so the UI can localise them.
const (
	ReasonDenied              = "denied"
	ReasonDeclined            = "declined"
	ReasonCancelled           = "cancelled"
	ReasonPlayerRemoved       = "playerRemoved"
	ReasonDenialOfCommand     = "denialOfCommand"
	ReasonInvalidDistribution = "Invalid role distribution"
)

func reason(key, playerID string) string {
	e := &RuleError{Kind: KindCancellation, Key: key}
	if playerID != "" {
		e = e.With("playerId", playerID)
	}
	return e.Error()
}

func (s *State) ritual(kind RitualKind) *Ritual {
	switch kind {
	case RitualConversion:
		return &s.Conversion.Ritual
	case RitualCabinSearch:
		return &s.CabinSearch.Ritual
	case RitualCultCabinSearch:
		return &s.CultCabinSearch.Ritual
	case RitualGunsStash:
		return &s.GunsStash.Ritual
	case RitualFlogging:
		return &s.Flogging.Ritual
	case RitualFeedTheKraken:
		return &s.FeedTheKraken.Ritual
	case RitualOffWithTongue:
		return &s.OffWithTongue.Ritual
	}
	return nil
}

// Ritual returns a copy of the header for kind, for callers outside the reducer.
func (s State) Ritual(kind RitualKind) Ritual {
	if r := s.ritual(kind); r != nil {
		return *r
	}
	return Ritual{Phase: PhaseIdle}
}

func (s *State) resetRitual(kind RitualKind) {
	switch kind {
	case RitualConversion:
		s.Conversion = ConversionStatus{}
	case RitualCabinSearch:
		s.CabinSearch = CabinSearchStatus{}
	case RitualCultCabinSearch:
		s.CultCabinSearch = CultCabinSearchStatus{}
	case RitualGunsStash:
		s.GunsStash = GunsStashStatus{}
	case RitualFlogging:
		s.Flogging = FloggingStatus{}
	case RitualFeedTheKraken:
		s.FeedTheKraken = FeedTheKrakenStatus{}
	case RitualOffWithTongue:
		s.OffWithTongue = OffWithTongueStatus{}
	}
	s.ritual(kind).Phase = PhaseIdle
}

// LiveRitual returns the ritual that is currently non-terminal, if any.
func (s State) LiveRitual() (RitualKind, bool) {
	for _, k := range RitualKinds {
		if s.ritual(k).Phase.Live() {
			return k, true
		}
	}
	return "", false
}

// guardStart applies the checks every ritual start shares and returns the initiator.
func guardStart(s *State, kind RitualKind, actor string) (*Player, error) {
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if s.Outcome != nil {
		return nil, ErrMatchOver
	}
	p := s.player(actor)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.IsEliminated {
		return nil, ErrEliminated
	}
	if live, ok := s.LiveRitual(); ok {
		return nil, ErrRitualInProgress.With("ritual", string(live))
	}
	if s.used(kind) {
		return nil, ErrRitualAlreadyUsed.With("ritual", string(kind))
	}
	return p, nil
}

func requireLeader(s *State, actor string) error {
	if s.Assignments[actor] != RoleCultLeader {
		return ErrNotCultLeader
	}
	return nil
}

// used reports the one-time flag for kind; repeatable rituals are never used up.
func (s *State) used(kind RitualKind) bool {
	switch kind {
	case RitualFlogging:
		return s.IsFloggingUsed
	case RitualGunsStash:
		return s.IsGunsStashUsed
	case RitualCultCabinSearch:
		return s.IsCultCabinSearchUsed
	case RitualOffWithTongue:
		return s.IsOffWithTongueUsed
	}
	return false
}

// markUsed is only ever called on COMPLETED.
func (s *State) markUsed(kind RitualKind) {
	switch kind {
	case RitualFlogging:
		s.IsFloggingUsed = true
	case RitualGunsStash:
		s.IsGunsStashUsed = true
	case RitualCultCabinSearch:
		s.IsCultCabinSearchUsed = true
	case RitualOffWithTongue:
		s.IsOffWithTongueUsed = true
	}
}

func begin(s *State, kind RitualKind, phase RitualPhase, initiator, target string) (*Ritual, Event) {
	s.resetRitual(kind)
	s.RitualGeneration++
	h := s.ritual(kind)
	h.Phase = phase
	h.Generation = s.RitualGeneration
	h.InitiatorID = initiator
	h.TargetID = target
	return h, Event{Type: EvtRitualStarted, Ritual: kind, Generation: h.Generation, PlayerID: initiator}
}

func startRound(h *Ritual, kind RitualKind, env Env, seconds int) Event {
	d := time.Duration(seconds) * time.Second
	h.Phase = PhaseActive
	h.StartTime = env.Now.UnixMilli()
	h.Duration = d.Milliseconds()
	h.EndTime = env.Now.Add(d).UnixMilli()
	return Event{Type: EvtTimerStarted, Ritual: kind, Generation: h.Generation, Deadline: d}
}

func complete(s *State, kind RitualKind) Event {
	h := s.ritual(kind)
	h.Phase = PhaseCompleted
	s.markUsed(kind)
	return Event{Type: EvtRitualCompleted, Ritual: kind, Generation: h.Generation}
}

func cancel(s *State, kind RitualKind, why string) Event {
	h := s.ritual(kind)
	h.Phase = PhaseCancelled
	h.CancelReason = why
	return Event{Type: EvtRitualCancelled, Ritual: kind, Generation: h.Generation, Reason: why}
}

// actingAs resolves who an action is for. The host may act for bots; everyone else only
// for themselves. Connections whose player is not on the roster can watch but never act.
func actingAs(s *State, actor, subject string) (string, error) {
	if s.player(actor) == nil {
		return "", ErrUnknownPlayer
	}
	if subject == "" || subject == actor {
		return actor, nil
	}
	p := s.player(subject)
	if p == nil {
		return "", ErrUnknownPlayer
	}
	if !p.IsBot || !s.isHost(actor) {
		return "", ErrActingForOther
	}
	return subject, nil
}

// eligibleHumans lists non-eliminated human players in roster order.
func eligibleHumans(s *State) []string {
	var ids []string
	for _, p := range s.Players {
		if !p.IsEliminated && !p.IsBot {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ---- consent gate (Conversion, Guns Stash) ----

type ConsentSet map[string]Consent

func newConsent(s *State, initiator string) ConsentSet {
	c := ConsentSet{}
	for _, id := range eligibleHumans(s) {
		c[id] = ConsentPending
	}
	c[initiator] = ConsentAccepted
	return c
}

func (c ConsentSet) unanimous() bool {
	for _, v := range c {
		if v != ConsentAccepted {
			return false
		}
	}
	return true
}

type consentRitual struct {
	consent  func(s *State) ConsentSet
	activate func(s *State, env Env) []Event
}

var consentRituals = map[RitualKind]consentRitual{}

// consentFor handles accept/decline while a consent ritual is PENDING. A decline, even
// after an accept, cancels for everyone.
func consentFor(kind RitualKind) handler {
	return func(s *State, cmd Command, env Env) ([]Event, error) {
		h := s.ritual(kind)
		if h.Phase != PhasePending {
			return nil, ErrRitualNotPending.With("ritual", string(kind))
		}
		cr := consentRituals[kind]
		set := cr.consent(s)
		if _, ok := set[cmd.Actor]; !ok {
			return nil, ErrNotParticipant
		}
		if !cmd.Accept {
			set[cmd.Actor] = ConsentDeclined
			return []Event{cancel(s, kind, reason(ReasonDeclined, cmd.Actor))}, nil
		}
		if set[cmd.Actor] == ConsentAccepted {
			return nil, ErrAlreadyResponded
		}
		set[cmd.Actor] = ConsentAccepted
		if !set.unanimous() {
			return nil, nil
		}
		return cr.activate(s, env), nil
	}
}

// ---- target-confirmation gate (captain Cabin Search, Flogging, Kraken, Tongue) ----

type targetRitual struct {
	check   func(s *State, target *Player) error
	resolve func(s *State, env Env, target *Player) []Event
}

var targetRituals = map[RitualKind]targetRitual{}

func requestFor(kind RitualKind) handler {
	return func(s *State, cmd Command, env Env) ([]Event, error) {
		if _, err := guardStart(s, kind, cmd.Actor); err != nil {
			return nil, err
		}
		target := s.player(cmd.TargetID)
		if target == nil || target.ID == cmd.Actor || target.IsEliminated {
			return nil, ErrInvalidTarget.With("playerId", cmd.TargetID)
		}
		if tr := targetRituals[kind]; tr.check != nil {
			if err := tr.check(s, target); err != nil {
				return nil, err
			}
		}
		_, ev := begin(s, kind, PhasePending, cmd.Actor, target.ID)
		return []Event{ev}, nil
	}
}

// respondFor lets the named target accept (resolve now) or decline (CANCELLED "denied",
// the initiator may retry with someone else).
func respondFor(kind RitualKind) handler {
	return func(s *State, cmd Command, env Env) ([]Event, error) {
		h := s.ritual(kind)
		if h.Phase != PhasePending {
			return nil, ErrRitualNotPending.With("ritual", string(kind))
		}
		who, err := actingAs(s, cmd.Actor, cmd.PlayerID)
		if err != nil {
			return nil, err
		}
		if who != h.TargetID {
			return nil, ErrNotTarget
		}
		if !cmd.Accept {
			return []Event{cancel(s, kind, reason(ReasonDenied, who))}, nil
		}
		events := targetRituals[kind].resolve(s, env, s.player(who))
		return append(events, complete(s, kind)), nil
	}
}

// denialOfCommand lets any other eligible player refuse a pending captain command.
func denialOfCommand(s *State, cmd Command, env Env) ([]Event, error) {
	if s.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	p := s.player(cmd.Actor)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.IsEliminated {
		return nil, ErrEliminated
	}
	for _, kind := range RitualKinds {
		if _, ok := targetRituals[kind]; !ok {
			continue
		}
		h := s.ritual(kind)
		if h.Phase != PhasePending {
			continue
		}
		if h.InitiatorID == cmd.Actor {
			return nil, ErrNotParticipant
		}
		return []Event{cancel(s, kind, reason(ReasonDenialOfCommand, cmd.Actor))}, nil
	}
	return nil, ErrNothingToDeny
}

// ---- explicit cancel by the initiator ----

func cancelByInitiator(kind RitualKind) handler {
	return func(s *State, cmd Command, env Env) ([]Event, error) {
		h := s.ritual(kind)
		if !h.Phase.Live() {
			return nil, ErrRitualNotActive.With("ritual", string(kind))
		}
		if h.InitiatorID != cmd.Actor {
			return nil, ErrNotInitiator
		}
		return []Event{cancel(s, kind, reason(ReasonCancelled, cmd.Actor))}, nil
	}
}

// ---- timed rounds (Conversion, Guns Stash, cult Cabin Search) ----

type timedRitual struct {
	done     func(s *State) bool
	finalize func(s *State, env Env) []Event
}

var timedRituals = map[RitualKind]timedRitual{}

// settle finalizes the round early once every required submission is in.
func settle(s *State, kind RitualKind, env Env) []Event {
	tr := timedRituals[kind]
	if !tr.done(s) {
		return nil
	}
	return append(tr.finalize(s, env), complete(s, kind))
}

// ritualDeadline is the clock re-entering the room. Anything but the ACTIVE round of the
// same generation is stale and rejected without touching state.
func ritualDeadline(s *State, cmd Command, env Env) ([]Event, error) {
	tr, ok := timedRituals[cmd.Ritual]
	if !ok {
		return nil, ErrStaleDeadline.With("ritual", string(cmd.Ritual))
	}
	h := s.ritual(cmd.Ritual)
	if h.Phase != PhaseActive || h.Generation != cmd.Generation {
		return nil, ErrStaleDeadline.
			With("ritual", string(cmd.Ritual)).
			With("generation", strconv.Itoa(cmd.Generation))
	}
	return append(tr.finalize(s, env), complete(s, cmd.Ritual)), nil
}

// cancelLive aborts whatever ritual is running, used when the roster changes mid-match.
func cancelLive(s *State, why string) []Event {
	kind, ok := s.LiveRitual()
	if !ok {
		return nil
	}
	return []Event{cancel(s, kind, why)}
}

// inRosterOrder filters ids to those on the roster, in roster order.
func inRosterOrder(s *State, keep func(id string) bool) []string {
	out := []string{}
	for _, p := range s.Players {
		if keep(p.ID) {
			out = append(out, p.ID)
		}
	}
	return out
}

func containsID(ids []string, id string) bool { return slices.Contains(ids, id) }
