package engine

import (
	"errors"
	"strings"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindPermission   ErrorKind = "PermissionDenied"
	KindComposition  ErrorKind = "CompositionError"
	KindCancellation ErrorKind = "CancellationError"
)

type Param struct {
	Key   string
	Value string
}

// RuleError is a rejected action. It renders as "key|k:v|..." so the UI layer can
// localise it without parsing prose.
type RuleError struct {
	Kind   ErrorKind
	Key    string
	Params []Param
}

func (e *RuleError) Error() string {
	var b strings.Builder
	b.WriteString(e.Key)
	for _, p := range e.Params {
		b.WriteByte('|')
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Is matches on key so parametrised copies still satisfy errors.Is against the sentinel.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Key == e.Key
}

// With returns a copy of e carrying one more parameter.
func (e *RuleError) With(key, value string) *RuleError {
	params := make([]Param, len(e.Params), len(e.Params)+1)
	copy(params, e.Params)
	return &RuleError{Kind: e.Kind, Key: e.Key, Params: append(params, Param{Key: key, Value: value})}
}

func validation(key string) *RuleError { return &RuleError{Kind: KindValidation, Key: key} }
func permission(key string) *RuleError { return &RuleError{Kind: KindPermission, Key: key} }

var (
	ErrUnsupportedCommand = validation("UnsupportedCommand")
	ErrLobbyNotCreated    = validation("LobbyNotFound")
	ErrLobbyExists        = validation("LobbyAlreadyExists")
	ErrLobbyFull          = validation("LobbyFull")
	ErrGameInProgress     = validation("GameInProgress")
	ErrNotPlaying         = validation("GameNotStarted")
	ErrUnknownPlayer      = validation("UnknownPlayer")
	ErrNotHost            = permission("NotHost")
	ErrCannotKickSelf     = validation("CannotKickSelf")
	ErrBelowMinimum       = validation("BelowMinimumPlayers")
	ErrAboveMaximum       = validation("AboveMaximumPlayers")
	ErrUnknownMode        = validation("UnknownDistributionMode")
	ErrNotManualMode      = validation("NotManualMode")

	ErrSelectionNotOpen   = validation("RoleSelectionNotActive")
	ErrSelectionOpen      = validation("RoleSelectionActive")
	ErrUnknownRole        = validation("UnknownRole")
	ErrRoleConfirmed      = validation("RoleAlreadyConfirmed")
	ErrNoRoleSelected     = validation("NoRoleSelected")
	ErrInvalidComposition = &RuleError{Kind: KindComposition, Key: "InvalidComposition"}

	ErrMatchOver         = validation("MatchOver")
	ErrRitualInProgress  = validation("RitualInProgress")
	ErrRitualAlreadyUsed = validation("RitualAlreadyUsed")
	ErrRitualNotPending  = validation("RitualNotPending")
	ErrRitualNotActive   = validation("RitualNotActive")
	ErrStaleDeadline     = validation("StaleDeadline")
	ErrEliminated        = validation("PlayerEliminated")
	ErrNotCultLeader     = permission("NotCultLeader")
	ErrNotInitiator      = permission("NotInitiator")
	ErrNotTarget         = permission("NotTarget")
	ErrNotParticipant    = permission("NotParticipant")
	ErrActingForOther    = permission("CannotActForPlayer")
	ErrInvalidTarget     = validation("InvalidTarget")
	ErrAlreadyResponded  = validation("AlreadyResponded")
	ErrAlreadySubmitted  = validation("AlreadySubmitted")
	ErrUnknownAction     = validation("UnknownAction")
	ErrUnknownOption     = validation("UnknownQuizOption")
	ErrBadDistribution   = validation("InvalidGunDistribution")
	ErrNothingToDeny     = validation("NoCommandToDeny")

	ErrUnknownPosition = validation("UnknownPosition")
	ErrPositionClaimed = validation("RoleAlreadyClaimed")
	ErrSilencedCaptain = permission("PermissionDenied")
	ErrAlreadyClaimed  = validation("AlreadyClaimed")
)

// KindOf classifies err; anything that is not a RuleError is reported as validation.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindValidation
}
