package engine

import (
	"math/rand/v2"
	"time"
)

type LobbyStatus string

const (
	StatusWaiting LobbyStatus = "WAITING"
	StatusPlaying LobbyStatus = "PLAYING"
)

type Role string

const (
	RoleSailor     Role = "SAILOR"
	RolePirate     Role = "PIRATE"
	RoleCultLeader Role = "CULT_LEADER"
	RoleCultist    Role = "CULTIST"
)

type Team string

const (
	TeamSailors Team = "SAILORS"
	TeamPirates Team = "PIRATES"
	TeamCult    Team = "CULT"
)

type DistributionMode string

const (
	ModeAutomatic DistributionMode = "AUTOMATIC"
	ModeManual    DistributionMode = "MANUAL"
)

const (
	MinPlayers = 5
	MaxPlayers = 11
)

type Player struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PhotoURL        string `json:"photoUrl,omitempty"`
	IsHost          bool   `json:"isHost"`
	IsBot           bool   `json:"isBot"`
	IsOnline        bool   `json:"isOnline"`
	IsEliminated    bool   `json:"isEliminated"`
	IsUnconvertible bool   `json:"isUnconvertible"`
	HasTongue       bool   `json:"hasTongue"`
	NotRole         Role   `json:"notRole,omitempty"`
	JoinedAt        int64  `json:"joinedAt"` // unix millis
}

type Rules struct {
	ConversionSeconds      int `json:"conversionSeconds"`
	GunsStashSeconds       int `json:"gunsStashSeconds"`
	CultCabinSearchSeconds int `json:"cultCabinSearchSeconds"`
	GunsPerStash           int `json:"gunsPerStash"`
}

type Outcome struct {
	Winner Team   `json:"winner"`
	Reason string `json:"reason"`
}

// State is the authoritative snapshot of one room. It is only ever changed by Apply.
type State struct {
	Code               string           `json:"code"`
	Created            bool             `json:"created"`
	Players            []Player         `json:"players"`
	Status             LobbyStatus      `json:"status"`
	Mode               DistributionMode `json:"roleDistributionMode"`
	Assignments        map[string]Role  `json:"assignments"`
	OriginalRoles      map[string]Role  `json:"originalRoles"`
	ConvertedPlayerIDs []string         `json:"convertedPlayerIds"`

	IsFloggingUsed        bool `json:"isFloggingUsed"`
	IsGunsStashUsed       bool `json:"isGunsStashUsed"`
	IsCultCabinSearchUsed bool `json:"isCultCabinSearchUsed"`
	IsOffWithTongueUsed   bool `json:"isOffWithTongueUsed"`

	RitualGeneration int `json:"ritualGeneration"`

	RoleSelection   RoleSelectionStatus   `json:"roleSelectionStatus"`
	Conversion      ConversionStatus      `json:"conversionStatus"`
	CabinSearch     CabinSearchStatus     `json:"cabinSearchStatus"`
	CultCabinSearch CultCabinSearchStatus `json:"cultCabinSearchStatus"`
	GunsStash       GunsStashStatus       `json:"gunsStashStatus"`
	Flogging        FloggingStatus        `json:"floggingStatus"`
	FeedTheKraken   FeedTheKrakenStatus   `json:"feedTheKrakenStatus"`
	OffWithTongue   OffWithTongueStatus   `json:"offWithTongueStatus"`

	Outcome *Outcome `json:"outcome,omitempty"`
	Rules   Rules    `json:"rules"`

	// Seeds default display names ("Player 3", "Bot 2").
	NextPlayerNumber int `json:"-"`
	NextBotNumber    int `json:"-"`
}

type CommandType string

const (
	CmdCreateLobby            CommandType = "CREATE_LOBBY"
	CmdJoinLobby              CommandType = "JOIN_LOBBY"
	CmdLeaveLobby             CommandType = "LEAVE_LOBBY"
	CmdKickPlayer             CommandType = "KICK_PLAYER"
	CmdAddBot                 CommandType = "ADD_BOT"
	CmdUpdateProfile          CommandType = "UPDATE_PROFILE"
	CmdStartGame              CommandType = "START_GAME"
	CmdSetDistributionMode    CommandType = "SET_ROLE_DISTRIBUTION_MODE"
	CmdSelectRole             CommandType = "SELECT_ROLE"
	CmdConfirmRole            CommandType = "CONFIRM_ROLE"
	CmdCancelRoleSelection    CommandType = "CANCEL_ROLE_SELECTION"
	CmdDenialOfCommand        CommandType = "DENIAL_OF_COMMAND"
	CmdResetGame              CommandType = "RESET_GAME"
	CmdBackToLobby            CommandType = "BACK_TO_LOBBY"
	CmdCabinSearchRequest     CommandType = "CABIN_SEARCH_REQUEST"
	CmdCabinSearchResponse    CommandType = "CABIN_SEARCH_RESPONSE"
	CmdFloggingRequest        CommandType = "FLOGGING_REQUEST"
	CmdFloggingResponse       CommandType = "FLOGGING_CONFIRMATION_RESPONSE"
	CmdStartConversion        CommandType = "START_CONVERSION"
	CmdRespondConversion      CommandType = "RESPOND_CONVERSION"
	CmdSubmitConversionAction CommandType = "SUBMIT_CONVERSION_ACTION"
	CmdStartCultCabinSearch   CommandType = "START_CULT_CABIN_SEARCH"
	CmdClaimCultCabinSearch   CommandType = "CLAIM_CULT_CABIN_SEARCH_ROLE"
	CmdSubmitCultCabinSearch  CommandType = "SUBMIT_CULT_CABIN_SEARCH_ACTION"
	CmdCancelCultCabinSearch  CommandType = "CANCEL_CULT_CABIN_SEARCH"
	CmdStartGunsStash         CommandType = "START_CULT_GUNS_STASH"
	CmdConfirmGunsStashReady  CommandType = "CONFIRM_CULT_GUNS_STASH_READY"
	CmdSubmitGunsDistribution CommandType = "SUBMIT_CULT_GUNS_STASH_DISTRIBUTION"
	CmdSubmitGunsStashAction  CommandType = "SUBMIT_CULT_GUNS_STASH_ACTION"
	CmdCancelGunsStash        CommandType = "CANCEL_CULT_GUNS_STASH"
	CmdFeedTheKrakenRequest   CommandType = "FEED_THE_KRAKEN_REQUEST"
	CmdFeedTheKrakenResponse  CommandType = "FEED_THE_KRAKEN_RESPONSE"
	CmdOffWithTongueRequest   CommandType = "OFF_WITH_TONGUE_REQUEST"
	CmdOffWithTongueResponse  CommandType = "OFF_WITH_TONGUE_RESPONSE"

	// Issued by the room itself, never accepted from a client.
	CmdConnectionLost CommandType = "CONNECTION_LOST"
	CmdRitualDeadline CommandType = "RITUAL_DEADLINE"
)

// SubmissionKind discriminates the payload of the SUBMIT_*_ACTION commands.
type SubmissionKind string

const (
	SubmitPickPlayer  SubmissionKind = "PICK_PLAYER"
	SubmitAnswerQuiz  SubmissionKind = "ANSWER_QUIZ"
	SubmitAcknowledge SubmissionKind = "ACKNOWLEDGE"
)

// Command is one inbound action. Actor is the originating player and is stamped by the
// room from the connection binding, never trusted from the payload.
type Command struct {
	Type         CommandType
	Actor        string
	PlayerID     string // subject: kicked player, bot acted for, ...
	TargetID     string
	Name         string
	PhotoURL     string
	Role         Role
	Position     Position
	Mode         DistributionMode
	Accept       bool
	Action       SubmissionKind
	Answer       string
	Distribution map[string]int
	Ritual       RitualKind
	Generation   int
}

// Env carries the non-deterministic inputs of a transition so Apply stays pure.
type Env struct {
	Now  time.Time
	Rand *rand.Rand
}

type EventType string

const (
	EvtGameStarted         EventType = "GameStarted"
	EvtRitualStarted       EventType = "RitualStarted"
	EvtTimerStarted        EventType = "TimerStarted"
	EvtRitualCompleted     EventType = "RitualCompleted"
	EvtRitualCancelled     EventType = "RitualCancelled"
	EvtRoleSelectionFailed EventType = "RoleSelectionFailed"
	EvtPlayerKicked        EventType = "PlayerKicked"
	EvtCultVictory         EventType = "CultVictory"
)

type Event struct {
	Type       EventType
	Ritual     RitualKind
	Generation int
	Deadline   time.Duration
	PlayerID   string
	Reason     string
}

type handler func(s *State, cmd Command, env Env) ([]Event, error)

var handlers map[CommandType]handler

func init() {
	handlers = map[CommandType]handler{
		CmdCreateLobby:            createLobby,
		CmdJoinLobby:              joinLobby,
		CmdLeaveLobby:             leaveLobby,
		CmdKickPlayer:             kickPlayer,
		CmdAddBot:                 addBot,
		CmdUpdateProfile:          updateProfile,
		CmdConnectionLost:         connectionLost,
		CmdSetDistributionMode:    setDistributionMode,
		CmdStartGame:              startGame,
		CmdResetGame:              resetGame,
		CmdBackToLobby:            backToLobby,
		CmdSelectRole:             selectRole,
		CmdConfirmRole:            confirmRole,
		CmdCancelRoleSelection:    cancelRoleSelection,
		CmdDenialOfCommand:        denialOfCommand,
		CmdCabinSearchRequest:     requestFor(RitualCabinSearch),
		CmdCabinSearchResponse:    respondFor(RitualCabinSearch),
		CmdFloggingRequest:        requestFor(RitualFlogging),
		CmdFloggingResponse:       respondFor(RitualFlogging),
		CmdFeedTheKrakenRequest:   requestFor(RitualFeedTheKraken),
		CmdFeedTheKrakenResponse:  respondFor(RitualFeedTheKraken),
		CmdOffWithTongueRequest:   requestFor(RitualOffWithTongue),
		CmdOffWithTongueResponse:  respondFor(RitualOffWithTongue),
		CmdStartConversion:        startConversion,
		CmdRespondConversion:      consentFor(RitualConversion),
		CmdSubmitConversionAction: submitConversion,
		CmdStartCultCabinSearch:   startCultCabinSearch,
		CmdClaimCultCabinSearch:   claimCultCabinSearch,
		CmdSubmitCultCabinSearch:  submitCultCabinSearch,
		CmdCancelCultCabinSearch:  cancelByInitiator(RitualCultCabinSearch),
		CmdStartGunsStash:         startGunsStash,
		CmdConfirmGunsStashReady:  consentFor(RitualGunsStash),
		CmdSubmitGunsDistribution: submitGunsDistribution,
		CmdSubmitGunsStashAction:  submitGunsStashAnswer,
		CmdCancelGunsStash:        cancelByInitiator(RitualGunsStash),
		CmdRitualDeadline:         ritualDeadline,
	}
}

// Apply validates cmd against s and returns the resulting state. On error the original
// state is returned untouched: handlers work on a deep copy.
func Apply(s State, cmd Command, env Env) ([]Event, State, error) {
	h, ok := handlers[cmd.Type]
	if !ok {
		return nil, s, ErrUnsupportedCommand.With("type", string(cmd.Type))
	}
	if !s.Created && cmd.Type != CmdCreateLobby {
		return nil, s, ErrLobbyNotCreated
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(uint64(env.Now.UnixNano()), 0x6b72616b656e))
	}

	next := s.Clone()
	events, err := h(&next, cmd, env)
	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

// IsSystemCommand reports whether t may only be issued by the room itself.
func IsSystemCommand(t CommandType) bool {
	return t == CmdConnectionLost || t == CmdRitualDeadline
}

// KnownCommand reports whether t names a client-originated action.
func KnownCommand(t CommandType) bool {
	_, ok := handlers[t]
	return ok && !IsSystemCommand(t)
}
