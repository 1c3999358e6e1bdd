package types

import "github.com/DoyleJ11/kraken-backend/internal/engine"

// ClientMessage is one inbound frame. Type is an action name such as "START_GAME";
// the remaining fields are read according to it. CLAIM_CULT_CABIN_SEARCH_ROLE carries the
// position in Role.
type ClientMessage struct {
	Type         string         `json:"type"`
	PlayerID     string         `json:"playerId,omitempty"`
	TargetID     string         `json:"targetPlayerId,omitempty"`
	Name         string         `json:"name,omitempty"`
	PhotoURL     string         `json:"photoUrl,omitempty"`
	Role         string         `json:"role,omitempty"`
	Mode         string         `json:"mode,omitempty"`
	Accept       bool           `json:"accept,omitempty"`
	Action       string         `json:"action,omitempty"`
	Answer       string         `json:"answer,omitempty"`
	Distribution map[string]int `json:"distribution,omitempty"`
}

// Ping keeps an otherwise quiet connection inside the read timeout.
const Ping = "PING"

type ServerMessage struct {
	Type    string        `json:"type"` // "STATE_UPDATE" | "GAME_STARTED" | "ERROR"
	Version int           `json:"version,omitempty"`
	You     string        `json:"you,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Message string        `json:"message,omitempty"`
}
