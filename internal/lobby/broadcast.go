package lobby

import (
	"errors"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("lobby closed")

type OutKind string

const (
	OutStateUpdate OutKind = "STATE_UPDATE"
	OutGameStarted OutKind = "GAME_STARTED"
	OutError       OutKind = "ERROR"
)

// Kicked is sent to every connection of a removed player right before it is closed.
const Kicked = "Kicked"

// Outbound is one message for one connection. State is only set for STATE_UPDATE,
// Message only for ERROR.
type Outbound struct {
	Kind    OutKind
	Version int
	You     string
	State   engine.State
	Message string
}

func errorOut(message string) Outbound {
	return Outbound{Kind: OutError, Message: message}
}

func (l *Lobby) stateFor(c *conn) Outbound {
	return Outbound{Kind: OutStateUpdate, Version: l.version, You: c.playerID, State: l.state}
}

func (l *Lobby) broadcastState() {
	l.broadcast(l.stateFor)
}

// broadcast never blocks: a connection whose outbox is full is dropped and has to
// reconnect, which hands it the current snapshot anyway.
func (l *Lobby) broadcast(build func(*conn) Outbound) {
	for id, c := range l.conns {
		if c.dropped {
			continue
		}
		l.send(id, c, build(c))
	}
}

func (l *Lobby) send(id string, c *conn, out Outbound) {
	select {
	case c.out <- out:
		//ok
	default:
		// Client is slow/full - drop them.
		l.log.Warn("dropping slow client", zap.String("client", id), zap.String("player", c.playerID))
		l.drop(c)
	}
}

// drop closes the outbox but keeps the binding until the connection's Leave arrives, so
// presence is still settled in one place.
func (l *Lobby) drop(c *conn) {
	if c.dropped {
		return
	}
	c.dropped = true
	close(c.out)
	l.numConns.Store(int32(l.live()))
}

func (l *Lobby) kick(playerID string) {
	for id, c := range l.conns {
		if c.playerID != playerID || c.dropped {
			continue
		}
		l.send(id, c, errorOut(Kicked))
		l.drop(c)
	}
}
