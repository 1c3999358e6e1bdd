package lobby

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/clock"
	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Msg interface{ isLobbyMsg() }

// FromClient is an action read off a connection. Cmd.Actor is overwritten with the
// player the connection is bound to.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// Join binds a connection to a player id. The lobby writes to Outbox and closes it when
// it drops the connection.
type Join struct {
	ClientID string
	PlayerID string
	Outbox   chan Outbound
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type deadlineFired struct {
	Ritual     engine.RitualKind
	Generation int
}

func (deadlineFired) isLobbyMsg() {}

type idleFired struct{ Seq int }

func (idleFired) isLobbyMsg() {}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Options struct {
	Clock  clock.Clock
	Logger *zap.Logger
	// IdleTimeout disposes the lobby once it has had no connections for this long.
	// Zero keeps it forever.
	IdleTimeout time.Duration
	// OnEmpty runs on the lobby goroutine after an idle shutdown.
	OnEmpty func(*Lobby)
	Rand    *rand.Rand
}

type conn struct {
	playerID string
	out      chan Outbound
	dropped  bool
}

type Lobby struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	conns   map[string]*conn

	clock       clock.Clock
	timers      map[engine.RitualKind]clock.Timer
	idle        clock.Timer
	idleSeq     int
	idleTimeout time.Duration
	onEmpty     func(*Lobby)

	rng      *rand.Rand
	log      *zap.Logger
	numConns atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLobby(parent context.Context, initial engine.State, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rand == nil {
		seed := uint64(opts.Clock.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>7))
	}

	l := &Lobby{
		code:        initial.Code,
		inbox:       make(chan Msg, 64), // Small buffer
		state:       initial,
		conns:       make(map[string]*conn),
		clock:       opts.Clock,
		timers:      make(map[engine.RitualKind]clock.Timer),
		idleTimeout: opts.IdleTimeout,
		onEmpty:     opts.OnEmpty,
		rng:         opts.Rand,
		log:         opts.Logger.With(zap.String("code", initial.Code)),
		ctx:         ctx,
		cancel:      cancel,
	}

	// A lobby nobody ever joins is disposed like one everybody left.
	l.armIdle()
	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				l.leave(msg.ClientID)

			case FromClient:
				l.fromClient(msg)

			case deadlineFired:
				l.apply(engine.Command{Type: engine.CmdRitualDeadline, Ritual: msg.Ritual, Generation: msg.Generation}, nil)

			case idleFired:
				if msg.Seq != l.idleSeq || l.live() > 0 {
					break
				}
				l.log.Info("lobby idle, shutting down", zap.Duration("after", l.idleTimeout))
				l.shutdown()
				if l.onEmpty != nil {
					l.onEmpty(l)
				}
				return

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: l.live(),
					State:      l.state.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) {
	c := &conn{playerID: msg.PlayerID, out: msg.Outbox}
	l.conns[msg.ClientID] = c
	l.numConns.Store(int32(l.live()))
	l.disarmIdle()

	// Register client + send current snapshot immediately
	l.send(msg.ClientID, c, l.stateFor(c))
	l.log.Debug("client joined", zap.String("client", msg.ClientID), zap.String("player", msg.PlayerID))

	// A known player coming back is marked online again.
	if p, ok := l.state.Player(msg.PlayerID); ok && !p.IsOnline {
		l.apply(engine.Command{Type: engine.CmdJoinLobby, Actor: msg.PlayerID}, nil)
	}
}

func (l *Lobby) leave(clientID string) {
	c, ok := l.conns[clientID]
	if !ok {
		return
	}
	delete(l.conns, clientID)
	if !c.dropped {
		close(c.out)
	}
	l.numConns.Store(int32(l.live()))
	l.log.Debug("client left", zap.String("client", clientID), zap.String("player", c.playerID))

	if !l.playerConnected(c.playerID) {
		if p, ok := l.state.Player(c.playerID); ok && p.IsOnline {
			l.apply(engine.Command{Type: engine.CmdConnectionLost, Actor: c.playerID}, nil)
		}
	}
	if len(l.conns) == 0 {
		l.armIdle()
	}
}

func (l *Lobby) fromClient(msg FromClient) {
	c, ok := l.conns[msg.ClientID]
	if !ok || c.dropped {
		return
	}
	cmd := msg.Cmd
	cmd.Actor = c.playerID
	if engine.IsSystemCommand(cmd.Type) {
		l.send(msg.ClientID, c, errorOut(engine.ErrUnsupportedCommand.With("type", string(cmd.Type)).Error()))
		return
	}
	if cmd.Type == engine.CmdAddBot && cmd.PlayerID == "" {
		cmd.PlayerID = "bot-" + uuid.NewString()
	}
	l.apply(cmd, &origin{id: msg.ClientID, conn: c})
}

type origin struct {
	id   string
	conn *conn
}

// apply runs cmd through the reducer. A rejection goes back to from only; system
// commands have no origin and are only logged.
func (l *Lobby) apply(cmd engine.Command, from *origin) {
	events, next, err := engine.Apply(l.state, cmd, engine.Env{Now: l.clock.Now(), Rand: l.rng})
	if err != nil {
		l.log.Debug("action rejected",
			zap.String("type", string(cmd.Type)),
			zap.String("player", cmd.Actor),
			zap.Error(err))
		if from != nil {
			l.send(from.id, from.conn, errorOut(err.Error()))
		}
		return
	}
	l.commit(events, next)
}

func (l *Lobby) commit(events []engine.Event, next engine.State) {
	l.state = next
	l.version++

	for _, ev := range events {
		switch ev.Type {
		case engine.EvtTimerStarted:
			l.arm(ev.Ritual, ev.Generation, ev.Deadline)
		case engine.EvtRitualCompleted:
			l.log.Info("ritual completed", zap.String("ritual", string(ev.Ritual)), zap.Int("generation", ev.Generation))
		case engine.EvtRitualCancelled:
			l.log.Info("ritual cancelled", zap.String("ritual", string(ev.Ritual)), zap.String("reason", ev.Reason))
		case engine.EvtPlayerKicked:
			l.kick(ev.PlayerID)
		case engine.EvtCultVictory:
			l.log.Info("cult victory", zap.String("player", ev.PlayerID))
		}
	}
	l.syncTimers()

	l.broadcastState()
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtGameStarted:
			l.log.Info("game started", zap.Int("players", len(l.state.Players)))
			l.broadcast(func(*conn) Outbound { return Outbound{Kind: OutGameStarted, Version: l.version} })
		case engine.EvtRoleSelectionFailed:
			l.broadcast(func(*conn) Outbound { return errorOut(ev.Reason) })
		}
	}
}

func (l *Lobby) shutdown() {
	for kind, t := range l.timers {
		t.Stop()
		delete(l.timers, kind)
	}
	l.disarmIdle()
	for id, c := range l.conns {
		if !c.dropped {
			close(c.out) // Tell client no more messages
		}
		delete(l.conns, id)
	}
	l.numConns.Store(0)
	l.cancel()
}

func (l *Lobby) live() int {
	n := 0
	for _, c := range l.conns {
		if !c.dropped {
			n++
		}
	}
	return n
}

func (l *Lobby) playerConnected(playerID string) bool {
	for _, c := range l.conns {
		if c.playerID == playerID && !c.dropped {
			return true
		}
	}
	return false
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless ctx ends or the lobby has already shut down.
func (l *Lobby) Send(ctx context.Context, m Msg) error {
	select {
	case <-l.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot asks the lobby goroutine for its current view.
func (l *Lobby) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.Send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// post is Send for callbacks fired by the clock.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) Code() string { return l.code }

// Connections is safe to call from any goroutine.
func (l *Lobby) Connections() int { return int(l.numConns.Load()) }
