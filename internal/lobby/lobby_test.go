package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/clock"
	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const within = 200 * time.Millisecond

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan Outbound) Outbound {
	t.Helper()
	select {
	case out, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return out
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return Outbound{} // unreachable
	}
}

func recvNoMsg(t *testing.T, ch <-chan Outbound) {
	t.Helper()
	select {
	case out, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further messages possible
			return
		}
		t.Fatalf("expected no message within %v, but got: %+v", within, out)
	case <-time.After(within):
		// good: no message
	}
}

func recvClosed(t *testing.T, ch <-chan Outbound) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected outbox to be closed")
		}
	}
}

func view(t *testing.T, l *Lobby) View {
	t.Helper()
	reply := make(chan View, 1)
	require.NoError(t, l.Send(context.Background(), GetState{Reply: reply}))
	select {
	case v := <-reply:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func newTestLobby(t *testing.T, initial engine.State, opts Options) (*Lobby, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC))
	opts.Clock = fake
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewLobby(ctx, initial, opts), fake
}

func join(t *testing.T, l *Lobby, clientID, playerID string, buf int) chan Outbound {
	t.Helper()
	out := make(chan Outbound, buf)
	require.NoError(t, l.Send(context.Background(), Join{ClientID: clientID, PlayerID: playerID, Outbox: out}))
	return out
}

func act(t *testing.T, l *Lobby, clientID string, cmd engine.Command) {
	t.Helper()
	require.NoError(t, l.Send(context.Background(), FromClient{ClientID: clientID, Cmd: cmd}))
}

// hostWithBots is a WAITING lobby hosted by p1 with four bots, enough to start.
func hostWithBots(t *testing.T) engine.State {
	t.Helper()
	env := engine.Env{Now: time.Unix(0, 0)}
	s := engine.NewEmptyState("ABC123", engine.DefaultRules)
	_, s, err := engine.Apply(s, engine.Command{Type: engine.CmdCreateLobby, Actor: "p1", Name: "Host"}, env)
	require.NoError(t, err)
	for range 4 {
		_, s, err = engine.Apply(s, engine.Command{Type: engine.CmdAddBot, Actor: "p1"}, env)
		require.NoError(t, err)
	}
	return s
}

// leaderMatch is a PLAYING match where the only human, p1, leads the cult.
func leaderMatch(t *testing.T) engine.State {
	t.Helper()
	s := hostWithBots(t)
	roles := []engine.Role{engine.RoleCultLeader, engine.RoleSailor, engine.RoleSailor, engine.RolePirate, engine.RoleSailor}
	s.Status = engine.StatusPlaying
	s.Assignments = map[string]engine.Role{}
	for i, p := range s.Players {
		s.Assignments[p.ID] = roles[i]
	}
	return s
}

func TestLobby_JoinGetsSnapshotAndActionsBroadcast(t *testing.T) {
	l, _ := newTestLobby(t, engine.NewEmptyState("ABC123", engine.DefaultRules), Options{})

	out := join(t, l, "c1", "p1", 4)
	first := recvMsg(t, out)
	assert.Equal(t, OutStateUpdate, first.Kind)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, "p1", first.You)
	assert.False(t, first.State.Created)

	// Actor comes from the binding, not the payload.
	act(t, l, "c1", engine.Command{Type: engine.CmdCreateLobby, Actor: "spoofed", Name: "Anne"})
	next := recvMsg(t, out)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.State.Players, 1)
	assert.Equal(t, "p1", next.State.Players[0].ID)
	assert.True(t, next.State.Players[0].IsHost)
}

func TestLobby_ErrorOnlyToOriginator(t *testing.T) {
	l, _ := newTestLobby(t, hostWithBots(t), Options{})
	host := join(t, l, "c1", "p1", 4)
	guest := join(t, l, "c2", "p2", 4)
	recvMsg(t, host)
	recvMsg(t, guest)

	act(t, l, "c2", engine.Command{Type: engine.CmdStartGame})
	msg := recvMsg(t, guest)
	assert.Equal(t, OutError, msg.Kind)
	assert.Equal(t, "NotHost", msg.Message)
	recvNoMsg(t, host)

	act(t, l, "c2", engine.Command{Type: engine.CmdRitualDeadline})
	msg = recvMsg(t, guest)
	assert.Equal(t, "UnsupportedCommand|type:RITUAL_DEADLINE", msg.Message)
	assert.Equal(t, 0, view(t, l).Version)
}

func TestLobby_GameStartedOnceAfterSnapshot(t *testing.T) {
	l, _ := newTestLobby(t, hostWithBots(t), Options{})
	out := join(t, l, "c1", "p1", 8)
	recvMsg(t, out)

	act(t, l, "c1", engine.Command{Type: engine.CmdStartGame})
	update := recvMsg(t, out)
	assert.Equal(t, OutStateUpdate, update.Kind)
	assert.Equal(t, engine.StatusPlaying, update.State.Status)
	started := recvMsg(t, out)
	assert.Equal(t, OutGameStarted, started.Kind)
	assert.Equal(t, update.Version, started.Version)

	act(t, l, "c1", engine.Command{Type: engine.CmdCabinSearchRequest, TargetID: update.State.Players[1].ID})
	assert.Equal(t, OutStateUpdate, recvMsg(t, out).Kind)
	recvNoMsg(t, out)
}

func TestLobby_DeadlineCompletesRound(t *testing.T) {
	l, fake := newTestLobby(t, leaderMatch(t), Options{})
	out := join(t, l, "c1", "p1", 8)
	recvMsg(t, out)

	act(t, l, "c1", engine.Command{Type: engine.CmdStartConversion})
	active := recvMsg(t, out)
	require.Equal(t, engine.PhaseActive, active.State.Conversion.Phase)
	assert.Equal(t, 1, fake.Pending())

	fake.Advance(29 * time.Second)
	recvNoMsg(t, out)

	fake.Advance(time.Second)
	done := recvMsg(t, out)
	assert.Equal(t, engine.PhaseCompleted, done.State.Conversion.Phase)
	require.NotNil(t, done.State.Conversion.Result)
	assert.Empty(t, done.State.Conversion.Result.ConvertedPlayerID)
	assert.Zero(t, fake.Pending())

	fake.Advance(time.Minute)
	recvNoMsg(t, out)
}

func TestLobby_EarlyCompletionStopsTimer(t *testing.T) {
	l, fake := newTestLobby(t, leaderMatch(t), Options{})
	out := join(t, l, "c1", "p1", 8)
	first := recvMsg(t, out)

	act(t, l, "c1", engine.Command{Type: engine.CmdStartConversion})
	recvMsg(t, out)
	act(t, l, "c1", engine.Command{
		Type:     engine.CmdSubmitConversionAction,
		Action:   engine.SubmitPickPlayer,
		TargetID: first.State.Players[1].ID,
	})
	done := recvMsg(t, out)
	assert.Equal(t, engine.PhaseCompleted, done.State.Conversion.Phase)
	assert.Equal(t, []string{first.State.Players[1].ID}, done.State.ConvertedPlayerIDs)
	assert.Zero(t, fake.Pending())
}

func TestLobby_DropSlowClient(t *testing.T) {
	l, _ := newTestLobby(t, engine.NewEmptyState("ABC123", engine.DefaultRules), Options{})

	clientOut := join(t, l, "c1", "p1", 1) // filled by the join snapshot
	act(t, l, "c1", engine.Command{Type: engine.CmdCreateLobby})

	v := view(t, l)
	assert.Equal(t, 0, v.NumClients, "expected slow client to be dropped")
	assert.Equal(t, 1, v.Version)
	recvMsg(t, clientOut)
	recvClosed(t, clientOut)
}

func TestLobby_PresenceFollowsConnections(t *testing.T) {
	l, _ := newTestLobby(t, hostWithBots(t), Options{})
	host := join(t, l, "c1", "p1", 8)
	recvMsg(t, host)
	act(t, l, "c1", engine.Command{Type: engine.CmdJoinLobby})
	recvMsg(t, host)

	require.NoError(t, l.Send(context.Background(), Leave{ClientID: "c1"}))
	p, _ := view(t, l).State.Player("p1")
	assert.False(t, p.IsOnline)

	again := join(t, l, "c9", "p1", 8)
	recvMsg(t, again)
	back := recvMsg(t, again)
	p, _ = back.State.Player("p1")
	assert.True(t, p.IsOnline)
	assert.Len(t, back.State.Players, 5)
}

func TestLobby_KickClosesKickedConnections(t *testing.T) {
	s := hostWithBots(t)
	_, s, err := engine.Apply(s, engine.Command{Type: engine.CmdJoinLobby, Actor: "p2"}, engine.Env{Now: time.Unix(0, 0)})
	require.NoError(t, err)
	l, _ := newTestLobby(t, s, Options{})
	host := join(t, l, "c1", "p1", 8)
	guest := join(t, l, "c2", "p2", 8)
	recvMsg(t, host)
	recvMsg(t, guest)

	act(t, l, "c1", engine.Command{Type: engine.CmdKickPlayer, PlayerID: "p2"})
	kicked := recvMsg(t, guest)
	assert.Equal(t, OutError, kicked.Kind)
	assert.Equal(t, Kicked, kicked.Message)
	recvClosed(t, guest)

	update := recvMsg(t, host)
	_, still := update.State.Player("p2")
	assert.False(t, still)
}

func TestLobby_IdleDisposal(t *testing.T) {
	emptied := make(chan *Lobby, 1)
	l, fake := newTestLobby(t, engine.NewEmptyState("ABC123", engine.DefaultRules), Options{
		IdleTimeout: time.Minute,
		OnEmpty:     func(l *Lobby) { emptied <- l },
	})
	out := join(t, l, "c1", "p1", 4)
	recvMsg(t, out)

	// Connected: the idle timer armed at creation is void.
	fake.Advance(2 * time.Minute)
	assert.Equal(t, 1, view(t, l).NumClients)

	require.NoError(t, l.Send(context.Background(), Leave{ClientID: "c1"}))
	view(t, l)
	fake.Advance(time.Minute)

	select {
	case got := <-emptied:
		assert.Same(t, l, got)
	case <-time.After(within):
		t.Fatalf("lobby was not disposed")
	}
	<-l.Done()
	assert.ErrorIs(t, l.Send(context.Background(), GetState{Reply: make(chan View, 1)}), ErrClosed)
}

func TestLobby_Shutdown_StopsTimers(t *testing.T) {
	l, fake := newTestLobby(t, leaderMatch(t), Options{})
	out := join(t, l, "c1", "p1", 8)
	recvMsg(t, out)
	act(t, l, "c1", engine.Command{Type: engine.CmdStartConversion})
	recvMsg(t, out)

	require.NoError(t, l.Send(context.Background(), Shutdown{}))
	<-l.Done()
	assert.Zero(t, fake.Pending())
	recvClosed(t, out)
}
