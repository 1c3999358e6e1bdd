package lobby

import (
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
)

// arm replaces the deadline timer for kind. The callback only enqueues; the reducer decides
// whether the fire is still current.
func (l *Lobby) arm(kind engine.RitualKind, generation int, d time.Duration) {
	if t, ok := l.timers[kind]; ok {
		t.Stop()
	}
	l.timers[kind] = l.clock.AfterFunc(d, func() {
		l.post(deadlineFired{Ritual: kind, Generation: generation})
	})
}

// syncTimers stops timers whose round is no longer running.
func (l *Lobby) syncTimers() {
	for kind, t := range l.timers {
		if l.state.Ritual(kind).Phase != engine.PhaseActive {
			t.Stop()
			delete(l.timers, kind)
		}
	}
}

func (l *Lobby) armIdle() {
	if l.idleTimeout <= 0 {
		return
	}
	l.disarmIdle()
	seq := l.idleSeq
	l.idle = l.clock.AfterFunc(l.idleTimeout, func() {
		l.post(idleFired{Seq: seq})
	})
}

func (l *Lobby) disarmIdle() {
	l.idleSeq++
	if l.idle != nil {
		l.idle.Stop()
		l.idle = nil
	}
}
