package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/DoyleJ11/kraken-backend/internal/hub"
	"github.com/DoyleJ11/kraken-backend/internal/lobby"
	"github.com/DoyleJ11/kraken-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	Logger *zap.Logger
	// Rules seed a lobby that is created by its first connection.
	Rules          engine.Rules
	AllowedOrigins []string
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	RateLimit      float64 // messages per second
	RateBurst      int
}

const outboxSize = 8

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(r.URL.Query().Get("code"))
		if !hub.ValidCode(code) {
			http.Error(w, "invalid code", http.StatusBadRequest)
			return
		}

		// The first connection to a code creates its lobby.
		lb, err := h.Ensure(r.Context(), code, engine.NewEmptyState(code, opts.Rules))
		if err != nil || lb == nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			playerID = uuid.NewString()
		}
		clientID := uuid.NewString()
		log := opts.Logger.With(zap.String("code", code), zap.String("client", clientID), zap.String("player", playerID))

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.AllowedOrigins,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Outbound, outboxSize)
		if err := lb.Send(r.Context(), lobby.Join{ClientID: clientID, PlayerID: playerID, Outbox: out}); err != nil {
			conn.Close(websocket.StatusGoingAway, "lobby closed")
			return
		}
		defer func() { _ = lb.Send(context.Background(), lobby.Leave{ClientID: clientID}) }()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writeLoop(ctx, cancel, conn, out, opts.WriteTimeout, log)

		limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
		if opts.RateLimit <= 0 {
			limiter = rate.NewLimiter(rate.Inf, 0)
		}

		// Reader loop
		for {
			readCtx, readCancel := context.WithTimeout(ctx, opts.ReadTimeout)
			_, data, err := conn.Read(readCtx)
			readCancel()
			if err != nil {
				// Treat clean close/going-away as normal:
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read ended", zap.Error(err))
					}
				}
				return
			}

			if !limiter.Allow() {
				writeError(ctx, conn, "RateLimited", opts.WriteTimeout)
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(ctx, conn, "BadMessage", opts.WriteTimeout)
				continue
			}
			if cm.Type == types.Ping {
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				writeError(ctx, conn, engine.ErrUnsupportedCommand.With("type", cm.Type).Error(), opts.WriteTimeout)
				continue
			}

			if err := lb.Send(ctx, lobby.FromClient{ClientID: clientID, Cmd: cmd}); err != nil {
				conn.Close(websocket.StatusGoingAway, "lobby closed")
				return
			}
		}
	}
}

// writeLoop drains the outbox. When the lobby closes it (slow client, kick, shutdown)
// the connection is torn down so the client reconnects.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan lobby.Outbound, timeout time.Duration, log *zap.Logger) {
	defer cancel()
	for msg := range out {
		payload, err := json.Marshal(toServerMessage(msg))
		if err != nil {
			log.Error("encode server message", zap.Error(err))
			continue
		}
		wctx, wcancel := context.WithTimeout(ctx, timeout)
		err = conn.Write(wctx, websocket.MessageText, payload)
		wcancel()
		if err != nil {
			log.Debug("write failed", zap.Error(err))
			return
		}
	}
	conn.Close(websocket.StatusGoingAway, "dropped")
}

func writeError(ctx context.Context, conn *websocket.Conn, message string, timeout time.Duration) {
	payload, _ := json.Marshal(types.ServerMessage{Type: string(lobby.OutError), Message: message})
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func toServerMessage(o lobby.Outbound) types.ServerMessage {
	msg := types.ServerMessage{Type: string(o.Kind), Version: o.Version, You: o.You, Message: o.Message}
	if o.Kind == lobby.OutStateUpdate {
		state := o.State
		msg.State = &state
	}
	return msg
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	typ := engine.CommandType(m.Type)
	if !engine.KnownCommand(typ) {
		return engine.Command{}, false
	}
	return engine.Command{
		Type:         typ,
		PlayerID:     m.PlayerID,
		TargetID:     m.TargetID,
		Name:         m.Name,
		PhotoURL:     m.PhotoURL,
		Role:         engine.Role(m.Role),
		Position:     engine.Position(m.Role),
		Mode:         engine.DistributionMode(m.Mode),
		Accept:       m.Accept,
		Action:       engine.SubmissionKind(m.Action),
		Answer:       m.Answer,
		Distribution: m.Distribution,
	}, true
}
