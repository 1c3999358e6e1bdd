package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/DoyleJ11/kraken-backend/internal/hub"
	"github.com/DoyleJ11/kraken-backend/internal/lobby"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxAttempts = 16

var errNoFreeCode = errors.New("no free lobby code")

func GenerateCode() (string, error) {
	code := make([]byte, hub.CodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(hub.CodeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = hub.CodeCharset[num.Int64()]
	}
	return string(code), nil
}

type LobbySummary struct {
	Code        string             `json:"code"`
	Status      engine.LobbyStatus `json:"status"`
	Players     []engine.Player    `json:"players"`
	Version     int                `json:"version"`
	Connections int                `json:"connections"`
}

func CreateLobby(h *hub.Hub, rules engine.Rules, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := freeCode(r, h, log)
		if err != nil {
			log.Error("create lobby", zap.Error(err))
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		lb, err := h.Ensure(r.Context(), code, engine.NewEmptyState(code, rules))
		if err != nil || lb == nil {
			log.Error("create lobby", zap.String("code", code), zap.Error(err))
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// freeCode keeps drawing codes until one is not registered with the hub.
func freeCode(r *http.Request, h *hub.Hub, log *zap.Logger) (string, error) {
	for range maxAttempts {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		lb, err := h.Get(r.Context(), c)
		if err != nil {
			return "", err
		}
		if lb == nil {
			return c, nil
		}
		log.Debug("collision on code, regenerating", zap.String("code", c))
	}
	return "", errNoFreeCode
}

func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		lb, err := h.Get(r.Context(), code)
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		v, err := lb.Snapshot(r.Context())
		if errors.Is(err, lobby.ErrClosed) {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, http.StatusOK, LobbySummary{
			Code:        code,
			Status:      v.State.Status,
			Players:     v.State.Players,
			Version:     v.Version,
			Connections: v.NumClients,
		})
	}
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.List(r.Context())
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
