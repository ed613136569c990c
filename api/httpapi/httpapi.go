package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	wsadapter "rankboard/adapters/websocket"
	"rankboard/core"
	"rankboard/engine"
	"rankboard/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewMux builds an http.Handler exposing the ranking boards over JSON and a
// WebSocket event stream.
// Routes:
//   - GET    {prefix}/healthz
//   - GET    {prefix}/boards
//   - POST   {prefix}/boards/{board}?creator=alice
//   - GET    {prefix}/boards/{board}
//   - DELETE {prefix}/boards/{board}
//   - POST   {prefix}/boards/{board}/participants/{name}
//   - DELETE {prefix}/boards/{board}/participants/{name}
//   - POST   {prefix}/boards/{board}/wins?winner=bob&loser=alice
//   - WS     {prefix}/ws[?board=chess]
func NewMux(svc *engine.RankingService, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()
	route := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+withPrefix(opts.PathPrefix, path), h)
	}

	route(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	route(http.MethodGet, "/boards", func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ListBoards(r.Context())
		respond(w, out, err)
	})
	route(http.MethodPost, "/boards/{board}", func(w http.ResponseWriter, r *http.Request) {
		creator := r.URL.Query().Get("creator")
		if creator == "" {
			writeError(w, http.StatusBadRequest, "missing_creator", "creator is required", nil)
			return
		}
		out, err := svc.CreateBoard(r.Context(), board(r), core.Participant(creator))
		respondCreated(w, out, err)
	})
	route(http.MethodGet, "/boards/{board}", func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Display(r.Context(), board(r))
		respond(w, out, err)
	})
	route(http.MethodDelete, "/boards/{board}", func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.DeleteBoard(r.Context(), board(r))
		respond(w, out, err)
	})
	route(http.MethodPost, "/boards/{board}/participants/{name}", func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.AddParticipant(r.Context(), board(r), core.Participant(r.PathValue("name")))
		respondCreated(w, out, err)
	})
	route(http.MethodDelete, "/boards/{board}/participants/{name}", func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.RemoveParticipant(r.Context(), board(r), core.Participant(r.PathValue("name")))
		respond(w, out, err)
	})
	route(http.MethodPost, "/boards/{board}/wins", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		winner, loser := q.Get("winner"), q.Get("loser")
		if winner == "" || loser == "" {
			writeError(w, http.StatusBadRequest, "missing_players", "winner and loser are required", nil)
			return
		}
		out, err := svc.RecordWin(r.Context(), board(r), core.Participant(winner), core.Participant(loser))
		respond(w, out, err)
	})

	// Outermost first: CORS, API key, rate limit. Rejected keys never get a bucket.
	var handler http.Handler = mux
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	return handler
}

func board(r *http.Request) core.BoardName { return core.BoardName(r.PathValue("board")) }

// healthCheck lists the registry to check that storage is reachable.
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.RankingService) {
	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{"storage": "ok"},
	}
	code := http.StatusOK
	if _, err := svc.ListBoards(r.Context()); err != nil {
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"] = map[string]any{"storage": "failed"}
	}
	writeJSONStatus(w, code, status)
}

func respondCreated(w http.ResponseWriter, out core.Outcome, err error) {
	if err == nil && out.Success {
		writeJSONStatus(w, http.StatusCreated, out)
		return
	}
	respond(w, out, err)
}

// respond maps a service result onto a status code. Business failures keep
// the outcome body so clients still get the formatted message.
func respond(w http.ResponseWriter, out core.Outcome, err error) {
	if err != nil {
		if errors.Is(err, core.ErrStoreIO) {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	writeJSONStatus(w, statusFor(out), out)
}

func statusFor(out core.Outcome) int {
	switch {
	case out.Success:
		return http.StatusOK
	case errors.Is(out.Err, core.ErrNotFound), errors.Is(out.Err, core.ErrNotMember):
		return http.StatusNotFound
	case errors.Is(out.Err, core.ErrAlreadyExists), errors.Is(out.Err, core.ErrAlreadyMember):
		return http.StatusConflict
	case errors.Is(out.Err, core.ErrReservedName), errors.Is(out.Err, core.ErrInvalidName):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func withPrefix(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	return prefix + path
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSONStatus(w, status, apiError{Code: code, Message: msg, Details: details})
}
