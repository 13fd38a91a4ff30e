// Package server exposes the agent over HTTP to the game server.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nstehr/bastion/bastion-core/agent"
	"github.com/nstehr/bastion/bastion-core/model"
	"github.com/nstehr/bastion/bastion-core/store"
)

const (
	negotiateSchema = "negotiate.schema.json"
	combatSchema    = "combat.schema.json"

	maxBodyBytes = 1 << 20
)

type ctxKey int

const requestIDKey ctxKey = iota

// Server routes game requests to an Agent.
type Server struct {
	agent   *agent.Agent
	schemas map[string]*jsonschema.Schema
	router  *mux.Router
}

func New(a *agent.Agent) (*Server, error) {
	schemas, err := compileSchemas(negotiateSchema, combatSchema)
	if err != nil {
		return nil, err
	}
	s := &Server{agent: a, schemas: schemas}

	r := mux.NewRouter()
	r.Use(requestID, accessLog)
	r.HandleFunc("/negotiate", s.handleNegotiate).Methods(http.MethodPost)
	r.HandleFunc("/combat", s.handleCombat).Methods(http.MethodPost)
	r.HandleFunc("/games/{gameId:[0-9]+}/players/{playerId:[0-9]+}", s.handleForget).Methods(http.MethodDelete)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleNegotiate(w http.ResponseWriter, r *http.Request) {
	var req model.NegotiateRequest
	if !s.decode(w, r, negotiateSchema, &req) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.agent.Negotiate(r.Context(), req))
}

func (s *Server) handleCombat(w http.ResponseWriter, r *http.Request) {
	var req model.CombatRequest
	if !s.decode(w, r, combatSchema, &req) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.agent.Combat(r.Context(), req))
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, err1 := strconv.Atoi(vars["gameId"])
	playerID, err2 := strconv.Atoi(vars["playerId"])
	if err := errors.Join(err1, err2); err != nil {
		clientError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.agent.Forget(r.Context(), store.Key{GameID: gameID, PlayerID: playerID}); err != nil {
		slog.ErrorContext(r.Context(), "forget failed", "requestId", RequestID(r.Context()), "error", err)
		clientError(w, r, http.StatusInternalServerError, errors.New("could not drop memory"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"message":  "Welcome to the API",
		"doctrine": s.agent.Strategist().Base().Doctrine().Name,
	})
}

// decode reads the body, validates it against the named schema, and
// unmarshals it into dst. On failure it has already written the response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		clientError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
		return false
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		clientError(w, r, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return false
	}
	if err := s.schemas[schema].Validate(doc); err != nil {
		clientError(w, r, http.StatusBadRequest, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		clientError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "write response", "requestId", RequestID(r.Context()), "error", err)
	}
}

func clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	slog.WarnContext(r.Context(), "request rejected", "requestId", RequestID(r.Context()), "path", r.URL.Path, "status", status, "error", err)
	writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID tags every request with an id, reusing the caller's
// X-Request-ID when present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.DebugContext(r.Context(), "http request",
			"requestId", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
