// Package httpapi hosts flows over HTTP: definitions live in a FlowStore,
// executions are uuid-keyed server-side sessions.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/internal/runtime"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

// Server exposes flow execution over a chi router.
type Server struct {
	store      ports.FlowStore
	logger     *slog.Logger
	engineOpts []fable.Option

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu     sync.Mutex
	flowID string
	engine *fable.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithEngineOptions forwards options (hooks, history limits) to every
// engine the server creates for a session.
func WithEngineOptions(opts ...fable.Option) Option {
	return func(s *Server) { s.engineOpts = append(s.engineOpts, opts...) }
}

// NewServer creates a Server over the given flow store.
func NewServer(store ports.FlowStore, opts ...Option) *Server {
	s := &Server{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.handleListFlows)
		r.Post("/", s.handleSaveFlow)
		r.Get("/{flowID}", s.handleGetFlow)
		r.Delete("/{flowID}", s.handleDeleteFlow)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Post("/{sessionID}/next", s.handleNext)
		r.Post("/{sessionID}/back", s.handleBack)
		r.Post("/{sessionID}/reset", s.handleReset)
		r.Delete("/{sessionID}", s.handleDeleteSession)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "fable-http",
		"version": fable.Version,
	})
}

func (s *Server) handleSaveFlow(w http.ResponseWriter, r *http.Request) {
	var def domain.FlowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.logger.Warn("save flow: invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if def.ID == "" {
		http.Error(w, "Flow id is required", http.StatusBadRequest)
		return
	}
	if err := s.store.Save(r.Context(), &def); err != nil {
		s.logger.Error("save flow failed", "err", err, "flow", def.ID)
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": def.ID})
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list flows failed", "err", err)
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	if flows == nil {
		flows = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"flows": flows})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	def, err := s.store.Load(r.Context(), flowID)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		s.logger.Error("load flow failed", "err", err, "flow", flowID)
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	flowID := chi.URLParam(r, "flowID")
	if err := s.store.Delete(r.Context(), flowID); err != nil {
		s.logger.Error("delete flow failed", "err", err, "flow", flowID)
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createSessionRequest starts a new execution of a stored flow.
type createSessionRequest struct {
	FlowID string `json:"flowId"`
}

// sessionView is the render payload shared by every session endpoint.
type sessionView struct {
	SessionID string          `json:"sessionId"`
	FlowID    string          `json:"flowId"`
	Node      *domain.Node    `json:"node"`
	Choices   []runtime.Choice `json:"choices"`
	State     map[string]any  `json:"state"`
	Completed bool            `json:"completed"`
	CanGoBack bool            `json:"canGoBack"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("create session: invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	def, err := s.store.Load(r.Context(), body.FlowID)
	if err != nil {
		if errors.Is(err, domain.ErrFlowNotFound) {
			http.Error(w, "Flow not found", http.StatusNotFound)
			return
		}
		s.logger.Error("load flow failed", "err", err, "flow", body.FlowID)
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}

	engineOpts := append([]fable.Option{fable.WithLogger(s.logger)}, s.engineOpts...)
	engine, err := fable.New(def, engineOpts...)
	if err != nil {
		http.Error(w, fmt.Sprintf("Engine error: %v", err), http.StatusUnprocessableEntity)
		return
	}
	res, err := engine.Start()
	if err != nil {
		http.Error(w, fmt.Sprintf("Start error: %v", err), http.StatusUnprocessableEntity)
		return
	}

	sessionID := uuid.NewString()
	sess := &session{flowID: def.ID, engine: engine}
	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", sessionID, "flow", def.ID)
	s.writeJSON(w, http.StatusCreated, s.view(sessionID, sess, res))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.view(sessionID, sess, nil))
}

// nextRequest advances a session. An empty choice id asks the engine to
// auto-resolve.
type nextRequest struct {
	ChoiceID string `json:"choiceId"`
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sessionID, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var body nextRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.Warn("next: invalid request body", "err", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	res, err := sess.engine.Next(body.ChoiceID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sessionID, sess, res))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sessionID, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	res, err := sess.engine.GoBack()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sessionID, sess, res))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.engine.Reset(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	res, err := sess.engine.Start()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(sessionID, sess, res))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return "", nil, false
	}
	return sessionID, sess, true
}

// view builds the render payload. A nil result re-reads the engine, which
// callers must do under the session lock.
func (s *Server) view(sessionID string, sess *session, res *runtime.Result) sessionView {
	v := sessionView{
		SessionID: sessionID,
		FlowID:    sess.flowID,
		State:     sess.engine.GetState(),
		CanGoBack: sess.engine.CanGoBack(),
	}
	if res != nil {
		v.Node = res.Node
		v.Choices = res.Choices
		v.Completed = res.Completed
	} else {
		v.Node = sess.engine.GetCurrentNode()
		v.Choices = sess.engine.GetAvailableChoices()
		v.Completed = sess.engine.IsComplete()
	}
	if v.Choices == nil {
		v.Choices = []runtime.Choice{}
	}
	return v
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidChoice), errors.Is(err, domain.ErrHistoryUnavailable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNoTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNotStarted), errors.Is(err, domain.ErrAlreadyStarted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error("engine call failed", "err", err)
		http.Error(w, fmt.Sprintf("Engine error: %v", err), http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
