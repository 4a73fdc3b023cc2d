// Package server exposes the assistant over HTTP: REST chat, a
// WebSocket chat channel, essay correction and session history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/otto-edu/otto/internal/agent"
	"github.com/otto-edu/otto/internal/corrector"
	"github.com/otto-edu/otto/internal/memory"
	"github.com/otto-edu/otto/internal/prompt"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Responder answers one chat message within a session.
type Responder interface {
	Respond(ctx context.Context, sessionID, query string) (*agent.Result, error)
}

// EssayCorrector grades an essay against a rubric.
type EssayCorrector interface {
	Correct(ctx context.Context, essay string, criteria []corrector.Criterion) (*corrector.Feedback, error)
}

// Server is the otto HTTP server.
type Server struct {
	cfg        Config
	responder  Responder
	corrector  EssayCorrector
	history    memory.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all dependencies.
func New(cfg Config, responder Responder, essays EssayCorrector, history memory.Store) *Server {
	s := &Server{
		cfg:       cfg,
		responder: responder,
		corrector: essays,
		history:   history,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/chat/ws", s.handleWebSocket)
		r.Post("/essay", s.handleEssay)
		r.Get("/sessions/{id}/turns", s.handleSessionTurns)
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Passages  int    `json:"passages"`
	Warning   string `json:"warning,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	res, err := s.responder.Respond(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, chatStatus(err), err.Error())
		return
	}

	resp := chatResponse{
		SessionID: req.SessionID,
		Answer:    res.Answer,
		Passages:  res.Passages,
	}
	if res.Warning != nil {
		resp.Warning = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type essayRequest struct {
	EssayText string                `json:"essay_text"`
	Rubric    []corrector.Criterion `json:"rubric,omitempty"`
}

func (s *Server) handleEssay(w http.ResponseWriter, r *http.Request) {
	var req essayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fb, err := s.corrector.Correct(r.Context(), req.EssayText, req.Rubric)
	if err != nil {
		writeError(w, essayStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

func (s *Server) handleSessionTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	turns, err := s.history.GetRecent(r.Context(), sessionID, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turns == nil {
		turns = []memory.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func chatStatus(err error) int {
	switch {
	case errors.Is(err, agent.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, prompt.ErrPromptTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func essayStatus(err error) int {
	var mfe *corrector.MalformedFeedbackError
	switch {
	case errors.Is(err, corrector.ErrEmptyEssay):
		return http.StatusBadRequest
	case errors.Is(err, prompt.ErrPromptTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &mfe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("otto server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
