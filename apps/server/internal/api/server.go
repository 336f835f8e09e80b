package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"blackjack-lite/apps/server/internal/lobby"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 16

// Server is the HTTP front of the lobby.
type Server struct {
	lobby          *lobby.Lobby
	allowedOrigins []string
	ws             http.HandlerFunc
	log            logrus.FieldLogger
}

type Option func(*Server)

// WithWebSocket mounts h at /ws.
func WithWebSocket(h http.HandlerFunc) Option {
	return func(s *Server) { s.ws = h }
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

func NewServer(lby *lobby.Lobby, log logrus.FieldLogger, opts ...Option) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		lobby:          lby,
		allowedOrigins: []string{"*"},
		log:            log.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/systems", s.handleSystems)
	if s.ws != nil {
		r.Get("/ws", s.ws)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/deal", s.handleDeal)
			r.Post("/correct", s.handleCorrect)
			r.Post("/undo", s.handleUndo)
			r.Post("/reset", s.handleReset)
			r.Post("/quick", s.handleQuick)
			r.Post("/rules", s.handleRules)
			r.Post("/recommend", s.handleRecommend)
		})
	})
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("encode response")
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps err to a status. Defects are logged, caller mistakes are
// not.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(lobby.Classify(err))
	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": reqID,
			"path":       r.URL.Path,
		}).Error("request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: reqID})
}

func statusFor(k lobby.ErrorKind) int {
	switch k {
	case lobby.KindInvalid:
		return http.StatusBadRequest
	case lobby.KindNotFound:
		return http.StatusNotFound
	case lobby.KindLimit:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads an optional JSON body into v. An empty body leaves v alone.
func decode(r *http.Request, v any) error {
	return decodeJSON(io.LimitReader(r.Body, maxBodyBytes), v)
}

func decodeJSON(rd io.Reader, v any) error {
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", lobby.ErrBadRequest, err)
	}
	return nil
}
