// Package api is the HTTP boundary of the query service.
//
// Routes:
//
//	POST /query      filter request -> {table, count, rows}
//	POST /pii/clean  {text} -> {masked_text, findings}
//	POST /chat       {message, session_id?} -> {reply, session_id}
//	GET  /tables     registered tables
//	GET  /healthz    liveness
//
// Errors are plain text. Validation failures are 400, execution failures
// 500.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/roach88/chartquery/internal/engine"
	"github.com/roach88/chartquery/internal/pii"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// ChatResponder answers one chat message within a conversation.
// *agent.Sessions implements it.
type ChatResponder interface {
	Respond(ctx context.Context, sessionID, message string) (string, error)
}

// Options wires the router's collaborators.
type Options struct {
	Engine   *engine.Engine
	Redactor pii.Redactor  // defaults to pii.Passthrough
	Chat     ChatResponder // nil disables /chat (503)
	Logger   *slog.Logger

	RateLimit      RateLimitConfig
	AllowedOrigins []string
	MaxBodyBytes   int64

	// NewRequestID overrides uuid.NewString, for tests.
	NewRequestID func() string
}

// Server holds the handlers' dependencies.
type Server struct {
	engine   *engine.Engine
	redactor pii.Redactor
	chat     ChatResponder
	logger   *slog.Logger
	maxBody  int64
}

// NewRouter builds the chi router. ctx bounds background work started by
// middleware such as the rate limiter's sweeper.
func NewRouter(ctx context.Context, opts Options) http.Handler {
	s := &Server{
		engine:   opts.Engine,
		redactor: opts.Redactor,
		chat:     opts.Chat,
		logger:   opts.Logger,
		maxBody:  opts.MaxBodyBytes,
	}
	if s.redactor == nil {
		s.redactor = pii.Passthrough{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(RequestID(opts.NewRequestID))
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/tables", s.handleTables)

	r.Group(func(r chi.Router) {
		if opts.RateLimit.RequestsPerSecond > 0 && opts.RateLimit.Burst > 0 {
			r.Use(RateLimiter(ctx, opts.RateLimit))
		}
		r.Post("/query", s.handleQuery)
		r.Post("/pii/clean", s.handlePIIClean)
		r.Post("/chat", s.handleChat)
	})

	return r
}

// accessLog logs one line per request at info level.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// tableInfo is one entry of GET /tables.
type tableInfo struct {
	Name        string   `json:"name"`
	Columns     []string `json:"columns"`
	TimeColumn  *string  `json:"time_column"`
	OrderColumn string   `json:"order_column"`
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	tables := s.engine.Registry().Tables()
	out := make([]tableInfo, 0, len(tables))
	for _, t := range tables {
		info := tableInfo{Name: t.Name, Columns: t.Columns, OrderColumn: t.OrderColumn()}
		if t.HasTimeColumn() {
			tc := t.TimeColumn
			info.TimeColumn = &tc
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": out})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	body, err := s.readBody(w, r)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	result, err := s.engine.Query(r.Context(), body)
	if err != nil {
		status := httpStatusFromQueryError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("query failed", "request_id", reqID, "error", err)
		} else {
			s.logger.Debug("query rejected", "request_id", reqID, "error", err)
		}
		writeText(w, status, engine.MessageOf(err))
		return
	}

	s.logger.Debug("query served", "request_id", reqID, "table", result.Table, "rows", result.Count)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePIIClean(w http.ResponseWriter, r *http.Request) {
	fields, ok := s.decodeObject(w, r)
	if !ok {
		return
	}
	text, _ := fields["text"].(string)
	if text == "" {
		writeText(w, http.StatusBadRequest, msgMissingText)
		return
	}

	result, err := s.redactor.Scrub(r.Context(), text)
	if err != nil {
		s.logger.Error("pii scrub failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeText(w, http.StatusInternalServerError, "PII scrub failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeText(w, http.StatusServiceUnavailable, msgChatUnavailable)
		return
	}

	fields, ok := s.decodeObject(w, r)
	if !ok {
		return
	}
	message, _ := fields["message"].(string)
	if message == "" {
		writeText(w, http.StatusBadRequest, msgMissingMessage)
		return
	}
	sessionID, _ := fields["session_id"].(string)
	if sessionID == "" {
		sessionID = RequestIDFromContext(r.Context())
	}

	reply, err := s.chat.Respond(r.Context(), sessionID, message)
	if err != nil {
		s.logger.Error("chat failed", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeText(w, http.StatusBadGateway, "Chat failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply, "session_id": sessionID})
}

// readBody reads the whole request body up to the configured cap.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
}

// decodeObject reads a JSON object body, answering 400 itself on failure.
func (s *Server) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		writeText(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	return fields, true
}

// writeJSON writes v as JSON without HTML escaping.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		writeText(w, http.StatusInternalServerError, "encode response: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
