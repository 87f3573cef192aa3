// ABOUTME: Local answer server: GET /answer streams header, tokens and [DONE] over SSE
// ABOUTME: Searches a corpus directory, paces tokens with a rate limiter, optional JWT auth

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/2389/bloop-answer/internal/answer"
	"github.com/2389/bloop-answer/internal/auth"
	"github.com/2389/bloop-answer/internal/cache"
)

// ErrEmptyQuery is the in-band error sent for a blank question.
const ErrEmptyQuery = "query must not be empty"

// Config configures a Server.
type Config struct {
	Addr            string
	CorpusRoot      string
	TokensPerSecond float64
	MaxSnippets     int
	// CacheTTL keeps search results for repeated questions; zero disables.
	CacheTTL time.Duration
	// Verifier checks bearer tokens; nil serves everyone.
	Verifier auth.TokenVerifier
	Logger   *slog.Logger
}

// Server answers questions about a directory tree.
type Server struct {
	cfg     Config
	corpus  *Corpus
	results *cache.Cache[[]answer.RawSnippet]
	logger  *slog.Logger
}

// resultCacheSize bounds how many distinct questions are cached.
const resultCacheSize = 256

// New creates a server over cfg.CorpusRoot.
func New(cfg Config) (*Server, error) {
	if cfg.TokensPerSecond <= 0 {
		return nil, errors.New("tokens per second must be positive")
	}
	corpus, err := NewCorpus(cfg.CorpusRoot)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		corpus: corpus,
		logger: logger.With("component", "devserver"),
	}
	if cfg.CacheTTL > 0 {
		s.results = cache.New[[]answer.RawSnippet](cfg.CacheTTL, resultCacheSize)
	}
	return s, nil
}

// Close releases the result cache.
func (s *Server) Close() {
	if s.results != nil {
		s.results.Close()
	}
}

// search answers from the result cache when it can. Questions with the same
// terms, in any order, share an entry.
func (s *Server) search(ctx context.Context, question string) ([]answer.RawSnippet, error) {
	terms := queryTerms(question)
	slices.Sort(terms)
	key := strings.Join(terms, " ")
	if s.results != nil {
		if snippets, ok := s.results.Get(key); ok {
			s.logger.Debug("search cache hit", "terms", key)
			return snippets, nil
		}
	}

	snippets, err := s.corpus.Search(ctx, question, s.cfg.MaxSnippets)
	if err != nil {
		return nil, err
	}
	if s.results != nil {
		s.results.Put(key, snippets)
	}
	return snippets, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /answer", auth.Middleware(s.cfg.Verifier, s.logger)(http.HandlerFunc(s.handleAnswer)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully and
// closes the server. In-flight streams see their request context cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("dev answer server listening",
		"addr", ln.Addr().String(),
		"corpus", s.corpus.root,
		"auth", s.cfg.Verifier != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down dev answer server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAnswer streams one answer:
//
//	data: {"query_id":"...","snippets":[...]}
//	data: {"Ok":"I"}
//	data: {"Ok":" found"}
//	data: [DONE]
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	question := q.Get("q")
	userID := q.Get("user_id")

	if subject, ok := auth.SubjectFrom(r.Context()); ok {
		if userID != "" && userID != subject {
			sendJSONError(w, http.StatusForbidden, "token does not match user_id")
			return
		}
		userID = subject
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := s.logger.With("user_id", userID)

	if strings.TrimSpace(question) == "" {
		_ = answer.WriteError(w, ErrEmptyQuery)
		flusher.Flush()
		logger.Info("rejected empty query")
		return
	}

	ctx := r.Context()
	snippets, err := s.search(ctx, question)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("search failed", "error", err)
			_ = answer.WriteError(w, "search failed")
			flusher.Flush()
		}
		return
	}

	queryID := uuid.New().String()
	logger = logger.With("query_id", queryID)
	if err := answer.WriteHeader(w, queryID, snippets); err != nil {
		logger.Warn("failed to write header", "error", err)
		return
	}
	flusher.Flush()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.TokensPerSecond), 1)
	fragments := splitFragments(composeAnswer(question, s.corpus.Repo(), snippets))
	for _, f := range fragments {
		if err := limiter.Wait(ctx); err != nil {
			logger.Debug("client went away", "error", err)
			return
		}
		if err := answer.WriteToken(w, f); err != nil {
			logger.Debug("failed to write token", "error", err)
			return
		}
		flusher.Flush()
	}

	_ = answer.WriteDone(w)
	flusher.Flush()
	logger.Info("answered", "snippets", len(snippets), "fragments", len(fragments))
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
