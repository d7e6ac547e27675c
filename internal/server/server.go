// Package server exposes one storage backend over HTTP.
//
//	GET  /objects/{key...}  object bytes, 404 when absent
//	PUT  /objects/{key...}  store the request body, 204 on success
//	GET  /healthz           liveness
//
// The GET route is what the read-only http backend kind expects, so another
// blobmover can use base_url http://host:port/objects as a source.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/logger"
	"github.com/koustreak/blobmover/internal/storage"
)

// Config holds server settings.
type Config struct {
	ListenAddr string
	// ReadOnly rejects PUT with 405 without calling the backend.
	ReadOnly bool
	// MaxObjectBytes caps PUT bodies. 0 means no limit.
	MaxObjectBytes int64

	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	GracefulShutdownDuration time.Duration
}

// DefaultConfig returns a server listening on :8080.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:               ":8080",
		ReadTimeout:              30 * time.Second,
		WriteTimeout:             5 * time.Minute,
		GracefulShutdownDuration: 10 * time.Second,
	}
}

// Server serves a storage.Backend.
type Server struct {
	cfg     *Config
	backend storage.Backend
	log     *logger.Logger
	srv     *http.Server
}

// New returns a Server for backend. A nil cfg uses DefaultConfig.
func New(cfg *Config, backend storage.Backend, log *logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg:     cfg,
		backend: backend,
		log:     log.ForComponent("server"),
	}
	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(s.httpLogger)

	mux.Get("/healthz", s.handleHealth)
	mux.Get("/objects/*", s.handleGet)
	mux.Put("/objects/*", s.handlePut)
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.With().Str("addr", s.cfg.ListenAddr).Str("backend_id", storage.Describe(s.backend)).
			Logger().Info("starting HTTP server")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errs.Wrap(errs.ErrKindTransport, "HTTP server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindTransport, "graceful shutdown failed", err)
	}
	s.log.Info("HTTP server gracefully stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := objectKey(r)
	if err != nil {
		s.writeError(w, r, chi.URLParam(r, "*"), err)
		return
	}
	data, err := s.backend.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, r, key, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key, err := objectKey(r)
	if err != nil {
		s.writeError(w, r, chi.URLParam(r, "*"), err)
		return
	}
	if s.cfg.ReadOnly {
		s.writeError(w, r, key, errs.New(errs.ErrKindUnsupported, "server is read-only"))
		return
	}

	body := io.Reader(r.Body)
	if s.cfg.MaxObjectBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxObjectBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "object too large", Kind: errs.ErrKindInvalidInput.String()})
			return
		}
		s.writeError(w, r, key, errs.Wrap(errs.ErrKindInvalidInput, "failed to read request body", err))
		return
	}

	if err := s.backend.Put(r.Context(), key, data); err != nil {
		s.writeError(w, r, key, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// objectKey returns the decoded object key. chi matches on RawPath when the
// request carries one, leaving the wildcard escaped.
func objectKey(r *http.Request) (string, error) {
	key := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return key, nil
	}
	decoded, err := url.PathUnescape(key)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "invalid object key escape", err)
	}
	return decoded, nil
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, key string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ForKey(key).With().Str("method", r.Method).Err(err).Logger().Error("backend request failed")
	}
	if status == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", http.MethodGet)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: errs.KindOf(err).String()})
}

// StatusFor maps an error kind to the response status.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindUnsupported:
		return http.StatusMethodNotAllowed
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// httpLogger attaches a request-scoped logger to the context and logs one
// line per request.
func (s *Server) httpLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		r = r.WithContext(reqLog.WithContext(r.Context()))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		reqLog.HTTPEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
