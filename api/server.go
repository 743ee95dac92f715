package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/engine/history"
)

type server struct {
	cfg     Config
	logger  *slog.Logger
	client  *nlq.Client
	history history.Lister
}

// NewServer creates the HTTP front end; history may be nil
func NewServer(cfg Config, logger *slog.Logger, client *nlq.Client, rec history.Recorder) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("api server requires a client")
	}

	s := &server{
		cfg:    cfg,
		logger: logger,
		client: client,
	}
	if lister, ok := rec.(history.Lister); ok {
		s.history = lister
	}
	return s, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("POST /api/query", s.queryHandler)
	mux.HandleFunc("GET /api/history", s.historyHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.Background()); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
