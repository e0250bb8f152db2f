package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gw-transfer-service/pkg/response"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.ReadHeaderTimeout <= 0 {
		o.ReadHeaderTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 120 * time.Second
	}
	return o
}

type Server struct {
	httpServer *http.Server
	Router     *chi.Mux
	log        *slog.Logger
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status   string `json:"status" example:"ok"`
	Pipeline string `json:"pipeline" example:"running"`
}

func NewServer(opts Options, log *slog.Logger) *Server {
	opts = opts.withDefaults()
	router := chi.NewRouter()

	serv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           router,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}
	return &Server{
		httpServer: serv,
		Router:     router,
		log:        log,
	}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on an already bound listener.
func (s *Server) Serve(listener net.Listener) error {
	return s.httpServer.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RegisterSwagger serves the UI with a relative doc URL so it works behind any host or port.
func (s *Server) RegisterSwagger() {
	s.Router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

// RegisterHealth answers GET /healthz with 200 while running reports true and 503 otherwise.
func (s *Server) RegisterHealth(running func() bool) {
	s.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if running() {
			response.WriteJSONSuccess(w, s.log, http.StatusOK, HealthStatus{Status: "ok", Pipeline: "running"})
			return
		}
		response.WriteJSONSuccess(w, s.log, http.StatusServiceUnavailable, HealthStatus{Status: "unavailable", Pipeline: "stopped"})
	})
}
