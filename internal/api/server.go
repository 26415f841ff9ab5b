package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	gorilla "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Sameer-159/Air-Quality/internal/metrics"
)

// NewRouter wires all endpoints. CORS is wide open because the dashboard is
// served from arbitrary origins during demos; recovery keeps a panicking
// handler from killing the process.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/assess", h.Assess).Methods(http.MethodPost)
	r.HandleFunc("/enhanced_assess", h.EnhancedAssess).Methods(http.MethodPost)
	r.HandleFunc("/compare", h.Compare).Methods(http.MethodPost)
	r.HandleFunc("/advanced_compare", h.AdvancedCompare).Methods(http.MethodPost)
	r.HandleFunc("/membership_functions", h.MembershipFunctions).Methods(http.MethodGet)
	r.HandleFunc("/dataset_stats", h.DatasetStats).Methods(http.MethodGet)
	r.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	r.HandleFunc("/settings", h.PutSettings).Methods(http.MethodPut)
	r.HandleFunc("/settings", h.DeleteSettings).Methods(http.MethodDelete)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.Use(observeMiddleware)

	cors := gorilla.CORS(
		gorilla.AllowedOrigins([]string{"*"}),
		gorilla.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		gorilla.AllowedHeaders([]string{"Content-Type"}),
	)
	return gorilla.RecoveryHandler()(cors(r))
}

// observeMiddleware records request duration per route template.
func observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

func NewServer(addr string, log *slog.Logger, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
