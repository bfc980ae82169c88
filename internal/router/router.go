package router

import (
	"net/http"

	_ "petstore/docs"
	"petstore/internal/domain/health"
	"petstore/internal/domain/pets"
	"petstore/internal/middleware"
	"petstore/internal/platform/logger"
	"petstore/internal/platform/respond"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const APIPrefix = "/api/v1"

type Options struct {
	Pets   *pets.Service
	Health *health.Service

	// Opcional: si es nil no se loguea.
	Logger logger.Logger

	// Opcional: si es nil se usa un registry propio (evita choques entre tests).
	Registry *prometheus.Registry
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics := middleware.NewMetrics()
	reg.MustRegister(metrics)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(metrics.Handler)
	r.Use(middleware.Recover(log))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route(APIPrefix, func(api chi.Router) {
		pets.RegisterRoutes(api, opts.Pets, log)
		health.RegisterRoutes(api, opts.Health)
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return r
}
