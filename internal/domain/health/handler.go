package health

import (
	"net/http"

	"petstore/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/health", healthHandler(svc))
	r.Get("/health/details", detailsHandler(svc))
}

// healthHandler godoc
// @Summary     Service health
// @Tags        health
// @Produce     json
// @Success     200 {object} Report
// @Failure     503 {object} Report
// @Router      /health [get]
func healthHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := svc.Check(r.Context())
		respond.JSON(w, statusCode(rep.Status), rep)
	}
}

// detailsHandler godoc
// @Summary     Service health with platform details
// @Tags        health
// @Produce     json
// @Success     200 {object} DetailedReport
// @Failure     503 {object} DetailedReport
// @Router      /health/details [get]
func detailsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := svc.Details(r.Context())
		respond.JSON(w, statusCode(rep.Status), rep)
	}
}

func statusCode(status string) int {
	if status == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}
