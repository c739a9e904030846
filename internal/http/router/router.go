package router

import (
	"net/http"

	ctrl "github.com/dropDatabas3/idbridge/internal/http/controllers/resolve"
	mw "github.com/dropDatabas3/idbridge/internal/http/middlewares"
	"github.com/dropDatabas3/idbridge/internal/rate"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Resolve *ctrl.Controller
	Healthz http.HandlerFunc // opcional; default responde 200
	Limiter rate.Limiter     // opcional; nil desactiva el rate limit
}

// New arma el router del servicio.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())

	healthz := deps.Healthz
	if healthz == nil {
		healthz = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}
	}

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	// El límite aplica solo al endpoint de resolución; healthz y metrics
	// quedan fuera.
	r.Group(func(g chi.Router) {
		g.Use(mw.WithRateLimit(deps.Limiter))
		g.Post("/v1/resolve/{provider}", deps.Resolve.Resolve)
	})

	return r
}
