package apihttp

import (
	"context"
	"net/http"

	"github.com/example/tokenprog/internal/auth"
	"github.com/example/tokenprog/internal/handlers"
	"github.com/example/tokenprog/internal/rate"
	"github.com/example/tokenprog/pkg/jsonutil"
	"github.com/go-chi/chi/v5"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Routes groups the handlers mounted under /api. Tx may be nil when the
// cluster does not keep receipts.
type Routes struct {
	Program  *handlers.ProgramHandler
	Accounts *handlers.AccountsHandler
	Tx       *handlers.TxHandler
	Admin    *handlers.AdminHandler
}

// NewRouter wires routes and middlewares. /healthz pings store and every
// extra dependency in deps.
func NewRouter(rt Routes, lm *rate.LimiterMap, store auth.APIKeyStore, deps ...Pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS)
	r.Use(RateLimit(lm))

	pingers := make([]Pinger, 0, len(deps)+1)
	if store != nil {
		pingers = append(pingers, store)
	}
	for _, d := range deps {
		if d != nil {
			pingers = append(pingers, d)
		}
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range pingers {
			if err := p.Ping(r.Context()); err != nil {
				jsonutil.JSON(w, http.StatusInternalServerError, map[string]string{"status": "unhealthy"})
				return
			}
		}
		jsonutil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if rt.Admin != nil {
		r.Post("/admin/keys", rt.Admin.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		if store != nil {
			api.Use(Auth(store))
		}
		if rt.Program != nil {
			api.Post("/initialize", rt.Program.Initialize)
			api.Post("/trading", rt.Program.SetTrading)
			api.Post("/fees", rt.Program.UpdateFees)
			api.Get("/config/{mint}", rt.Program.GetConfig)
		}
		if rt.Accounts != nil {
			api.Post("/accounts", rt.Accounts.ServeHTTP)
		}
		if rt.Tx != nil {
			api.Get("/tx/{signature}", rt.Tx.ServeHTTP)
		}
	})

	return r
}
