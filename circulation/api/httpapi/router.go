package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfwise/circulation/circulation/auth"
	"github.com/shelfwise/circulation/circulation/shared/shell"
)

// NewRouter wires the circulation routes. A nil logger disables request logging.
func NewRouter(handler *Handler, resolver auth.ActorResolver, logger shell.ContextualLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(correlationMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(resolver))

		r.Route("/fines", func(r chi.Router) {
			r.Post("/admin/issue", handler.adminIssue)
			r.Post("/borrow", handler.borrow)
			r.Post("/return", handler.returnLoan)
			r.Post("/pay", handler.payFine)
			r.Post("/sweep", handler.sweep)
			r.Get("/loans", handler.listLoans)
			r.Get("/user/{userId}/activeCount", handler.activeCount)
			r.Get("/user/{userId}/outstanding", handler.outstanding)
		})

		r.Get("/books/{bookId}/availability", handler.availability)
		r.Put("/books/{bookId}/stock", handler.registerStock)
	})

	return r
}
