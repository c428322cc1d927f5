package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation/circulation/auth"
	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
)

// CorrelationIDHeader carries the correlation id of a request; it ends up in the metadata of every stored event.
const CorrelationIDHeader = "X-Correlation-Id"

type actorKey struct{}

func actorFrom(ctx context.Context) core.Actor {
	actor, _ := ctx.Value(actorKey{}).(core.Actor)
	return actor
}

func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID, err := uuid.Parse(r.Header.Get(CorrelationIDHeader))
		if err != nil {
			correlationID = uuid.New()
		}

		w.Header().Set(CorrelationIDHeader, correlationID.String())
		next.ServeHTTP(w, r.WithContext(shell.WithCorrelationID(r.Context(), correlationID)))
	})
}

func authMiddleware(resolver auth.ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, core.ErrUnauthenticated)
				return
			}

			actor, err := resolver.ResolveActor(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		})
	}
}

// loggingMiddleware logs one line per request. Handlers that never call WriteHeader answered 200.
func loggingMiddleware(logger shell.ContextualLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.InfoContext(
				r.Context(),
				"http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				shell.LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
			)
		})
	}
}
