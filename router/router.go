package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"summarymaker/config"
	docHandler "summarymaker/internal/document"
	"summarymaker/internal/document/repository"
	"summarymaker/internal/document/service"
	"summarymaker/middleware"
	"summarymaker/pkg/apperr"
	"summarymaker/pkg/metrics"
	"summarymaker/pkg/response"
	"summarymaker/socket"
)

// Setup wires the repositories, service and handlers onto a mux. templates may
// wrap the template repository (for caching); nil uses the database directly.
func Setup(cfg config.Config, db *sql.DB, hub *socket.Hub, templates service.TemplateStore) http.Handler {
	if templates == nil {
		templates = repository.NewTemplateRepository(db)
	}
	docRepo := repository.NewDocumentRepository(db)
	docService := service.NewDocumentService(docRepo, templates, hub, cfg.ListMaxLimit)
	docs := docHandler.NewDocumentHandler(docService, hub)
	auth := middleware.NewAuth(cfg.JWTSecret).Middleware

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// No request timeout here: the connection outlives the request.
	mux.Handle("GET /summary/users/{userId}/documents/{documentId}/events", auth(http.HandlerFunc(docs.Events)))

	api := func(h http.HandlerFunc) http.Handler {
		return auth(withTimeout(cfg.RequestTimeout, h))
	}
	mux.Handle("GET /summary/users/{userId}/documents", api(docs.ListDocuments))
	mux.Handle("GET /summary/users/{userId}/documents/{documentId}", api(docs.FetchDocument))
	mux.Handle("PATCH /summary/users/{userId}/documents/{documentId}", api(docs.UpdateDocument))
	mux.Handle("GET /summary/documents/{documentId}/blocks/{blockId}/content", api(docs.FetchBlockContent))

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, apperr.RouteNotFound())
	})

	var h http.Handler = middleware.Instrument(mux)
	h = middleware.Recover(h)
	h = middleware.RequestID(h)
	return middleware.CORSMiddleware(cfg.CORSAllow)(h)
}

func withTimeout(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
