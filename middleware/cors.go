package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware allows the configured origins with the methods browsers of
// the summary UI send.
func CORSMiddleware(allowed []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodPost,
			http.MethodGet,
			http.MethodOptions,
			http.MethodHead,
			http.MethodPut,
			http.MethodDelete,
			http.MethodPatch,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"ETag", RequestIDHeader},
	})
	return c.Handler
}
