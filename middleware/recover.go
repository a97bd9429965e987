package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"summarymaker/pkg/apperr"
	"summarymaker/pkg/logger"
	"summarymaker/pkg/response"

	"go.uber.org/zap"
)

// Recover turns a panic into a generic 500 envelope and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Log.Error("Panic while serving request",
				zap.String("request_id", RequestIDFrom(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			response.Error(w, apperr.Internal(fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}
