package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/cabellfineart/gallery-api/internal/telemetry"
)

// Recover turns a panic into a 500 response, logging it and forwarding it
// to reporter.
func Recover(logger *zap.Logger, reporter telemetry.Reporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				logger.Error("panic serving request",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				reporter.Report(r.Context(), err)
				writeMsg(w, http.StatusInternalServerError, "An internal error occurred")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
