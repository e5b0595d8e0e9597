package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/cabellfineart/gallery-api/internal/schema"
	"github.com/cabellfineart/gallery-api/internal/telemetry"
)

const (
	// maxJSONBody caps catalog request bodies.
	maxJSONBody = 1 << 20

	msgInternal    = "An internal error occurred"
	msgInvalidJSON = "Request body is not valid JSON"
)

// Failures logs and reports unexpected errors before answering with 500.
type Failures struct {
	Logger   *zap.Logger
	Reporter telemetry.Reporter
}

// NewFailures returns a Failures that logs to logger and forwards to reporter.
// A nil reporter discards reports.
func NewFailures(logger *zap.Logger, reporter telemetry.Reporter) *Failures {
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Failures{Logger: logger, Reporter: reporter}
}

// Internal answers with a generic 500 body; err is never exposed to the client.
func (f *Failures) Internal(w http.ResponseWriter, r *http.Request, err error) {
	if f != nil {
		f.Logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		f.Reporter.Report(r.Context(), err)
	}
	writeMsg(w, http.StatusInternalServerError, msgInternal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeEmpty answers with an empty JSON object.
func writeEmpty(w http.ResponseWriter, status int) {
	writeJSON(w, status, struct{}{})
}

// decodeBody decodes a JSON request body into untyped values, keeping
// numbers as json.Number so integers and decimals can be told apart.
func decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// validationFailed writes schema errors as a 400 field map. It reports
// whether err was a validation error.
func validationFailed(w http.ResponseWriter, err error) bool {
	var errs schema.Errors
	if !errors.As(err, &errs) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errs)
	return true
}
