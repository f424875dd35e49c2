package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// maxBodyBytes caps request bodies; every endpoint takes a small JSON object.
const maxBodyBytes = 64 << 10

// codeStatus is the single mapping from taxonomy codes to HTTP statuses.
// A *domain.Error with a non-zero Status overrides it.
var codeStatus = map[domain.Code]int{
	domain.CodeMissingFields:    http.StatusBadRequest,
	domain.CodeInvalidBody:      http.StatusBadRequest,
	domain.CodeInvalidDocument:  http.StatusBadRequest,
	domain.CodeWeakPassword:     http.StatusBadRequest,
	domain.CodeMissingApp:       http.StatusBadRequest,
	domain.CodeUnknownApp:       http.StatusBadRequest,
	domain.CodeNoToken:          http.StatusUnauthorized,
	domain.CodeInvalidSession:   http.StatusUnauthorized,
	domain.CodeMethodNotAllowed: http.StatusMethodNotAllowed,

	domain.CodeCPFExists:           http.StatusConflict,
	domain.CodeEmailExists:         http.StatusConflict,
	domain.CodeProfileUpdateFailed: http.StatusConflict,
	domain.CodeRateLimited:         http.StatusTooManyRequests,

	domain.CodeMissingEnv:          http.StatusInternalServerError,
	domain.CodeMissingSupabaseEnv:  http.StatusInternalServerError,
	domain.CodeMissingSheetsEnv:    http.StatusInternalServerError,
	domain.CodeSignupMissingUserID: http.StatusInternalServerError,
	domain.CodeServerError:         http.StatusInternalServerError,

	domain.CodeSheetsFailed: http.StatusBadGateway,
	domain.CodeAuthError:    http.StatusBadGateway,
	domain.CodeN8NError:     http.StatusBadGateway,
}

// StatusFor returns the HTTP status for e.
func StatusFor(e *domain.Error) int {
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := codeStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {ok:false, error, detail?, ...fields}.
func writeError(w http.ResponseWriter, e *domain.Error) {
	body := make(map[string]any, len(e.Fields)+3)
	for k, v := range e.Fields {
		body[k] = v
	}
	body["ok"] = false
	body["error"] = e.Code
	if e.Detail != "" {
		body["detail"] = domain.Truncate(e.Detail, domain.MaxDetailLen)
	}
	writeJSON(w, StatusFor(e), body)
}

// handleServiceError maps service errors to HTTP responses. Anything that
// is not a *domain.Error is a bug or an unclassified failure.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, domain.NewError(domain.CodeServerError, ""))
		return
	}

	status := StatusFor(de)
	switch {
	case status >= 500:
		logger.Error("request failed",
			zap.String("code", string(de.Code)),
			zap.Int("status", status),
			zap.Error(err),
		)
	case status == http.StatusConflict, status == http.StatusTooManyRequests:
		logger.Info("request rejected", zap.String("code", string(de.Code)))
	default:
		logger.Debug("request rejected", zap.String("code", string(de.Code)))
	}
	writeError(w, de)
}

// decodeJSON reads a JSON object from the request body. strict rejects
// unknown fields. Any failure is an invalid_body error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, strict bool) *domain.Error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewError(domain.CodeInvalidBody, "empty body")
		}
		return domain.NewError(domain.CodeInvalidBody, err.Error())
	}
	if dec.More() {
		return domain.NewError(domain.CodeInvalidBody, "trailing data after JSON object")
	}
	return nil
}

// missingEnv builds the configuration error for an unready feature.
func missingEnv(code domain.Code, missing []string) *domain.Error {
	return domain.NewError(code, fmt.Sprintf("missing configuration: %d variable(s)", len(missing))).
		With("missing", missing)
}
