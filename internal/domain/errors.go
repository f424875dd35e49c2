package domain

import (
	"fmt"
	"unicode/utf8"
)

// Code is the short machine-readable error string returned to clients in
// the "error" field. The set is closed: every failure maps onto one of these.
type Code string

const (
	CodeMethodNotAllowed Code = "method_not_allowed"
	CodeMissingFields    Code = "missing_fields"
	CodeInvalidBody      Code = "invalid_body"
	CodeServerError      Code = "server_error"

	// Configuration
	CodeMissingEnv         Code = "missing_env"
	CodeMissingSupabaseEnv Code = "missing_supabase_env"
	CodeMissingSheetsEnv   Code = "missing_sheets_env"

	// Registration
	CodeInvalidDocument     Code = "invalid_document"
	CodeCPFExists           Code = "cpf_exists"
	CodeEmailExists         Code = "email_exists"
	CodeWeakPassword        Code = "weak_password"
	CodeRateLimited         Code = "rate_limited"
	CodeAuthError           Code = "auth_error"
	CodeSignupMissingUserID Code = "signup_missing_user_id"
	CodeProfileUpdateFailed Code = "profile_update_failed"
	CodeSheetsFailed        Code = "sheets_failed"

	// Agent proxy
	CodeNoToken        Code = "no_token"
	CodeInvalidSession Code = "invalid_session"
	CodeN8NError       Code = "n8n_error"

	// Counter
	CodeMissingApp Code = "missing_app"
	CodeUnknownApp Code = "unknown_app"
)

// MaxDetailLen bounds any upstream text echoed back to a client.
const MaxDetailLen = 500

// Error is a failure already classified into the client taxonomy.
// Fields carries extra keys merged into the JSON error body. Status, when
// non-zero, overrides the HTTP status the handler would pick for Code.
type Error struct {
	Code   Code
	Detail string
	Status int
	Fields map[string]any
	Err    error
}

// NewError builds a taxonomy error with an optional detail.
func NewError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: Truncate(detail, MaxDetailLen)}
}

// WrapError classifies err under code, keeping it for errors.Is/As.
func WrapError(code Code, err error) *Error {
	e := &Error{Code: code, Err: err}
	if err != nil {
		e.Detail = Truncate(err.Error(), MaxDetailLen)
	}
	return e
}

// WithStatus sets the HTTP status override and returns e.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// With attaches an extra field to the error body and returns e.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrExternalService indicates a transport-level failure talking to an
// external system (connection refused, timeout, open circuit).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUpstream indicates an external system answered with a non-2xx status.
// Body holds the raw response, untruncated. Code and Message are filled
// when the body was a recognizable JSON error envelope.
type ErrUpstream struct {
	Service string
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, Truncate(e.Detail(), MaxDetailLen))
}

// Detail is the most useful human-readable text: the parsed message when
// present, the raw body otherwise.
func (e *ErrUpstream) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Body
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
