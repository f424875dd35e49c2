package service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/domain"
)

// signupRule maps one family of GoTrue signup failures onto a client code.
type signupRule struct {
	code       domain.Code
	errorCodes []string
	statuses   []int
	phrases    []string
}

// signupRules is evaluated in order; the first match wins. GoTrue changed
// its error envelope over time, so rules match on any of error_code,
// status and lowercase message fragments.
var signupRules = []signupRule{
	{
		code:       domain.CodeEmailExists,
		errorCodes: []string{"user_already_exists", "email_exists", "identity_already_exists"},
		phrases:    []string{"already registered", "already been registered", "already exists"},
	},
	{
		code:       domain.CodeWeakPassword,
		errorCodes: []string{"weak_password"},
		phrases:    []string{"password should", "weak password", "password is too weak"},
	},
	{
		code:       domain.CodeRateLimited,
		errorCodes: []string{"over_request_rate_limit", "over_email_send_rate_limit", "too_many_requests"},
		statuses:   []int{http.StatusTooManyRequests},
		phrases:    []string{"rate limit"},
	},
}

func (r signupRule) matches(up *domain.ErrUpstream, msg string) bool {
	for _, c := range r.errorCodes {
		if strings.EqualFold(up.Code, c) {
			return true
		}
	}
	for _, s := range r.statuses {
		if up.Status == s {
			return true
		}
	}
	for _, p := range r.phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// ClassifySignupError turns a failed signup call into a taxonomy error.
// Unrecognized provider answers become auth_error carrying the provider's
// status when it is a 4xx, and 502 otherwise.
func ClassifySignupError(err error) *domain.Error {
	var up *domain.ErrUpstream
	if !errors.As(err, &up) {
		return domain.WrapError(domain.CodeAuthError, err).WithStatus(http.StatusBadGateway)
	}

	msg := strings.ToLower(up.Detail())
	for _, rule := range signupRules {
		if rule.matches(up, msg) {
			return domain.NewError(rule.code, up.Detail()).With("provider_status", up.Status)
		}
	}

	status := http.StatusBadGateway
	if up.Status >= 400 && up.Status < 500 {
		status = up.Status
	}
	detail := up.Detail()
	if detail == "" {
		detail = "signup_failed"
	}
	return domain.NewError(domain.CodeAuthError, detail).
		WithStatus(status).
		With("provider_status", up.Status)
}

// upstreamDetail is the best human-readable text for err.
func upstreamDetail(err error) string {
	var up *domain.ErrUpstream
	if errors.As(err, &up) {
		return up.Detail()
	}
	return err.Error()
}
