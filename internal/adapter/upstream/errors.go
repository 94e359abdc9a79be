// Package upstream holds the pieces shared by the generation and analysis
// clients: failure classification and decoding of upstream payloads.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"quiz-assessment/internal/domain"
)

// ErrorBody is the structured failure payload the upstream services send.
type ErrorBody struct {
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
	RetryAfter *float64        `json:"retryAfter,omitempty"`
}

// errorEnvelope accepts the bare body, the {success,error} wrapper, and
// FastAPI's {"detail": ...} around either of them or a plain message.
type errorEnvelope struct {
	ErrorBody
	Success *bool           `json:"success,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

// body returns the structured failure, looking inside detail at most once.
func (env *errorEnvelope) body(nested bool) (ErrorBody, bool) {
	if env.Error != nil && (env.Error.Code != "" || env.Error.Message != "") {
		return *env.Error, true
	}
	if env.Code != "" || env.Message != "" {
		return env.ErrorBody, true
	}
	if nested || len(env.Detail) == 0 || string(env.Detail) == "null" {
		return ErrorBody{}, false
	}

	var message string
	if err := json.Unmarshal(env.Detail, &message); err == nil {
		return ErrorBody{Message: message}, strings.TrimSpace(message) != ""
	}
	var inner errorEnvelope
	if err := json.Unmarshal(env.Detail, &inner); err == nil {
		return inner.body(true)
	}
	// request validation errors: a list of {loc,msg,type}
	var items []json.RawMessage
	if err := json.Unmarshal(env.Detail, &items); err == nil && len(items) > 0 {
		return ErrorBody{Code: "INVALID_REQUEST", Message: "request validation failed", Details: env.Detail}, true
	}
	return ErrorBody{}, false
}

// Classify maps a transport-level failure to an UpstreamError.
// Errors that are already classified pass through.
func Classify(service domain.UpstreamService, err error) *domain.UpstreamError {
	if err == nil {
		return nil
	}
	if upstream, ok := domain.AsUpstreamError(err); ok {
		return upstream
	}

	kind := domain.UpstreamUnavailable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.UpstreamTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = domain.UpstreamTimeout
	case errors.Is(err, context.Canceled),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		kind = domain.UpstreamUnavailable
	}
	return &domain.UpstreamError{Service: service, Kind: kind, Err: err}
}

// Malformed reports a response that could not be decoded or validated.
func Malformed(service domain.UpstreamService, err error) *domain.UpstreamError {
	return &domain.UpstreamError{Service: service, Kind: domain.UpstreamMalformed, Err: err}
}

// FromResponse turns a non-2xx response into Rejected when the body carries
// a structured envelope, and Malformed otherwise.
func FromResponse(service domain.UpstreamService, status int, header http.Header, body []byte) *domain.UpstreamError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Malformed(service, &StatusError{Status: status, Body: truncate(body)})
	}

	errBody, ok := env.body(false)
	if !ok {
		return Malformed(service, &StatusError{Status: status, Body: truncate(body)})
	}

	upstream := &domain.UpstreamError{
		Service: service,
		Kind:    domain.UpstreamRejected,
		Code:    errBody.Code,
		Message: errBody.Message,
		Details: detailsString(errBody.Details),
		Err:     &StatusError{Status: status},
	}
	if upstream.Code == "" {
		upstream.Code = http.StatusText(status)
	}
	if errBody.RetryAfter != nil && *errBody.RetryAfter > 0 {
		upstream.RetryAfter = time.Duration(*errBody.RetryAfter * float64(time.Second))
	} else if ra := parseRetryAfter(header.Get("Retry-After")); ra > 0 {
		upstream.RetryAfter = ra
	}
	return upstream
}

// StatusError records the HTTP status of a failed upstream call.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return "upstream returned status " + strconv.Itoa(e.Status)
	}
	return "upstream returned status " + strconv.Itoa(e.Status) + ": " + e.Body
}

func detailsString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
