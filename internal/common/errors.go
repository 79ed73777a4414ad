// errors.go - Typed pipeline errors and their user-facing rendering

package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// ErrorKind is the pipeline error taxonomy
type ErrorKind string

const (
	KindCredentialMissing     ErrorKind = "credential_missing"
	KindProviderRequestFailed ErrorKind = "provider_request_failed"
	KindSchemaParseFailed     ErrorKind = "schema_parse_failed"
	KindNoMatchFound          ErrorKind = "no_match_found"
	KindUnsupportedInput      ErrorKind = "unsupported_input"
)

// Sentinels for errors.Is; only the kind is compared
var (
	ErrCredentialMissing     = &PipelineError{Kind: KindCredentialMissing}
	ErrProviderRequestFailed = &PipelineError{Kind: KindProviderRequestFailed}
	ErrSchemaParseFailed     = &PipelineError{Kind: KindSchemaParseFailed}
	ErrNoMatchFound          = &PipelineError{Kind: KindNoMatchFound}
	ErrUnsupportedInput      = &PipelineError{Kind: KindUnsupportedInput}
)

// PipelineError is returned by every provider abstraction. Nothing in the
// pipeline retries it; the user re-uploads or re-translates instead.
type PipelineError struct {
	Kind       ErrorKind
	Provider   string
	Category   string // finer-grained reason, e.g. "rate_limit", "unauthorized"
	StatusCode int
	Message    string
	Err        error
}

func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString("[" + string(e.Kind) + "]")
	if e.Provider != "" {
		b.WriteString(" " + e.Provider + ":")
	}
	if e.Message != "" {
		b.WriteString(" " + e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Is matches any PipelineError of the same kind
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first PipelineError in err's chain
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// CredentialMissing reports that provider has no key configured
func CredentialMissing(provider string) *PipelineError {
	return &PipelineError{
		Kind:     KindCredentialMissing,
		Provider: provider,
		Category: "missing_api_key",
		Message:  "API key is not configured",
	}
}

// SchemaParseFailed reports an unparseable structured response
func SchemaParseFailed(provider string, err error) *PipelineError {
	return &PipelineError{
		Kind:     KindSchemaParseFailed,
		Provider: provider,
		Category: "invalid_response",
		Message:  "response does not match the prescription schema",
		Err:      err,
	}
}

// NoMatchFound reports a lookup miss
func NoMatchFound(source, name string) *PipelineError {
	return &PipelineError{
		Kind:     KindNoMatchFound,
		Provider: source,
		Category: "not_found",
		Message:  fmt.Sprintf("no match for %q", name),
	}
}

// UnsupportedInput reports input the pipeline cannot process
func UnsupportedInput(format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:     KindUnsupportedInput,
		Category: "unsupported_input",
		Message:  fmt.Sprintf(format, args...),
	}
}

// RequestFailed categorises a transport or SDK error from provider
func RequestFailed(provider string, err error) *PipelineError {
	pe := &PipelineError{
		Kind:     KindProviderRequestFailed,
		Provider: provider,
		Category: "unknown",
		Message:  "request failed",
		Err:      err,
	}
	if err == nil {
		return pe
	}

	if status := statusFromError(err); status != 0 {
		pe.StatusCode = status
		pe.Category, pe.Message = categorizeStatus(status)
		return pe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Category = "timeout"
		pe.Message = "request timeout"
		return pe
	case errors.Is(err, context.Canceled):
		pe.Category = "canceled"
		pe.Message = "request was canceled"
		return pe
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "quota"):
		pe.Category = "quota_exceeded"
		pe.Message = "API quota exceeded"
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		pe.Category = "timeout"
		pe.Message = "request timeout"
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") || strings.Contains(errMsg, "no such host"):
		pe.Category = "network_error"
		pe.Message = "network connection error"
	}
	return pe
}

// RequestFailedStatus reports a non-success HTTP response from provider
func RequestFailedStatus(provider string, status int, detail string) *PipelineError {
	category, msg := categorizeStatus(status)
	if detail != "" {
		msg = msg + ": " + detail
	}
	return &PipelineError{
		Kind:       KindProviderRequestFailed,
		Provider:   provider,
		Category:   category,
		StatusCode: status,
		Message:    msg,
	}
}

func statusFromError(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return oaiErr.HTTPStatusCode
	}
	var oaiReqErr *openai.RequestError
	if errors.As(err, &oaiReqErr) {
		return oaiReqErr.HTTPStatusCode
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode
	}
	return 0
}

func categorizeStatus(status int) (string, string) {
	switch {
	case status == http.StatusBadRequest:
		return "bad_request", "invalid request format or parameters"
	case status == http.StatusUnauthorized:
		return "unauthorized", "invalid API key or authentication failed"
	case status == http.StatusForbidden:
		return "forbidden", "API key lacks required permissions"
	case status == http.StatusNotFound:
		return "not_found", "model not found or invalid endpoint"
	case status == http.StatusRequestEntityTooLarge:
		return "payload_too_large", "request size exceeds limit"
	case status == http.StatusTooManyRequests:
		return "rate_limit", "rate limit exceeded"
	case status >= 500:
		return "server_error", fmt.Sprintf("provider server error (%d)", status)
	}
	return "unknown_api_error", fmt.Sprintf("unexpected status %d", status)
}

// HTTPStatus maps an error onto the status code the API answers with
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindCredentialMissing:
		return http.StatusPreconditionFailed
	case KindUnsupportedInput:
		return http.StatusUnsupportedMediaType
	case KindSchemaParseFailed:
		return http.StatusUnprocessableEntity
	case KindNoMatchFound:
		return http.StatusNotFound
	case KindProviderRequestFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// UserFacing converts err into the inline message shown to the user
func UserFacing(err error) map[string]interface{} {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return map[string]interface{}{
			"error":             "Processing failed",
			"category":          "internal",
			"details":           err.Error(),
			"suggestion":        "An unexpected error occurred. Please try again.",
			"retry_recommended": false,
		}
	}

	resp := map[string]interface{}{
		"error":    string(pe.Kind),
		"category": pe.Category,
		"details":  pe.Message,
	}
	if pe.Provider != "" {
		resp["provider"] = pe.Provider
	}

	switch pe.Kind {
	case KindCredentialMissing:
		resp["suggestion"] = fmt.Sprintf("Add an API key for %s in settings, or choose another provider.", pe.Provider)
		resp["action_required"] = "configure_api_key"
	case KindSchemaParseFailed:
		resp["suggestion"] = "The prescription could not be read reliably. Please retry with a clearer image."
		resp["retry_recommended"] = true
	case KindNoMatchFound:
		resp["suggestion"] = "No information found for this medicine. Check the spelling or consult a pharmacist."
	case KindUnsupportedInput:
		resp["suggestion"] = "Upload a JPEG or PNG photo of the prescription, or a PDF with selectable text."
		resp["action_required"] = "change_input"
	case KindProviderRequestFailed:
		switch pe.Category {
		case "rate_limit":
			resp["suggestion"] = "Too many requests. Please wait a moment and try again."
			resp["retry_after"] = "30-60 seconds"
		case "unauthorized", "forbidden":
			resp["suggestion"] = "The provider rejected the API key. Please check it in settings."
			resp["action_required"] = "check_api_key"
		case "payload_too_large":
			resp["suggestion"] = "Image size is too large. Please use a smaller image."
			resp["action_required"] = "reduce_image_size"
		case "quota_exceeded":
			resp["suggestion"] = "API quota exceeded. Try again later or switch provider."
		case "timeout", "server_error", "network_error":
			resp["suggestion"] = "The provider is temporarily unavailable. Please try again."
			resp["retry_recommended"] = true
		default:
			resp["suggestion"] = "The provider request failed. Please try again."
			resp["retry_recommended"] = true
		}
	}
	return resp
}
