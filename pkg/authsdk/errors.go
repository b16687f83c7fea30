package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/memoauth/pkg/httpx"
)

// Error codes carried in the response envelope.
const (
	ErrorCodeUnauthorized            = httpx.CodeUnauthorized
	ErrorCodeInsufficientPermissions = httpx.CodeInsufficientPermissions
	ErrorCodeInvalidRequest          = httpx.CodeInvalidRequest
	ErrorCodeNotFound                = httpx.CodeNotFound
	ErrorCodeRateLimited             = httpx.CodeRateLimited
	ErrorCodeServerError             = httpx.CodeServerError
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *APIError) IsRateLimited() bool  { return e.StatusCode == http.StatusTooManyRequests }

// parseErrorResponse builds an APIError from an error envelope. Bodies that
// are not envelopes still produce an APIError with the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    http.StatusText(resp.StatusCode),
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
