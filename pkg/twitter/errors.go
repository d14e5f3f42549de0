package twitter

import (
	"errors"
	"fmt"
	"strings"
)

// Upstream error codes the bridge branches on.
const (
	codeNotFound        = 34
	codeRateLimited     = 88
	codeReplyRestricted = 433
)

// ErrorDetail is one entry of an upstream error payload.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is a structured rejection from the Twitter API: either a
// non-2xx response or a 200 GraphQL envelope carrying an errors list.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("twitter: upstream returned status %d", e.StatusCode)
	}
	msgs := make([]string, len(e.Errors))
	for i, d := range e.Errors {
		msgs[i] = fmt.Sprintf("%s (code %d)", d.Message, d.Code)
	}
	return fmt.Sprintf("twitter: upstream rejected request (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

func (e *APIError) hasCode(code int) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether the error says the record does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404 || e.hasCode(codeNotFound)
}

// IsRateLimited reports whether the error is a rate limit rejection.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429 || e.hasCode(codeRateLimited)
}

// IsReplyRestricted reports whether the tweet author has restricted who
// may reply.
func (e *APIError) IsReplyRestricted() bool {
	return e.hasCode(codeReplyRestricted)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrIncompleteResult marks a GraphQL tweet/user result missing its core
// identity fields. It is a per-record failure: timeline walkers skip the
// record instead of failing the page.
var ErrIncompleteResult = errors.New("twitter: result missing core fields")
