package drive

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the Drive error envelope: {"error": {"code": ..., "message": ...}}.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("drive: status %d", e.StatusCode)
	}
	return fmt.Sprintf("drive: status %d: %s", e.StatusCode, e.Message)
}

// parseError decodes a non-2xx response body. Unknown bodies keep the
// HTTP status and fall back to its text.
func parseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var env struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error.Code != 0 {
			apiErr.StatusCode = env.Error.Code
		}
		apiErr.Message = env.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = env.ErrorDescription
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
