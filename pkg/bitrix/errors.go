package bitrix

import (
	"fmt"
	"net/http"
)

// APIError is the Bitrix24 REST error envelope:
// {"error": "CODE", "error_description": "..."}.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("bitrix: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("bitrix: %s (status %d): %s", e.Code, e.StatusCode, msg)
}

// transientCodes are error codes Bitrix returns for overload rather than
// for a bad request.
var transientCodes = map[string]bool{
	"QUERY_LIMIT_EXCEEDED":  true,
	"OPERATION_TIME_LIMIT":  true,
	"INTERNAL_SERVER_ERROR": true,
}
