package errors

const (
	HttpInternalError     = "internal_error"
	HttpInvalidJsonError  = "invalid_json"
	HttpInvalidQueryError = "invalid_query"
	HttpStorageError      = "storage_failure"
)

// ErrorResponse is the error response body for all pipeline endpoints.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
