package ingestion

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/beacon-lab/project-beacon/internal/api/v1"
	httperr "github.com/beacon-lab/project-beacon/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist event"
)

// ingestionError carries the structured HTTP error shape from a helper back
// to the orchestrator. Helpers return this instead of writing to
// gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for event ingestion.
// The inbound collaborator has already confirmed the app exists; the
// pipeline trusts the app_id path parameter.
func (s *Service) IngestHandler(c *gin.Context) {
	appID := c.Param("app_id")

	evt, payloadSize, parseErr := s.parseEvent(c)
	if parseErr != nil {
		writeError(c, parseErr)
		return
	}

	slog.Info("Received event",
		"app_id", appID,
		"event_type", evt.EventName,
		"identity", evt.Identity,
		"payload_size", payloadSize)

	result, err := s.Ingest(c.Request.Context(), appID, evt)
	if err != nil {
		slog.Error("Failed to persist event", "app_id", appID, "event_type", evt.EventName, "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpStorageError,
			message:    msgPersistFailed,
		})
		return
	}

	c.JSON(http.StatusAccepted, result)
}

// parseEvent reads the raw request body and binds it into an IncomingEvent.
// Returns the parsed event and the raw payload size (used for structured
// logging upstream).
func (s *Service) parseEvent(c *gin.Context) (*v1.IncomingEvent, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM from oversized clients
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.IncomingEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if err := evt.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    err.Error(),
		}
	}

	return &evt, len(bodyBytes), nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
