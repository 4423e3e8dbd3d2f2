package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "pokedex-backend/shared/errors"
	"pokedex-backend/shared/logging"
	"pokedex-backend/shared/utils/query"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey    = "request_id"
	requestStartKey = "request_start"
)

// UnifiedResponse represents the standard API response format
type UnifiedResponse struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message"`
	Data       interface{}               `json:"data,omitempty"`
	Error      *ErrorInfo                `json:"error,omitempty"`
	Pagination *query.PaginationResponse `json:"pagination,omitempty"`
	Meta       *MetaInfo                 `json:"meta"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID     string `json:"request_id"`
	Timestamp     string `json:"timestamp"`
	ExecutionTime string `json:"execution_time"`
	Method        string `json:"method"`
	Path          string `json:"path"`
}

// RequestID stamps every request with an id, reusing the caller's X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Set(requestStartKey, time.Now())
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the id RequestID stamped on c
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RespondSuccess writes data in the unified envelope. An empty message
// falls back to one derived from the HTTP method.
func RespondSuccess(c *gin.Context, status int, message string, data interface{}) {
	if message == "" {
		message = getAutoMessage(c.Request.Method, status, true)
	}
	c.JSON(status, UnifiedResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    buildMeta(c),
	})
}

// RespondPaginated writes one page of a listing
func RespondPaginated(c *gin.Context, data interface{}, pagination query.PaginationResponse) {
	c.JSON(http.StatusOK, UnifiedResponse{
		Success:    true,
		Message:    getAutoMessage(c.Request.Method, http.StatusOK, true),
		Data:       data,
		Pagination: &pagination,
		Meta:       buildMeta(c),
	})
}

// RespondError maps err to its status and code and logs it. Errors outside
// the known kinds are rendered as a generic internal error.
func RespondError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	details := apperrors.Message(err, "Internal server error")
	if code == codeInternal {
		log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).Msg("unhandled error")
		details = "Internal server error"
	} else {
		logging.Failure(handlerContext(c), resourceOf(c), err)
	}

	RespondFailure(c, status, code, details)
}

// handlerContext names the failing handler for the log, e.g.
// "handlers.(*PokemonHandler).GetPokemon"
func handlerContext(c *gin.Context) string {
	name := c.HandlerName()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// resourceOf is the matched route, or the raw path when nothing matched
func resourceOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return c.Request.Method + " " + route
	}
	return c.Request.Method + " " + c.Request.URL.Path
}

// RespondFailure aborts with an error envelope for a status and code that
// do not come from an application error, such as rate limiting or an
// unreachable upstream.
func RespondFailure(c *gin.Context, status int, code, details string) {
	c.AbortWithStatusJSON(status, UnifiedResponse{
		Success: false,
		Message: getAutoMessage(c.Request.Method, status, false),
		Error: &ErrorInfo{
			Code:    code,
			Details: details,
		},
		Meta: buildMeta(c),
	})
}

// RespondBadRequest reports a malformed request body or parameter
func RespondBadRequest(c *gin.Context, details string) {
	RespondError(c, apperrors.New(apperrors.ErrValidation, "%s", details))
}

const codeInternal = "INTERNAL_ERROR"

// StatusFor returns the HTTP status and error code for err
func StatusFor(err error) (int, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case apperrors.Is(err, apperrors.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN"
	case apperrors.Is(err, apperrors.ErrExpiredToken):
		return http.StatusUnauthorized, "EXPIRED_TOKEN"
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case apperrors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case apperrors.Is(err, apperrors.ErrConfiguration):
		return http.StatusInternalServerError, "CONFIGURATION_ERROR"
	case apperrors.Is(err, apperrors.ErrSigning):
		return http.StatusInternalServerError, "SIGNING_ERROR"
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func buildMeta(c *gin.Context) *MetaInfo {
	var elapsed time.Duration
	if start, ok := c.Get(requestStartKey); ok {
		if t, ok := start.(time.Time); ok {
			elapsed = time.Since(t)
		}
	}
	return &MetaInfo{
		RequestID:     c.GetString(requestIDKey),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ExecutionTime: fmt.Sprintf("%dms", elapsed.Milliseconds()),
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
	}
}

// getAutoMessage generates appropriate success/error messages
func getAutoMessage(method string, statusCode int, isSuccess bool) string {
	if isSuccess {
		switch method {
		case http.MethodPost:
			return "Record created successfully"
		case http.MethodPut, http.MethodPatch:
			return "Record updated successfully"
		case http.MethodDelete:
			return "Record deleted successfully"
		case http.MethodGet:
			return "Data retrieved successfully"
		default:
			return "Operation completed successfully"
		}
	}

	switch statusCode {
	case http.StatusBadRequest:
		return "Invalid request data"
	case http.StatusUnauthorized:
		return "Authentication required"
	case http.StatusForbidden:
		return "Permission denied"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Resource already exists"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusInternalServerError:
		return "Internal server error"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "Service unavailable"
	default:
		return "Operation failed"
	}
}
