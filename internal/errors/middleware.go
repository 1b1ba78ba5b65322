package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPErrorsTotal counts error responses by structured type.
var HTTPErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total HTTP errors by error type",
	},
	[]string{"type"},
)

// Middleware converts errors returned by handlers into JSON responses.
// echo.HTTPErrors (CSRF rejections, built-in rate limiting, websocket
// handshake refusals) pass through unchanged so their status codes
// survive; they are counted but echo's own handler renders them.
// Everything else is normalized through AsStructuredError.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				HTTPErrorsTotal.WithLabelValues(string(WrapHTTPError(httpErr).Type)).Inc()
				return err
			}

			structured := AsStructuredError(err)
			HTTPErrorsTotal.WithLabelValues(string(structured.Type)).Inc()
			logError(c, structured)

			if werr := c.JSON(structured.HTTPStatus(), structured.ToResponse()); werr != nil {
				return fmt.Errorf("failed to write error response: %w", werr)
			}
			return nil
		}
	}
}

// logError writes one line per failed request. Client mistakes log at
// info or warn; only server-side failures log at error, with their cause.
func logError(c echo.Context, err *Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if userID := c.Get("userID"); userID != nil {
		attrs = append(attrs, "user_id", userID)
	}

	switch err.Type {
	case TypeValidation, TypeNotFound, TypeUnauthorized:
		slog.Info("Request rejected", attrs...)
	case TypeConflict, TypeRateLimited:
		slog.Warn("Request rejected", attrs...)
	case TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	default:
		slog.Error("Unknown error type", attrs...)
	}
}

var typeByStatus = map[int]ErrorType{
	http.StatusBadRequest:      TypeValidation,
	http.StatusUnauthorized:    TypeUnauthorized,
	http.StatusNotFound:        TypeNotFound,
	http.StatusConflict:        TypeConflict,
	http.StatusTooManyRequests: TypeRateLimited,
}

// WrapHTTPError lifts an echo.HTTPError into the structured form, mostly
// so pass-through errors still land in the right metrics bucket. Unknown
// statuses count as internal.
func WrapHTTPError(httpErr *echo.HTTPError) *Error {
	errType, ok := typeByStatus[httpErr.Code]
	if !ok {
		errType = TypeInternal
	}

	message := "internal server error"
	if msg, ok := httpErr.Message.(string); ok {
		message = msg
	}

	return newError(errType, message, httpErr.Internal)
}
