package middleware

import (
	stdcontext "context"
	"errors"
	"net/http"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/tracing"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	RunID     string         `json:"run_id,omitempty"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

// Error renders handler errors as ErrorResponse. A run cut short by the
// request deadline is reported as a gateway timeout.
func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		if c.Response().Committed {
			return
		}

		code, message, meta := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), map[string]any{}

		var he *echo.HTTPError
		switch {
		case httperror.IsHTTPError(err):
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			if httperr.Meta != nil {
				meta = httperr.Meta
			}
		case errors.As(err, &he):
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		case errors.Is(err, stdcontext.DeadlineExceeded):
			code = http.StatusGatewayTimeout
			message = "migration run exceeded the request deadline"
		}

		entry := logger.WithContext(ctx).WithError(err).WithFields(context.LogFields(ctx)).WithField("status", code)
		if code >= http.StatusInternalServerError {
			entry.Error("api is returning an error")
		} else {
			entry.Warn("api is rejecting the request")
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: context.GetRequestID(ctx),
			RunID:     context.GetRunID(ctx),
			TraceID:   tracing.GetTraceID(ctx),
			Meta:      meta,
		})
	}
}
