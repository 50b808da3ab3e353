package middleware

import (
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRunID lets a caller choose the id of the migration run it starts.
const HeaderRunID = "X-Migration-Run-Id"

// Context seeds the request context with correlation ids. The request id is
// echoed back; a caller supplied run id is carried into the run.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			ctx = context.SetRequestID(ctx, requestID)

			if runID := req.Header.Get(HeaderRunID); runID != "" {
				ctx = context.SetRunID(ctx, runID)
			}

			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, c.Path())
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
