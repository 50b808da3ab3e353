package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/2lambda123/nasa-cumulus-sub001/pkg/context"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// quietPrefixes are polled by orchestrators and scrapers; they log at debug.
var quietPrefixes = []string{"/api/v1/health", "/metrics"}

// Logger writes one line per request. Server errors log at warn so a failed
// migration trigger stands out from health check traffic.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			ctx := req.Context()

			fields := context.LogFields(ctx)
			fields["uri"] = req.RequestURI
			fields["status"] = res.Status
			fields["duration"] = time.Since(start)
			fields["response_size"] = res.Size
			entry := logger.WithContext(ctx).WithFields(fields)

			switch {
			case res.Status >= http.StatusInternalServerError:
				entry.Warn("Request failed")
			case isQuiet(req.URL.Path):
				entry.Debug("Request")
			default:
				entry.Info("Request")
			}
			return nil
		}
	}
}

func isQuiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
