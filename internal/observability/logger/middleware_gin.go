package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/adopet/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

type MiddlewareConfig struct {
	// Development attaches a stack trace to failed requests.
	Development bool
	// Classify maps the last handler error to the error type and code sent
	// in the response envelope.
	Classify func(err error) (errType string, code string)
	// QuietRoutes are logged at debug level unless they fail with a 5xx.
	QuietRoutes []string
}

// GinMiddleware assigns the request id and writes one http_request entry per
// request once the handlers have run, so tenant fields set by the auth
// middleware are included.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(cfg.QuietRoutes))
	for _, route := range cfg.QuietRoutes {
		quiet[route] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if last := c.Errors.Last(); last != nil && cfg.Classify != nil {
			errType, code := cfg.Classify(last.Err)
			fields = append(fields, zap.String("error_type", errType), zap.String("error_code", code))
			if cfg.Development && status >= http.StatusInternalServerError {
				fields = append(fields, zap.Error(last.Err), zap.Stack("stack"))
			}
		}

		_, isQuiet := quiet[route]
		if ce := FromContext(c.Request.Context()).Check(requestLevel(status, isQuiet), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestLevel(status int, quiet bool) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case quiet:
		return zapcore.DebugLevel
	case status == http.StatusTooManyRequests:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// requestIDFor reuses an inbound X-Request-Id, minting a UUID otherwise, and
// echoes it on the response.
func requestIDFor(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if requestID == "" || len(requestID) > 128 {
		requestID = uuid.NewString()
	}
	c.Set("request_id", requestID)
	c.Header(requestIDHeader, requestID)
	return requestID
}
