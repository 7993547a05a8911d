package middleware

import (
	"bytes"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mustafamaahir/Meeting-Minutes/pkg/log"
)

// maxLoggedBody caps how much of a body makes it into the log. Uploads
// carry whole PDFs; logging those verbatim would drown the log.
const maxLoggedBody = 2048

// bodyLogWriter tees the response into a buffer for logging.
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger logs one structured line per request: id, method, path,
// status, latency and truncated response body. The request id is echoed in
// the X-Request-ID response header.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		latency := time.Since(startTime)

		log.Infow("HTTP request",
			"requestID", requestID,
			"statusCode", c.Writer.Status(),
			"latency", latency.String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"responseBody", truncateBody(blw.body.String()),
		)
	}
}

func truncateBody(body string) string {
	if len(body) <= maxLoggedBody {
		return body
	}
	var sb strings.Builder
	sb.WriteString(body[:maxLoggedBody])
	sb.WriteString("... (truncated)")
	return sb.String()
}
