package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/pkg/log"
	"github.com/Makepad-fr/tada/pkg/response"
)

const requestIDHeader = "X-Request-ID"

// requestID reuses the caller's X-Request-ID or mints one, and puts it on
// the request context so every log line of the request carries it.
func (srv *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// accessLog logs and counts every finished request.
func (srv *HTTPServer) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		srv.metrics.Observe(c.Request.Method, c.FullPath(), status, elapsed)
		srv.l.Infof(c.Request.Context(), "handled method=%s url=%s status=%d took=%s",
			c.Request.Method, c.Request.URL.String(), status, elapsed)
		for _, e := range c.Errors {
			srv.l.Errorf(c.Request.Context(), "request error: %v", e.Err)
		}
	}
}

func (srv *HTTPServer) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !srv.limiter.Allow() {
			srv.l.Warnf(c.Request.Context(), "rate limited %s %s", c.Request.Method, c.Request.URL.Path)
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
