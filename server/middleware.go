package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"library-backend/library"
	log2 "library-backend/log"
)

const requestIDHeader = "X-Request-ID"

// requestLogger tags every request with an id, carries a logger with that id
// in the request context and logs the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := log2.WithFields(c.Request.Context(), logrus.Fields{"request_id": id})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		entry := log2.GetLogger(ctx).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// abortWithError maps domain errors to statuses and writes {"detail": msg}.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, library.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, library.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, library.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, library.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		log2.GetLogger(c.Request.Context()).WithError(err).Error("unhandled error")
		detail = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": msg})
}

// pathID parses the :id parameter; it reports false after writing a 400.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id "+strconv.Quote(c.Param("id")))
		return 0, false
	}
	return id, true
}

// page binds the skip and limit query parameters.
func page(c *gin.Context) (library.Page, bool) {
	var p library.Page
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, "invalid pagination: "+err.Error())
		return p, false
	}
	if p.Offset < 0 || p.Limit < 0 {
		badRequest(c, "skip and limit must not be negative")
		return p, false
	}
	return p, true
}

// openOnly reads the optional open=true|false query parameter.
func openOnly(c *gin.Context) (bool, bool) {
	raw := c.Query("open")
	if raw == "" {
		return false, true
	}
	open, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid open flag "+strconv.Quote(raw))
		return false, false
	}
	return open, true
}

// bindJSON decodes the request body into dst; it reports false after writing
// a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
