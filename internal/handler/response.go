// Package handler exposes the gateway and backend over HTTP with gin.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamvkosarev/ai-ide-gateway/internal/archive"
	"github.com/iamvkosarev/ai-ide-gateway/internal/model"
	"github.com/iamvkosarev/ai-ide-gateway/internal/openrouter"
	"github.com/iamvkosarev/ai-ide-gateway/internal/relay"
	"github.com/iamvkosarev/ai-ide-gateway/internal/usecase"
)

// Headers worth keeping when a backend answer is passed through.
var passthroughHeaders = []string{"Content-Disposition", "Retry-After"}

func statusFor(err error) int {
	var statusErr *openrouter.StatusError
	var unreachable *relay.UnreachableError
	switch {
	case errors.Is(err, model.ErrEmptyMessage),
		errors.Is(err, model.ErrUnsupportedAttachment),
		errors.Is(err, archive.ErrInvalidPath),
		errors.Is(err, archive.ErrEmptyProject):
		return http.StatusBadRequest
	case errors.Is(err, openrouter.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrCodexBackendRequired):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr):
		return statusErr.Status
	case errors.As(err, &unreachable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), model.ErrorBody{Error: err.Error()})
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorBody{Error: err.Error()})
}

// writeResponse sends a usecase response: gateway payloads as JSON, relayed
// bodies untouched.
func writeResponse(c *gin.Context, resp *usecase.Response) {
	if resp.Body == nil {
		c.JSON(resp.Status, resp.Payload)
		return
	}
	defer resp.Body.Close()

	for _, name := range passthroughHeaders {
		if value := resp.Header.Get(name); value != "" {
			c.Header(name, value)
		}
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(resp.Status, -1, contentType, resp.Body, nil)
}

// writeStream relays a chat answer. Successful answers are event streams;
// anything else is an upstream error passed through as is.
func writeStream(c *gin.Context, resp *usecase.Response) {
	if resp.Body == nil || resp.Status < 200 || resp.Status > 299 {
		writeResponse(c, resp)
		return
	}
	defer resp.Body.Close()

	setSSEHeaders(c)
	c.Status(resp.Status)
	c.Writer.WriteHeaderNow()

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				_ = c.Error(err)
			}
			return
		}
	}
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", usecase.ContentTypeEventStream)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
