// Package middleware はHTTPサーバー共通のgin middlewareを提供します。
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextRequestID はgin.Contextに保存するリクエストIDのキーです。
	ContextRequestID = "requestID"
	// HeaderRequestID はリクエストIDを受け渡すHTTPヘッダーです。
	HeaderRequestID = "X-Request-ID"
)

const maxRequestIDLen = 128

// RequestID returns a Gin middleware that assigns a request ID to each request.
// An incoming X-Request-ID header is reused when present and reasonably short;
// otherwise a new UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Reuse the caller's ID if provided
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		// 2. Store in context and echo on the response
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)

		c.Next()
	}
}
