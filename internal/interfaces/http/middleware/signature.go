// Package middleware holds the gin middleware of the open-API sandbox.
package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

// ContextKeyAppID is the gin context key holding the authenticated app id.
const ContextKeyAppID = string(constants.ContextKeyAppID)

const (
	// CodeUnauthorized is the envelope code of a rejected signature.
	CodeUnauthorized = 401
	// CodeBodyTooLarge is the envelope code of a request body over MaxRequestBodyBytes.
	CodeBodyTooLarge = 413
)

// RequireSignature verifies the HMAC signature of every request against the secret of the
// calling app. The canonical string is rebuilt from the method, the raw request URI and
// the digest of the received body.
func RequireSignature(secrets service.SecretProvider, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		appID := c.GetHeader(constants.HeaderAppID)
		signature := c.GetHeader(constants.HeaderSignature)
		if appID == "" || signature == "" {
			abortUnauthorized(c, "missing signature headers")
			return
		}
		if mode := c.GetHeader(constants.HeaderAuthMode); mode != constants.AuthModeSignature {
			abortUnauthorized(c, "unsupported auth mode")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, constants.MaxRequestBodyBytes+1))
		if err != nil {
			abortUnauthorized(c, "unreadable body")
			return
		}
		if len(body) > constants.MaxRequestBodyBytes {
			log.Warn(ctx, "Request body too large", logger.Fields{"app_id": appID, "limit": constants.MaxRequestBodyBytes})
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"code":    CodeBodyTooLarge,
				"message": fmt.Sprintf("request body exceeds %d bytes", constants.MaxRequestBodyBytes),
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		method := models.Method(c.Request.Method)
		contentMD5 := crypto.ContentDigest(method, bytes.TrimSpace(body))
		if got := c.GetHeader(constants.HeaderContentMD5); got != contentMD5 {
			log.Warn(ctx, "Content-MD5 mismatch", logger.Fields{"app_id": appID, "expected": contentMD5, "received": got})
			abortUnauthorized(c, "content digest mismatch")
			return
		}

		secret, err := secrets.GetSecret(ctx, appID)
		if err != nil {
			log.Warn(ctx, "Unknown app", logger.Fields{"app_id": appID})
			abortUnauthorized(c, "unknown app")
			return
		}

		plaintext := crypto.CanonicalString(method, contentMD5, c.Request.URL.RequestURI())
		if !crypto.Verify(signature, plaintext, secret) {
			log.Warn(ctx, "Signature verification failed", logger.Fields{"app_id": appID, "url": c.Request.URL.RequestURI()})
			abortUnauthorized(c, "signature mismatch")
			return
		}

		c.Set(ContextKeyAppID, appID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    CodeUnauthorized,
		"message": message,
	})
}
