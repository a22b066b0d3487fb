package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

// RequireToken rejects requests whose open token is missing, expired, revoked or minted for
// another app. Rejections use the gateway's token-invalid envelope with HTTP 200 so that
// clients detect them from the body. It must run after RequireSignature.
func RequireToken(tokens *crypto.JWTManager, revoked *cache.Cache, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(constants.HeaderToken)
		if raw == "" {
			abortTokenInvalid(c, "token missing")
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			message := "token invalid"
			if errors.Is(err, crypto.ErrTokenExpired) {
				message = "token expired"
			}
			abortTokenInvalid(c, message)
			return
		}

		if _, found := revoked.Get(claims.ID); found {
			abortTokenInvalid(c, "token revoked")
			return
		}

		if appID := c.GetString(ContextKeyAppID); appID != claims.Subject {
			log.Warn(c.Request.Context(), "Token presented by another app", logger.Fields{
				"app_id":  appID,
				"subject": claims.Subject,
			})
			abortTokenInvalid(c, "token invalid")
			return
		}

		c.Next()
	}
}

func abortTokenInvalid(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusOK, gin.H{
		"code":    constants.CodeTokenInvalid,
		"message": message,
	})
}
