package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/internal/interfaces/http/middleware"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

// TokenHandler issues and revokes sandbox access tokens.
type TokenHandler struct {
	tokens  *crypto.JWTManager
	revoked *cache.Cache
	ttl     time.Duration
	log     logger.Logger
}

// NewTokenHandler creates a TokenHandler. Revoked token ids are recorded in revoked until
// the token would have expired anyway.
func NewTokenHandler(tokens *crypto.JWTManager, revoked *cache.Cache, ttl time.Duration, log logger.Logger) *TokenHandler {
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &TokenHandler{tokens: tokens, revoked: revoked, ttl: ttl, log: log}
}

// IssueToken handles GET /v1/oauth2/access_token. The caller must request a token for the
// app it signed as.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	appID := c.Query("appId")
	if grant := c.Query("grantType"); grant != constants.GrantTypeClientCredentials {
		respondError(c, CodeInvalidParam, "grantType must be client_credentials")
		return
	}
	if appID == "" || appID != c.GetString(middleware.ContextKeyAppID) {
		respondError(c, CodeInvalidParam, "appId does not match the signing app")
		return
	}

	issued, err := h.tokens.Issue(appID, h.ttl)
	if err != nil {
		h.log.Error(c.Request.Context(), "Failed to issue token", err, logger.Fields{"app_id": appID})
		respondError(c, constants.CodeTokenInvalid, "token issue failed")
		return
	}

	h.log.Info(c.Request.Context(), "Token issued", logger.Fields{
		"app_id":     appID,
		"jti":        issued.JTI,
		"expires_at": issued.ExpiresAt,
	})
	respondOK(c, gin.H{
		"token":        issued.Value,
		"expiresIn":    strconv.FormatInt(issued.ExpiresAt.UnixMilli(), 10),
		"refreshToken": uuid.NewString(),
	})
}

type revokeRequest struct {
	Token string `json:"token" binding:"required"`
}

// RevokeToken handles POST /v1/oauth2/revoke. Later requests carrying the token are
// answered with the token-invalid code.
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, CodeInvalidParam, "token is required")
		return
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		respondError(c, constants.CodeTokenInvalid, err.Error())
		return
	}
	if claims.Subject != c.GetString(middleware.ContextKeyAppID) {
		respondError(c, constants.CodeTokenInvalid, "token belongs to another app")
		return
	}

	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil && time.Until(claims.ExpiresAt.Time) > 0 {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	h.revoked.Set(claims.ID, true, ttl)
	h.log.Info(c.Request.Context(), "Token revoked", logger.Fields{"app_id": claims.Subject, "jti": claims.ID})
	respondOK(c, nil)
}
