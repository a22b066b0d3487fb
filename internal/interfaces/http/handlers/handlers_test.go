package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/internal/interfaces/http/middleware"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// asApp stands in for the signature middleware.
func asApp(appID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyAppID, appID)
		c.Next()
	}
}

func setupTokenRouter(t *testing.T) (*gin.Engine, *crypto.JWTManager, *cache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt := crypto.NewJWTManager("sandbox-key", "esign-sandbox")
	revoked := cache.New(time.Hour, time.Hour)
	h := NewTokenHandler(jwt, revoked, time.Hour, logger.NewNoopLogger())

	r := gin.New()
	r.Use(asApp("app-1"))
	r.GET(constants.PathAccessToken, h.IssueToken)
	r.POST("/v1/oauth2/revoke", h.RevokeToken)
	return r, jwt, revoked
}

func TestTokenHandler_IssueToken(t *testing.T) {
	r, jwt, _ := setupTokenRouter(t)

	w := httptest.NewRecorder()
	before := time.Now()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, constants.PathAccessToken+"?appId=app-1&grantType=client_credentials", nil))
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	require.Equal(t, constants.CodeSuccess, env.Code)

	token, _ := env.Data["token"].(string)
	claims, err := jwt.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "app-1", claims.Subject)
	assert.NotEmpty(t, env.Data["refreshToken"])

	expiresIn, _ := env.Data["expiresIn"].(string)
	ms, err := strconv.ParseInt(expiresIn, 10, 64)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(time.Hour), time.UnixMilli(ms), 5*time.Second)
}

func TestTokenHandler_IssueToken_Rejects(t *testing.T) {
	r, _, _ := setupTokenRouter(t)

	for name, query := range map[string]string{
		"wrong grant":   "?appId=app-1&grantType=password",
		"missing grant": "?appId=app-1",
		"other app":     "?appId=app-2&grantType=client_credentials",
		"missing app":   "?grantType=client_credentials",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, constants.PathAccessToken+query, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, CodeInvalidParam, decode(t, w).Code)
		})
	}
}

func TestTokenHandler_RevokeToken(t *testing.T) {
	r, jwt, revoked := setupTokenRouter(t)

	issued, err := jwt.Issue("app-1", time.Hour)
	require.NoError(t, err)
	foreign, err := jwt.Issue("app-2", time.Hour)
	require.NoError(t, err)

	revoke := func(body string) envelope {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/oauth2/revoke", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return decode(t, w)
	}

	env := revoke(`{"token":"` + issued.Value + `"}`)
	assert.Equal(t, constants.CodeSuccess, env.Code)
	_, found := revoked.Get(issued.JTI)
	assert.True(t, found)

	assert.Equal(t, constants.CodeTokenInvalid, revoke(`{"token":"`+foreign.Value+`"}`).Code)
	_, found = revoked.Get(foreign.JTI)
	assert.False(t, found)

	assert.Equal(t, CodeInvalidParam, revoke(`{}`).Code)
	assert.Equal(t, constants.CodeTokenInvalid, revoke(`{"token":"garbage"}`).Code)
}

func TestFileHandler_CreateByTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFileHandler(cache.New(time.Hour, time.Hour), logger.NewNoopLogger())
	r := gin.New()
	r.Use(asApp("app-1"))
	r.POST(constants.PathCreateByTemplate, h.CreateByTemplate)

	t.Run("creates a file", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := `{"name":"contract.pdf","templateId":"tpl1","simpleFormFields":[{"party":"A"}]}`
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, constants.PathCreateByTemplate, bytes.NewBufferString(body)))

		env := decode(t, w)
		require.Equal(t, constants.CodeSuccess, env.Code)
		fileID, _ := env.Data["fileId"].(string)
		require.NotEmpty(t, fileID)
		assert.Equal(t, "contract.pdf", env.Data["fileName"])
		assert.Equal(t, "tpl1", env.Data["templateId"])

		file, ok := h.File(fileID)
		require.True(t, ok)
		assert.Equal(t, "app-1", file.AppID)
		assert.Len(t, file.FormFields, 1)
	})

	t.Run("missing template id is a business error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, constants.PathCreateByTemplate, bytes.NewBufferString(`{"name":"doc"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, CodeInvalidParam, env.Code)
		assert.Contains(t, env.Message, "TemplateID")
	})

	t.Run("unknown file", func(t *testing.T) {
		_, ok := h.File("missing")
		assert.False(t, ok)
	})
}

func TestSignFlowHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSignFlowHandler(logger.NewNoopLogger())
	r := gin.New()
	r.GET("/v1/signflows/:flowId/signers", h.Signers)
	r.GET("/api/v2/signflows/:flowId/getVoucher", h.Voucher)

	t.Run("signers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/signflows/flow-1/signers", nil))
		env := decode(t, w)
		require.Equal(t, constants.CodeSuccess, env.Code)
		assert.Equal(t, "flow-1", env.Data["flowId"])
		assert.Len(t, env.Data["signers"], 2)
	})

	t.Run("voucher", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/signflows/flow-1/getVoucher", nil))
		env := decode(t, w)
		require.Equal(t, constants.CodeSuccess, env.Code)
		assert.Equal(t, "https://sandbox.esign.local/vouchers/flow-1.pdf", env.Data["voucherUrl"])
	})

	t.Run("blank flow id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/signflows/%20/signers", nil))
		assert.Equal(t, CodeInvalidParam, decode(t, w).Code)
	})
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all ok",
			checks:     map[string]HealthCheck{"apps": func(context.Context) error { return nil }},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name: "one failing",
			checks: map[string]HealthCheck{
				"apps":  func(context.Context) error { return nil },
				"vault": func(context.Context) error { return errors.New("sealed") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks, logger.NewNoopLogger())
			r := gin.New()
			r.GET("/health", h.HealthCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}
