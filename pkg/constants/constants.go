// Package constants defines the protocol constants shared by the esign client, sandbox and CLI.
package constants

import "time"

// ================================================================================
// Open API Header Names
// ================================================================================

const (
	// HeaderAppID carries the application identifier
	HeaderAppID = "X-Tsign-Open-App-Id"

	// HeaderAuthMode carries the authentication mode marker
	HeaderAuthMode = "X-Tsign-Open-Auth-Mode"

	// HeaderTimestamp carries the signing time in Unix milliseconds
	HeaderTimestamp = "X-Tsign-Open-Ca-Timestamp"

	// HeaderSignature carries the base64 HMAC-SHA256 request signature
	HeaderSignature = "X-Tsign-Open-Ca-Signature"

	// HeaderToken carries the bearer token after a refresh
	HeaderToken = "X-Tsign-Open-Token"

	// HeaderContentMD5 carries the body digest
	HeaderContentMD5 = "Content-MD5"

	// HeaderAccept is the standard Accept header
	HeaderAccept = "Accept"

	// HeaderContentType is the standard Content-Type header
	HeaderContentType = "Content-Type"

	// HeaderRequestID correlates a logical call across attempts
	HeaderRequestID = "X-Request-Id"
)

// ================================================================================
// Canonical String Fields
// ================================================================================

const (
	// AuthModeSignature is the only supported auth mode
	AuthModeSignature = "Signature"

	// AcceptJSON is the fixed Accept value
	AcceptJSON = "application/json"

	// ContentTypeJSONUTF8 is the Content-Type that is signed and sent
	ContentTypeJSONUTF8 = "application/json; charset=UTF-8"

	// ContentTypeJSON is set on the pending request during a token retry
	ContentTypeJSON = "application/json"

	// SignedDate is always empty in this protocol variant
	SignedDate = ""

	// SignedHeaders is always empty in this protocol variant
	SignedHeaders = ""

	// EmptyContentMD5 is the digest placeholder for GET and bodiless requests
	EmptyContentMD5 = "{}"
)

// ================================================================================
// Response Codes
// ================================================================================

const (
	// CodeSuccess marks a successful envelope
	CodeSuccess = 0

	// CodeTokenInvalid is returned when the bearer token is invalid or expired
	CodeTokenInvalid = 40001

	// CodeTokenExpired is returned by newer gateways for expired tokens
	CodeTokenExpired = 42001

	// UnknownErrorMessage replaces an empty message on a failing envelope
	UnknownErrorMessage = "Unknown"
)

// ================================================================================
// Endpoints
// ================================================================================

const (
	// PathAccessToken issues bearer tokens for an app id
	PathAccessToken = "/v1/oauth2/access_token"

	// PathCreateByTemplate creates a file from a template
	PathCreateByTemplate = "/v1/files/createByTemplate"

	// PathSignFlowSigners lists the signers of a flow, formatted with the flow id
	PathSignFlowSigners = "/v1/signflows/%s/signers"

	// PathSignFlowVoucher fetches the evidence voucher of a flow, formatted with the flow id
	PathSignFlowVoucher = "/api/v2/signflows/%s/getVoucher"

	// GrantTypeClientCredentials is the only grant the token endpoint accepts
	GrantTypeClientCredentials = "client_credentials"
)

// ================================================================================
// Defaults
// ================================================================================

const (
	// DefaultMaxAttempts bounds the number of token-refresh retries per call
	DefaultMaxAttempts = 2

	// DefaultRequestTimeout is the transport timeout
	DefaultRequestTimeout = 30 * time.Second

	// DefaultTokenRefreshSkew expires cached tokens early
	DefaultTokenRefreshSkew = 5 * time.Minute

	// DefaultTokenTTL is used when the token endpoint omits an expiry
	DefaultTokenTTL = 2 * time.Hour

	// DefaultTokenKeyPrefix namespaces tokens in the shared store
	DefaultTokenKeyPrefix = "esign:token:"

	// MaxResponseBodyBytes caps how much of a response body is read
	MaxResponseBodyBytes = 16 << 20

	// MaxRequestBodyBytes caps the request body the sandbox accepts
	MaxRequestBodyBytes = 16 << 20

	// LogBodyLimit caps how much of a body is written to debug logs
	LogBodyLimit = 4096
)

// SecretSource selects where the app secret is read from
type SecretSource string

const (
	// SecretSourceConfig reads the secret from configuration
	SecretSourceConfig SecretSource = "config"

	// SecretSourceVault reads the secret from a Vault KV v2 mount
	SecretSourceVault SecretSource = "vault"
)

// TokenStoreKind selects the shared token store
type TokenStoreKind string

const (
	// TokenStoreMemory keeps tokens in the process only
	TokenStoreMemory TokenStoreKind = "memory"

	// TokenStoreRedis shares tokens across processes through Redis
	TokenStoreRedis TokenStoreKind = "redis"
)

// ================================================================================
// Error Codes
// ================================================================================

// ErrorCode classifies client-side failures
type ErrorCode string

const (
	ErrCodeTransport      ErrorCode = "transport_error"
	ErrCodeDomain         ErrorCode = "domain_error"
	ErrCodeEncoding       ErrorCode = "encoding_error"
	ErrCodeDecode         ErrorCode = "decode_error"
	ErrCodeToken          ErrorCode = "token_error"
	ErrCodeConfig         ErrorCode = "config_error"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeSecret         ErrorCode = "secret_error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyAppID is the key for the authenticated app id in sandbox handlers
	ContextKeyAppID ContextKey = "app_id"
)
