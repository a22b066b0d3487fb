package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired and ErrTokenInvalid classify bearer tokens that fail verification.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// IssuedToken is a freshly minted bearer token.
type IssuedToken struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// JWTManager mints and verifies the HS256 bearer tokens handed out by the sandbox
// token endpoint. The subject is the app id.
type JWTManager struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewJWTManager creates a JWTManager signing with key.
func NewJWTManager(key, issuer string) *JWTManager {
	return &JWTManager{key: []byte(key), issuer: issuer, now: time.Now}
}

// Issue mints a token for appID valid for ttl.
func (j *JWTManager) Issue(appID string, ttl time.Duration) (*IssuedToken, error) {
	now := j.now()
	jti := uuid.NewString()
	exp := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   appID,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Value: signed, JTI: jti, ExpiresAt: exp}, nil
}

// Verify parses tokenString and returns its claims. Expired tokens map to ErrTokenExpired,
// everything else to ErrTokenInvalid.
func (j *JWTManager) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return j.key, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
