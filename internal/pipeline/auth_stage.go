package pipeline

import (
	"context"
	"time"

	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
)

// AuthStage signs a copy of the pending request with a fresh timestamp. It never
// contacts the token endpoint.
type AuthStage struct {
	tokens service.TokenSource
	now    func() time.Time
}

// NewAuthStage creates the signing stage.
func NewAuthStage(tokens service.TokenSource, now func() time.Time) *AuthStage {
	if now == nil {
		now = time.Now
	}
	return &AuthStage{tokens: tokens, now: now}
}

func (s *AuthStage) Name() string { return "auth" }

func (s *AuthStage) Before(_ context.Context, call *Call) error {
	out := call.Pending.Clone()
	crypto.SignRequest(out, s.tokens.AppID(), s.tokens.Secret(), s.now())
	call.Outgoing = out
	return nil
}

func (s *AuthStage) After(context.Context, *Call) error { return nil }
