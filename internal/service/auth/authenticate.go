package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// Authenticate resolves a token to the user stored in its session. A valid
// token whose session was removed is rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	raw, err := s.sessions.GetItem(ctx, s.sessionKey(claims.SessionID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth.Authenticate read session: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("auth.Authenticate decode session: %w", err)
	}
	if user.ID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	return &user, nil
}
