package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// Logout removes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return domain.ErrUnauthorized
	}

	if err := s.sessions.RemoveItem(ctx, s.sessionKey(claims.SessionID)); err != nil {
		return fmt.Errorf("auth.Logout remove session: %w", err)
	}

	s.log.InfoContext(ctx, "user logged out", slog.String("user_id", claims.UserID))
	return nil
}
