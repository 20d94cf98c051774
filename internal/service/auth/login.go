package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/stock-ledger/internal/auth"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// LoginResult is a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// Login matches username and password against the stored users and opens a
// session. Unknown users and wrong passwords both yield ErrUnauthorized.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth.Login get user: %w", err)
	}
	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, domain.ErrUnauthorized
	}

	public := user.Public()
	payload, err := json.Marshal(public)
	if err != nil {
		return nil, fmt.Errorf("auth.Login encode session: %w", err)
	}

	sessionID := uuid.NewString()
	if err := s.sessions.SetItem(ctx, s.sessionKey(sessionID), string(payload), s.cfg.TTL); err != nil {
		return nil, fmt.Errorf("auth.Login store session: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role.String(), sessionID)
	if err != nil {
		_ = s.sessions.RemoveItem(ctx, s.sessionKey(sessionID))
		return nil, fmt.Errorf("auth.Login issue token: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.String()),
	)
	return &LoginResult{Token: token, ExpiresAt: time.Now().Add(s.cfg.TTL), User: public}, nil
}
