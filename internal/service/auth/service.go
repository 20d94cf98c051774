package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/auth"
	"github.com/heartmarshall/stock-ledger/internal/config"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// userRepo defines the user lookup needed by the auth service.
type userRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// sessionStore defines the session storage needed by the auth service.
type sessionStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string, ttl time.Duration) error
	RemoveItem(ctx context.Context, key string) error
}

// tokenManager defines the token operations needed by the auth service.
type tokenManager interface {
	GenerateToken(userID, role, sessionID string) (string, error)
	ValidateToken(token string) (*auth.Claims, error)
}

// Service implements credential matching and session handling.
type Service struct {
	log      *slog.Logger
	users    userRepo
	sessions sessionStore
	tokens   tokenManager
	cfg      config.SessionConfig
}

// NewService creates a new auth service instance.
func NewService(
	logger *slog.Logger,
	users userRepo,
	sessions sessionStore,
	tokens tokenManager,
	cfg config.SessionConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "auth"),
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
	}
}

func (s *Service) sessionKey(sessionID string) string {
	return s.cfg.KeyPrefix + ":" + sessionID
}
