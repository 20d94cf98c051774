// Package announcement manages notices shown to store managers.
package announcement

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

type announcementRepo interface {
	Get(ctx context.Context, id string) (*domain.Announcement, error)
	List(ctx context.Context) ([]domain.Announcement, error)
	Create(ctx context.Context, a domain.Announcement) (string, error)
	Update(ctx context.Context, id string, message *string, isActive *bool) error
	Delete(ctx context.Context, id string) error
}

type seenStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string, ttl time.Duration) error
}

const seenKeyPrefix = "announcements_seen:"

// Service implements announcement CRUD and per-user acknowledgement.
type Service struct {
	log           *slog.Logger
	announcements announcementRepo
	seen          seenStore
	now           func() time.Time
}

// NewService creates a new announcement service.
func NewService(log *slog.Logger, announcements announcementRepo, seen seenStore) *Service {
	return &Service{
		log:           log.With("service", "announcement"),
		announcements: announcements,
		seen:          seen,
		now:           time.Now,
	}
}

// UpdateInput holds the fields an update may change. Nil fields are kept.
type UpdateInput struct {
	Message  *string
	IsActive *bool
}

func validateMessage(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return domain.NewValidationError("message", "required")
	}
	if len(msg) > 2000 {
		return domain.NewValidationError("message", "max 2000 characters")
	}
	return nil
}

// Create stores a new active announcement.
func (s *Service) Create(ctx context.Context, message string) (*domain.Announcement, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}
	a := domain.Announcement{
		Message:   strings.TrimSpace(message),
		IsActive:  true,
		Timestamp: s.now().UnixMilli(),
	}
	id, err := s.announcements.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("announcement.Create: %w", err)
	}
	a.ID = id

	s.log.InfoContext(ctx, "announcement created", slog.String("announcement_id", id))
	return &a, nil
}

// Update changes the message and/or active flag.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.Announcement, error) {
	if input.Message != nil {
		if err := validateMessage(*input.Message); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(*input.Message)
		input.Message = &trimmed
	}
	if err := s.announcements.Update(ctx, id, input.Message, input.IsActive); err != nil {
		return nil, err
	}
	return s.announcements.Get(ctx, id)
}

// Delete removes an announcement.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.announcements.Get(ctx, id); err != nil {
		return err
	}
	if err := s.announcements.Delete(ctx, id); err != nil {
		return fmt.Errorf("announcement.Delete: %w", err)
	}
	s.log.InfoContext(ctx, "announcement deleted", slog.String("announcement_id", id))
	return nil
}

// List returns every announcement, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Announcement, error) {
	list, err := s.announcements.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b domain.Announcement) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return list, nil
}

// Pending returns the active announcements username has not acknowledged.
// Admins author announcements and never have pending ones.
func (s *Service) Pending(ctx context.Context, username string, role domain.Role) ([]domain.Announcement, error) {
	if role == domain.RoleAdmin {
		return []domain.Announcement{}, nil
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen, err := s.seenIDs(ctx, username)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Announcement, 0, len(list))
	for _, a := range list {
		if a.IsActive && !slices.Contains(seen, a.ID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Acknowledge marks an announcement as seen by username.
func (s *Service) Acknowledge(ctx context.Context, username, id string) error {
	if _, err := s.announcements.Get(ctx, id); err != nil {
		return err
	}
	seen, err := s.seenIDs(ctx, username)
	if err != nil {
		return err
	}
	if slices.Contains(seen, id) {
		return nil
	}

	raw, err := json.Marshal(append(seen, id))
	if err != nil {
		return fmt.Errorf("announcement.Acknowledge encode: %w", err)
	}
	if err := s.seen.SetItem(ctx, seenKeyPrefix+username, string(raw), 0); err != nil {
		return fmt.Errorf("announcement.Acknowledge store: %w", err)
	}
	return nil
}

func (s *Service) seenIDs(ctx context.Context, username string) ([]string, error) {
	raw, err := s.seen.GetItem(ctx, seenKeyPrefix+username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seen announcements: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.WarnContext(ctx, "discarding unreadable seen list", slog.String("username", username))
		return nil, nil
	}
	return ids, nil
}
