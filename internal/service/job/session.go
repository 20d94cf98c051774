package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/domain"
	"github.com/heartmarshall/stock-ledger/pkg/ctxutil"
)

// Session is an open usage session. Every mutation made through it carries
// its ID so the resulting job can be rolled back as one unit.
type Session struct {
	ID         string             `json:"id"`
	UserID     string             `json:"-"`
	User       string             `json:"user"`
	Role       domain.Role        `json:"role"`
	StartedAt  time.Time          `json:"startedAt"`
	LastActive time.Time          `json:"lastActive"`
	Details    []domain.JobDetail `json:"details"`

	inflight int
}

func (s *Session) clone() *Session {
	out := *s
	out.Details = append([]domain.JobDetail(nil), s.Details...)
	return &out
}

// StartSession opens a session for the acting user.
func (s *Service) StartSession(ctx context.Context) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:         fmt.Sprintf("job_%d_%s", now.UnixMilli(), s.token()),
		User:       domain.UnknownUser,
		Role:       domain.RoleUser,
		StartedAt:  now,
		LastActive: now,
	}
	if a, ok := ctxutil.ActorFromCtx(ctx); ok {
		sess.UserID = a.UserID
		sess.User = ctxutil.ActorNameFromCtx(ctx, domain.UnknownUser)
		if r := domain.Role(a.Role); r.IsValid() {
			sess.Role = r
		}
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session started",
		slog.String("session_id", sess.ID),
		slog.String("user", sess.User),
	)
	return sess.clone(), nil
}

// GetSession returns a copy of an open session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// lookup finds an open session owned by the acting user. Caller holds s.mu.
func (s *Service) lookup(ctx context.Context, sessionID string) (*Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if a, ok := ctxutil.ActorFromCtx(ctx); ok && sess.UserID != "" && a.UserID != sess.UserID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrForbidden)
	}
	return sess, nil
}

// begin marks a mutation in flight on the session. Until the matching end the
// session cannot be finished, cancelled or swept, so its details are never
// lost to a concurrent close.
func (s *Service) begin(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.inflight++
	return nil
}

// end records the details of a finished mutation and releases it.
func (s *Service) end(sessionID string, details []domain.JobDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.Details = append(sess.Details, details...)
		if len(details) > 0 {
			sess.LastActive = s.now()
		}
		sess.inflight--
	}
	s.idle.Broadcast()
}

// take removes the session from the registry once no mutation is in flight.
func (s *Service) take(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		sess, err := s.lookup(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess.inflight == 0 {
			delete(s.sessions, sessionID)
			return sess, nil
		}
		s.idle.Wait()
	}
}

// putBack re-registers a session whose job could not be persisted.
func (s *Service) putBack(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		s.sessions[sess.ID] = sess
	}
}
