package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// Finish closes the session and persists its job. Returns nil when the
// session logged nothing. On a persistence failure the session stays open so
// the caller can retry.
func (s *Service) Finish(ctx context.Context, sessionID string) (*domain.Job, error) {
	sess, err := s.take(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, sess)
}

// Cancel closes the session. Mutations already applied are still persisted
// as a job so they remain reversible.
func (s *Service) Cancel(ctx context.Context, sessionID string) (*domain.Job, error) {
	sess, err := s.take(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(sess.Details) > 0 {
		s.log.InfoContext(ctx, "cancelled session had mutations, keeping job",
			slog.String("session_id", sessionID),
			slog.Int("details", len(sess.Details)),
		)
	}
	return s.persist(ctx, sess)
}

func (s *Service) persist(ctx context.Context, sess *Session) (*domain.Job, error) {
	if len(sess.Details) == 0 {
		return nil, nil
	}

	j := domain.Job{
		Timestamp: s.now().UnixMilli(),
		User:      sess.User,
		Role:      sess.Role,
		Summary:   make([]string, 0, len(sess.Details)),
		Details:   sess.Details,
		SessionID: sess.ID,
	}
	for _, d := range sess.Details {
		j.Summary = append(j.Summary, d.SummaryLine())
	}

	id, err := s.jobs.Create(ctx, j)
	if err != nil {
		s.putBack(sess)
		if errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "save job", Err: err}
	}
	j.ID = id

	s.log.InfoContext(ctx, "job saved",
		slog.String("job_id", id),
		slog.String("session_id", sess.ID),
		slog.Int("details", len(j.Details)),
	)
	return &j, nil
}

// SweepExpired finishes every session idle longer than the session TTL and
// returns how many were closed.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.sessionTTL)
	n, err := s.closeWhere(ctx, func(sess *Session) bool { return sess.LastActive.Before(cutoff) })
	if n > 0 {
		s.log.InfoContext(ctx, "expired sessions swept", slog.Int("count", n))
	}
	return n, err
}

// FlushAll finishes every open session. Called on shutdown so that applied
// mutations keep a job to roll back.
func (s *Service) FlushAll(ctx context.Context) (int, error) {
	n, err := s.closeWhere(ctx, func(*Session) bool { return true })
	if n > 0 {
		s.log.InfoContext(ctx, "open sessions flushed", slog.Int("count", n))
	}
	return n, err
}

func (s *Service) closeWhere(ctx context.Context, match func(*Session) bool) (int, error) {
	s.mu.Lock()
	var picked []*Session
	for {
		busy := false
		for id, sess := range s.sessions {
			if !match(sess) {
				continue
			}
			if sess.inflight > 0 {
				busy = true
				continue
			}
			picked = append(picked, sess)
			delete(s.sessions, id)
		}
		if !busy {
			break
		}
		s.idle.Wait()
	}
	s.mu.Unlock()

	var errs []error
	for _, sess := range picked {
		if _, err := s.persist(ctx, sess); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return len(picked), errors.Join(errs...)
}
