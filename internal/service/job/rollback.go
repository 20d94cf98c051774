package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
	"github.com/heartmarshall/stock-ledger/internal/domain"
)

// RollbackResult describes a completed rollback. Warning is set when some
// products of the job no longer exist.
type RollbackResult struct {
	Job               *domain.Job
	Reverted          []string
	Warning           *domain.PartialRollbackWarning
	AlreadyRolledBack bool
}

// LastJob returns the most recent job. Equal timestamps resolve to the one
// stored later.
func (s *Service) LastJob(ctx context.Context) (*domain.Job, error) {
	list, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("job: %w", domain.ErrNotFound)
	}
	last := list[0]
	for _, j := range list[1:] {
		if j.Timestamp >= last.Timestamp {
			last = j
		}
	}
	return &last, nil
}

// Rollback reverts every detail of the job, strips the job's session entries
// from each product's history and deletes the job, all in one commit. A job
// that is already gone is reported through AlreadyRolledBack.
func (s *Service) Rollback(ctx context.Context, jobID string) (*RollbackResult, error) {
	if jobID == "" {
		return nil, domain.NewValidationError("job_id", "required")
	}

	res := &RollbackResult{}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		j, err := s.jobs.GetForUpdate(ctx, jobID)
		if errors.Is(err, domain.ErrNotFound) {
			res.AlreadyRolledBack = true
			return nil
		}
		if err != nil {
			return err
		}
		res.Job = j

		found := make(map[string]*domain.Product)
		var missing []string
		for _, id := range j.ProductIDs() {
			p, err := s.products.GetForUpdate(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				missing = append(missing, id)
				continue
			}
			if err != nil {
				return err
			}
			found[id] = p
		}

		for i := len(j.Details) - 1; i >= 0; i-- {
			d := j.Details[i]
			if p, ok := found[d.ProductID]; ok {
				p.Quantity = domain.ClampQuantity(p.Quantity.Sub(d.Delta))
			}
		}

		var stages []func(b *docstore.Batch) error
		for _, id := range j.ProductIDs() {
			p, ok := found[id]
			if !ok {
				continue
			}
			history, _ := domain.WithoutSession(p.History, j.SessionID)
			patch := domain.ProductPatch{Quantity: &p.Quantity, History: history}
			stages = append(stages, func(b *docstore.Batch) error {
				return s.products.StageUpdate(b, id, patch)
			})
			res.Reverted = append(res.Reverted, id)
		}
		stages = append(stages, func(b *docstore.Batch) error {
			s.jobs.StageDelete(b, jobID)
			return nil
		})

		if err := s.commitStaged(ctx, stages); err != nil {
			return err
		}
		if len(missing) > 0 {
			res.Warning = &domain.PartialRollbackWarning{MissingProductIDs: missing}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "rollback job", Err: err}
	}

	if res.AlreadyRolledBack {
		s.log.InfoContext(ctx, "job already rolled back", slog.String("job_id", jobID))
		return res, nil
	}

	attrs := []any{
		slog.String("job_id", jobID),
		slog.String("session_id", res.Job.SessionID),
		slog.Int("products", len(res.Reverted)),
	}
	if res.Warning != nil {
		s.log.WarnContext(ctx, "job rolled back partially", append(attrs, slog.Any("missing", res.Warning.MissingProductIDs))...)
	} else {
		s.log.InfoContext(ctx, "job rolled back", attrs...)
	}
	return res, nil
}

// commitStaged splits the staged writes into batches no larger than the
// store allows. The caller's transaction makes them one unit.
func (s *Service) commitStaged(ctx context.Context, stages []func(b *docstore.Batch) error) error {
	size := s.store.MaxBatchOps()
	if size <= 0 {
		size = docstore.DefaultMaxBatchOps
	}
	for _, r := range docstore.Chunk(len(stages), size) {
		b := docstore.NewBatch()
		for _, stage := range stages[r[0]:r[1]] {
			if err := stage(b); err != nil {
				return err
			}
		}
		if err := s.store.Commit(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
