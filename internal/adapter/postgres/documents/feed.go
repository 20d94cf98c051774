package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
)

// retryDelay is how long the feed waits before reconnecting after an error.
const retryDelay = time.Second

// Subscribe streams full snapshots of coll. A dedicated pool connection
// LISTENs on NotifyChannel; every notification for coll triggers a reload.
// The first snapshot is delivered once the listener is in place, so no
// change committed after Subscribe returns can be missed. The returned
// function stops the feed and releases the connection.
func (s *Store) Subscribe(ctx context.Context, coll string, onChange docstore.ChangeFunc, onError docstore.ErrorFunc) (func(), error) {
	feedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	ready := make(chan error, 1)
	go func() {
		defer close(done)
		s.runFeed(feedCtx, coll, onChange, onError, ready)
	}()

	if err := <-ready; err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("subscribe %s: %w", coll, err)
	}

	return func() {
		cancel()
		<-done
	}, nil
}

func (s *Store) runFeed(ctx context.Context, coll string, onChange docstore.ChangeFunc, onError docstore.ErrorFunc, ready chan<- error) {
	first := true
	for {
		err := s.listen(ctx, coll, onChange, func() {
			if first {
				first = false
				ready <- nil
			}
		})
		if ctx.Err() != nil {
			if first {
				ready <- ctx.Err()
			}
			return
		}
		if first {
			ready <- err
			return
		}

		s.log.WarnContext(ctx, "document feed interrupted",
			slog.String("collection", coll),
			slog.String("error", err.Error()),
		)
		if onError != nil {
			onError(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// listen holds one LISTEN connection until it fails or ctx ends.
func (s *Store) listen(ctx context.Context, coll string, onChange docstore.ChangeFunc, onListening func()) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer func() {
		// The connection returns to the pool; stop receiving on it.
		_, _ = conn.Exec(context.Background(), "UNLISTEN "+NotifyChannel)
	}()

	if err := s.deliver(ctx, coll, onChange); err != nil {
		return err
	}
	onListening()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload != coll {
			continue
		}
		if err := s.deliver(ctx, coll, onChange); err != nil {
			return err
		}
	}
}

func (s *Store) deliver(ctx context.Context, coll string, onChange docstore.ChangeFunc) error {
	docs, err := s.GetAll(ctx, coll)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	onChange(docs)
	return nil
}
