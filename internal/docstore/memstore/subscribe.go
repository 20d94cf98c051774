package memstore

import (
	"context"
	"sync"

	"github.com/heartmarshall/stock-ledger/internal/docstore"
)

type subscriber struct {
	signal chan struct{}
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// Subscribe delivers the current contents of coll to onChange immediately
// and again after every committed change. Deliveries for one subscriber are
// sequential and coalesced. The returned function stops the feed and waits
// for an in-flight delivery to finish.
func (s *Store) Subscribe(ctx context.Context, coll string, onChange docstore.ChangeFunc, onError docstore.ErrorFunc) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscriber{
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	s.subMu.Lock()
	if s.subs[coll] == nil {
		s.subs[coll] = make(map[*subscriber]struct{})
	}
	s.subs[coll][sub] = struct{}{}
	s.subMu.Unlock()

	sub.signal <- struct{}{}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.stop:
				return
			case <-sub.signal:
				docs, err := s.GetAll(ctx, coll)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				onChange(docs)
			}
		}
	}()

	unsubscribe := func() {
		sub.once.Do(func() {
			s.subMu.Lock()
			delete(s.subs[coll], sub)
			s.subMu.Unlock()
			close(sub.stop)
		})
		sub.wg.Wait()
	}
	return unsubscribe, nil
}

func (s *Store) notify(coll string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for sub := range s.subs[coll] {
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}
