package adapter

import (
	"context"
	"sync"
	"time"
)

const (
	minResubscribeDelay = time.Second
	maxResubscribeDelay = 30 * time.Second
)

// subscription is the [Subscription] handed out by every backend. Closing it
// cancels the context its feed goroutine runs under.
type subscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	owner  *subscriptionSet
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.owner.remove(s)
	})
	return nil
}

// deliver calls onSnapshot unless the subscription was closed. It reports
// whether the feed should keep going.
func (s *subscription) deliver(onSnapshot func(Snapshot), snap Snapshot) bool {
	if s.ctx.Err() != nil {
		return false
	}
	onSnapshot(snap)
	return s.ctx.Err() == nil
}

// wait sleeps for d or until the subscription is closed.
func (s *subscription) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// subscriptionSet tracks the open subscriptions of one store so that
// closing the store closes all of them.
type subscriptionSet struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{subs: make(map[*subscription]struct{})}
}

func (ss *subscriptionSet) add(ctx context.Context) (*subscription, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.closed {
		return nil, ErrSubscriptionClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{ctx: subCtx, cancel: cancel, owner: ss}
	ss.subs[sub] = struct{}{}
	return sub, nil
}

func (ss *subscriptionSet) remove(sub *subscription) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.subs, sub)
}

func (ss *subscriptionSet) closeAll() {
	ss.mu.Lock()
	subs := ss.subs
	ss.subs = make(map[*subscription]struct{})
	ss.closed = true
	ss.mu.Unlock()

	for sub := range subs {
		sub.cancel()
	}
}

func nextDelay(d time.Duration) time.Duration {
	return min(d*2, maxResubscribeDelay)
}
