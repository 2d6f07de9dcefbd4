package chat

import (
	"context"
	"sync"
)

// Subscription delivers one streaming reply. Deltas arrive in order on
// Deltas; the channel closes when the reply ends.
type Subscription struct {
	deltas chan string
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	reply string
	err   error
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{
		deltas: make(chan string, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Deltas returns the ordered stream of reply fragments.
func (s *Subscription) Deltas() <-chan string {
	return s.deltas
}

// Cancel stops the reply early. Text already received stays in the transcript.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Done is closed once the reply has ended and the transcript is final.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the reply ends and returns its error. Fragments not yet
// read from Deltas are discarded.
func (s *Subscription) Wait() error {
	for range s.deltas {
	}
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Reply returns the text received so far.
func (s *Subscription) Reply() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply
}

// emit records and forwards a fragment. It gives up when ctx ends so an
// abandoned subscriber cannot stall the provider.
func (s *Subscription) emit(ctx context.Context, delta string) {
	s.mu.Lock()
	s.reply += delta
	s.mu.Unlock()

	select {
	case s.deltas <- delta:
	case <-ctx.Done():
	}
}

func (s *Subscription) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.deltas)
	close(s.done)
	s.cancel()
}
