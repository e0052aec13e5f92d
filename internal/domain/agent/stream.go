package agent

import (
	"context"
	"io"
	"sync"
)

// runStream hands fragments from the producing goroutine to the consumer without buffering,
// so a consumer that stops reading also stops generation.
type runStream struct {
	fragments chan Fragment
	done      chan struct{}
	cancel    context.CancelFunc
	err       error
	closeOnce sync.Once
}

func newRunStream(cancel context.CancelFunc) *runStream {
	return &runStream{
		fragments: make(chan Fragment),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
}

// emit blocks until the consumer takes the fragment or the run is cancelled.
func (s *runStream) emit(ctx context.Context, fragment Fragment) error {
	select {
	case s.fragments <- fragment:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records the terminal error and releases the consumer. It must be called exactly once.
func (s *runStream) finish(err error) {
	if err == nil {
		err = io.EOF
	}
	s.err = err
	close(s.fragments)
	close(s.done)
	s.cancel()
}

func (s *runStream) Recv() (Fragment, error) {
	fragment, ok := <-s.fragments
	if !ok {
		return Fragment{}, s.err
	}
	return fragment, nil
}

// Close cancels generation and waits for the producer to exit.
func (s *runStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
