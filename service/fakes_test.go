package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/tieubaoca/foodchat-be/types"
)

// step is one upstream event: a fragment, or an error when err is set.
type step struct {
	fragment string
	err      error
}

type fakeStream struct {
	ctx    context.Context
	steps  []step
	block  bool
	mu     sync.Mutex
	closed int
}

func (s *fakeStream) Recv() (string, error) {
	if len(s.steps) > 0 {
		next := s.steps[0]
		s.steps = s.steps[1:]
		return next.fragment, next.err
	}
	if s.block {
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeAI struct {
	steps    []step
	block    bool
	setupErr error

	mu       sync.Mutex
	calls    int
	received [][]types.Message
	streams  []*fakeStream
}

func (f *fakeAI) ChatStream(ctx context.Context, messages []types.Message) (ChatStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.received = append(f.received, messages)
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	stream := &fakeStream{ctx: ctx, steps: append([]step(nil), f.steps...), block: f.block}
	f.streams = append(f.streams, stream)
	return stream, nil
}

type recordingSink struct {
	opened   int
	writes   []string
	openErr  error
	failAt   int // 1-based write index that fails; 0 never fails
	writeErr error
}

func (s *recordingSink) Open() error {
	s.opened++
	return s.openErr
}

func (s *recordingSink) WriteFragment(fragment string) error {
	if s.failAt > 0 && len(s.writes)+1 == s.failAt {
		return s.writeErr
	}
	s.writes = append(s.writes, fragment)
	return nil
}

func (s *recordingSink) body() string {
	return strings.Join(s.writes, "")
}

var errBoom = errors.New("boom")
