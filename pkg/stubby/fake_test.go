package stubby

import (
	"context"
	"sync"
)

// fakeServer records lifecycle calls.
type fakeServer struct {
	mu       sync.Mutex
	starts   int
	stops    int
	joins    int
	startErr error
	stopErr  error
	joinErr  error
	handle   Handle
}

func (s *fakeServer) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	return s.startErr
}

func (s *fakeServer) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return s.stopErr
}

func (s *fakeServer) Join(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joins++
	return s.joinErr
}

func (s *fakeServer) Handle() Handle {
	return s.handle
}

func (s *fakeServer) counts() (starts, stops, joins int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.joins
}

// fakeFactory hands out a single fakeServer.
type fakeFactory struct {
	server       *fakeServer
	constructErr error
	attachErr    error

	constructs int
	stubsFile  string
	args       Arguments
	stubs      int
	attached   Handle
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{server: &fakeServer{handle: Handle{Backend: "fake", HTTPPort: 8887}}}
}

func (f *fakeFactory) Construct(_ context.Context, stubsFile string, args Arguments, preflight *Preflight) (Server, error) {
	f.constructs++
	f.stubsFile = stubsFile
	f.args = args
	n, err := preflight.Wait()
	if err != nil {
		return nil, err
	}
	f.stubs = n
	if f.constructErr != nil {
		return nil, f.constructErr
	}
	return f.server, nil
}

func (f *fakeFactory) Attach(_ context.Context, h Handle) (Server, error) {
	f.attached = h
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return f.server, nil
}
