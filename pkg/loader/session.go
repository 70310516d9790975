package loader

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/filter"
)

// Request is one submitted load.
type Request struct {
	ID      string
	Keyword string
	Filters filter.Filters

	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result *Result
	err    error
}

// Done is closed when the request has finished, successfully or not.
func (r *Request) Done() <-chan struct{} { return r.done }

// Result blocks until the request finishes. A request replaced by a later
// submission reports an ErrCodeSuperseded error.
func (r *Request) Result() (*Result, error) {
	<-r.done
	return r.result, r.err
}

// Cancel aborts the request. Cancelling a finished request has no effect.
func (r *Request) Cancel() { r.cancel() }

// State is a snapshot of a session.
type State struct {
	Keyword string
	Loading bool
	Result  *Result // last applied result; kept while a newer load runs
	Err     error   // error of the most recent completed load
}

// Session runs at most one effective load at a time for an interactive
// surface. Only the most recently submitted request may change its state.
type Session struct {
	loader *Loader
	onLoad func(*Result)

	applyMu sync.Mutex // serializes state application and onLoad

	mu      sync.Mutex
	gen     uint64
	current *Request
	state   State
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOnLoad registers a callback receiving every applied result.
// It runs on the loading goroutine.
func WithOnLoad(fn func(*Result)) SessionOption {
	return func(s *Session) { s.onLoad = fn }
}

// NewSession creates a session backed by l.
func NewSession(l *Loader, opts ...SessionOption) *Session {
	s := &Session{loader: l}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts loading keyword with the given filters and cancels the
// previous request. An empty keyword is ignored and returns nil.
func (s *Session) Submit(ctx context.Context, keyword string, f filter.Filters) *Request {
	if keyword == "" {
		return nil
	}

	reqCtx, cancel := context.WithCancel(ctx)
	req := &Request{
		ID:      uuid.NewString(),
		Keyword: keyword,
		Filters: f,
		ctx:     reqCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	if s.current != nil {
		s.current.cancel()
	}
	s.gen++
	req.gen = s.gen
	s.current = req
	s.state.Keyword = keyword
	s.state.Loading = true
	s.state.Err = nil
	s.mu.Unlock()

	s.loader.logger.Debug("submitted load", "request", req.ID, "keyword", keyword, "filters", f)
	go s.run(req)
	return req
}

func (s *Session) run(req *Request) {
	defer close(req.done)
	defer req.cancel()

	res, err := s.loader.Load(req.ctx, req.Keyword, req.Filters)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if req.gen != s.gen {
		s.mu.Unlock()
		s.loader.logger.Debug("discarded stale load", "request", req.ID, "keyword", req.Keyword)
		req.err = errors.New(errors.ErrCodeSuperseded, "load of %q superseded", req.Keyword)
		return
	}
	s.state.Loading = false
	if err != nil {
		if !errors.Is(err, errors.ErrCodeSuperseded) {
			s.state.Err = err
		}
	} else {
		s.state.Result = res
	}
	s.mu.Unlock()

	req.result, req.err = res, err
	if err == nil && s.onLoad != nil {
		s.onLoad(res)
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close cancels the in-flight request. Its result is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
	s.gen++
	s.current = nil
	s.state.Loading = false
}
