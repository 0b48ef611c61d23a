package loader

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/config"
)

// Viewer drives load sessions against one Display. Starting a new
// session supersedes the previous one: its context is cancelled and its
// token stops matching, so a late fetch can never clobber the newer
// session's displayed content.
type Viewer struct {
	fetcher Fetcher
	display Display

	fetchTimeout time.Duration
	swapDelay    time.Duration

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
}

func NewViewer(fetcher Fetcher, display Display) *Viewer {
	return &Viewer{
		fetcher:      fetcher,
		display:      display,
		fetchTimeout: config.FetchTimeout(),
		swapDelay:    config.LevelSwapDelay(),
	}
}

// Session is one progressive display attempt over a fixed ordered
// location list. It owns no persistent state and is discarded after
// Complete.
type Session struct {
	viewer    *Viewer
	token     uint64
	ctx       context.Context
	locations []string
	events    Events
	started   time.Time

	mu      sync.Mutex
	states  []State
	highest int

	done chan struct{}
}

// Begin supersedes any running session and starts loading locations in
// ascending fidelity order on a new goroutine. The locations slice must
// already be ordered by the producer; the session never reorders it.
func (v *Viewer) Begin(ctx context.Context, locations []string, events Events) (*Session, error) {
	if len(locations) == 0 {
		return nil, errors.New("Progressive load needs at least one location")
	}
	if events == nil {
		events = NopEvents{}
	}

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.token++
	s := &Session{
		viewer:    v,
		token:     v.token,
		ctx:       ctx,
		locations: locations,
		events:    events,
		started:   time.Now(),
		states:    make([]State, len(locations)),
		highest:   -1,
		done:      make(chan struct{}),
	}
	v.mu.Unlock()

	for i := range s.states {
		s.states[i] = StatePending
	}

	go s.run()
	return s, nil
}

// Done closes after Complete fired or the session was superseded.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// States snapshots the per-index states.
func (s *Session) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.states))
	copy(out, s.states)
	return out
}

// HighestDisplayed is the largest index shown so far, -1 for none.
func (s *Session) HighestDisplayed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highest
}

func (s *Session) setState(index int, state State) {
	s.mu.Lock()
	s.states[index] = state
	s.mu.Unlock()
	s.events.LevelState(index, state)
}

func (s *Session) run() {
	defer close(s.done)

	for i, location := range s.locations {
		if s.ctx.Err() != nil {
			return // superseded or cancelled, remaining levels stay pending
		}

		s.setState(i, StateLoading)

		if err := s.loadLevel(i, location); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			// one level failing is not fatal: the previously displayed
			// lower level stays visible and the loop moves on
			log.Printf("[loader] level %d (%s) failed: %v", i, location, err)
			s.setState(i, StateFailed)
		} else {
			s.mu.Lock()
			s.highest = i
			s.mu.Unlock()
			s.setState(i, StateDisplayed)
			if i == 0 {
				s.events.FirstView(time.Since(s.started))
			}
		}

		if i < len(s.locations)-1 {
			// fixed pause so the quality swap is perceptible
			select {
			case <-time.After(s.viewer.swapDelay):
			case <-s.ctx.Done():
				return
			}
		}
	}

	s.events.Complete(time.Since(s.started))
}

func (s *Session) loadLevel(index int, location string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.viewer.fetchTimeout)
	defer cancel()

	content, err := s.viewer.fetcher.Fetch(ctx, location)
	if err != nil {
		return errors.Wrapf(err, "Fetch of %q failed", location)
	}
	defer content.Close()

	// a superseded session must never touch the display: the token is
	// compared and the swap performed under the viewer lock
	v := s.viewer
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.token != s.token {
		return errors.Errorf("Session superseded before level %d could display", index)
	}
	if err := v.display.Show(index, location, content); err != nil {
		return errors.Wrapf(err, "Display of %q failed", location)
	}
	return nil
}
