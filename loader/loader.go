// Package loader implements progressive multi-resolution delivery:
// given an ordered list of variant locations it fetches and displays
// them one by one, lowest fidelity first, so something is visible as
// early as possible while the view converges on full detail.
package loader

import (
	"context"
	"io"
	"time"
)

type State string

const (
	StatePending   State = "pending"
	StateLoading   State = "loading"
	StateDisplayed State = "displayed"
	StateFailed    State = "failed"
)

// Fetcher retrieves one variant's content. Fetch must honor ctx
// cancellation and deadline.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (io.ReadCloser, error)
}

// Display owns the currently shown content. Show replaces whatever was
// displayed before; a decode error counts as a failure of that level.
type Display interface {
	Show(index int, location string, content io.Reader) error
}

// Events receives the three observable signals of a session. All
// callbacks run on the session goroutine, one at a time.
type Events interface {
	// LevelState fires on every per-index transition
	// (pending -> loading -> displayed|failed).
	LevelState(index int, state State)
	// FirstView fires exactly once, only when index 0 displays.
	FirstView(elapsed time.Duration)
	// Complete fires once after the last index resolves, however many
	// levels failed on the way.
	Complete(elapsed time.Duration)
}

// NopEvents is for callers that only care about the final display.
type NopEvents struct{}

func (NopEvents) LevelState(int, State)   {}
func (NopEvents) FirstView(time.Duration) {}
func (NopEvents) Complete(time.Duration)  {}
