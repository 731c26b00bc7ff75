// Package env carries the per-run context threaded through extraction and
// export: the logger, the progress reporter and the run identifier.
package env

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Env is constructed once per run and passed explicitly to every stage.
type Env struct {
	Logger   *slog.Logger
	Progress *Progress
	RunID    string
}

// New returns an Env with a fresh run id. A nil logger discards output.
func New(logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := ulid.Make().String()
	return &Env{
		Logger:   logger.With("run_id", id),
		Progress: NewProgress(0),
		RunID:    id,
	}
}

// Progress is an additive unit counter. Children contribute their
// fraction to the parent once attached.
type Progress struct {
	mu        sync.Mutex
	total     int64
	completed int64
	children  []childProgress
	observer  func(float64)
}

type childProgress struct {
	p      *Progress
	weight int64
}

// NewProgress returns a counter expecting total units.
func NewProgress(total int64) *Progress {
	return &Progress{total: total}
}

// Observe registers a callback that receives the overall fraction after
// every change. Only the root counter's observer is called.
func (p *Progress) Observe(fn func(float64)) {
	p.mu.Lock()
	p.observer = fn
	p.mu.Unlock()
}

// AddUnits grows the expected unit count.
func (p *Progress) AddUnits(n int64) {
	p.mu.Lock()
	p.total += n
	p.mu.Unlock()
	p.notify()
}

// AddChild attaches a child counter of total units that accounts for
// weight units of p.
func (p *Progress) AddChild(total, weight int64) *Progress {
	c := &Progress{total: total}
	c.observer = func(float64) { p.notify() }

	p.mu.Lock()
	p.total += weight
	p.children = append(p.children, childProgress{p: c, weight: weight})
	p.mu.Unlock()
	return c
}

// Advance marks n units as completed.
func (p *Progress) Advance(n int64) {
	p.mu.Lock()
	p.completed += n
	if p.completed > p.total {
		p.completed = p.total
	}
	p.mu.Unlock()
	p.notify()
}

// Fraction returns completion in [0, 1].
func (p *Progress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == 0 {
		return 0
	}
	done := float64(p.completed)
	for _, c := range p.children {
		done += c.p.Fraction() * float64(c.weight)
	}
	f := done / float64(p.total)
	if f > 1 {
		f = 1
	}
	return f
}

func (p *Progress) notify() {
	p.mu.Lock()
	fn := p.observer
	p.mu.Unlock()
	if fn != nil {
		fn(p.Fraction())
	}
}
