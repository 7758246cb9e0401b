// Package handle owns the process-wide pipeline capability. Readers lease the
// current capability without taking a lock; a replaced or cleared capability
// is closed by whoever returns its last reference.
package handle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-suno-core/internal/pipeline"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
	"github.com/nupi-ai/plugin-suno-core/internal/telemetry"
)

// State describes what Acquire would observe.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

type capability struct {
	id       string
	pipeline pipeline.Pipeline
	// refs counts the slot's reference plus one per outstanding lease.
	refs  atomic.Int64
	close sync.Once
}

func (c *capability) tryRetain() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Slot holds at most one capability.
type Slot struct {
	log      *slog.Logger
	recorder *telemetry.Recorder
	current  atomic.Pointer[capability]
}

// NewSlot returns an empty slot.
func NewSlot(logger *slog.Logger, recorder *telemetry.Recorder) *Slot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slot{
		log:      logger.With("component", "handle.Slot"),
		recorder: recorder,
	}
}

// Create builds a pipeline with factory and installs it. On failure the slot
// keeps its previous capability and the error wraps status.ErrModelLoad
// (or status.ErrInvalidInput when the options were rejected).
func (s *Slot) Create(ctx context.Context, factory pipeline.Factory, opts pipeline.Options) (string, error) {
	if factory == nil {
		return "", fmt.Errorf("handle: nil pipeline factory: %w", status.ErrModelLoad)
	}
	p, err := factory(ctx, opts)
	if err != nil {
		if errors.Is(err, status.ErrInvalidInput) {
			return "", fmt.Errorf("handle: create pipeline: %w", err)
		}
		return "", fmt.Errorf("handle: create pipeline: %w: %w", status.ErrModelLoad, err)
	}
	if p == nil {
		return "", fmt.Errorf("handle: factory returned no pipeline: %w", status.ErrModelLoad)
	}
	return s.Install(p), nil
}

// Install makes p the current capability and returns its ID. The previous
// capability, if any, is closed once its last lease is released.
func (s *Slot) Install(p pipeline.Pipeline) string {
	next := &capability{id: uuid.NewString(), pipeline: p}
	next.refs.Store(1)

	prev := s.current.Swap(next)
	s.recorder.RecordInstall()
	s.log.Info("pipeline installed", "capability_id", next.id)
	if prev != nil {
		s.log.Info("pipeline replaced", "capability_id", prev.id, "replaced_by", next.id)
		s.release(prev)
	}
	return next.id
}

// Clear empties the slot. Leases already handed out stay valid. Clear on an
// empty slot does nothing.
func (s *Slot) Clear() {
	prev := s.current.Swap(nil)
	if prev == nil {
		return
	}
	s.log.Info("pipeline cleared", "capability_id", prev.id)
	s.release(prev)
}

// State reports whether a capability is installed.
func (s *Slot) State() State {
	if s.current.Load() == nil {
		return Uninitialized
	}
	return Ready
}

// Acquire leases the current capability. It fails with
// status.ErrNotInitialized when the slot is empty.
func (s *Slot) Acquire() (*Lease, error) {
	for {
		c := s.current.Load()
		if c == nil {
			return nil, status.ErrNotInitialized
		}
		// A failed retain means c was retired between Load and here; the
		// slot already points elsewhere.
		if c.tryRetain() {
			return &Lease{slot: s, cap: c}, nil
		}
	}
}

func (s *Slot) release(c *capability) {
	if c.refs.Add(-1) != 0 {
		return
	}
	c.close.Do(func() {
		err := c.pipeline.Close()
		s.recorder.RecordClose(err)
		if err != nil {
			s.log.Warn("pipeline close failed", "capability_id", c.id, "error", err)
			return
		}
		s.log.Info("pipeline closed", "capability_id", c.id)
	})
}

// Lease keeps a capability alive until Release.
type Lease struct {
	slot     *Slot
	cap      *capability
	released atomic.Bool
}

// Pipeline returns the leased pipeline.
func (l *Lease) Pipeline() pipeline.Pipeline { return l.cap.pipeline }

// ID returns the capability ID.
func (l *Lease) ID() string { return l.cap.id }

// Release returns the lease. Calling it more than once is harmless.
func (l *Lease) Release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	l.slot.release(l.cap)
}
