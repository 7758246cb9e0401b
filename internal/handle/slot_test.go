package handle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/pipeline"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
	"github.com/nupi-ai/plugin-suno-core/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPipeline struct {
	name   string
	closes atomic.Int32
	calls  atomic.Int32
}

func (p *countingPipeline) ProcessAudio(ctx context.Context, chunk audio.Chunk) (pipeline.Translation, error) {
	if p.closes.Load() > 0 {
		return pipeline.Translation{}, errors.New("used after close")
	}
	p.calls.Add(1)
	return pipeline.Translation{Original: p.name, Translated: p.name}, nil
}

func (p *countingPipeline) Close() error {
	p.closes.Add(1)
	return nil
}

func newTestSlot() (*Slot, *telemetry.Recorder) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := telemetry.NewRecorder(logger)
	return NewSlot(logger, recorder), recorder
}

func TestAcquireEmptySlot(t *testing.T) {
	slot, _ := newTestSlot()
	assert.Equal(t, Uninitialized, slot.State())

	lease, err := slot.Acquire()
	assert.Nil(t, lease)
	assert.ErrorIs(t, err, status.ErrNotInitialized)
}

func TestInstallAcquireRelease(t *testing.T) {
	slot, recorder := newTestSlot()
	p := &countingPipeline{name: "first"}

	id := slot.Install(p)
	assert.NotEmpty(t, id)
	assert.Equal(t, Ready, slot.State())

	lease, err := slot.Acquire()
	require.NoError(t, err)
	assert.Equal(t, id, lease.ID())
	assert.Same(t, p, lease.Pipeline())
	lease.Release()
	lease.Release()

	assert.Zero(t, p.closes.Load(), "slot still holds a reference")

	slot.Clear()
	assert.Equal(t, Uninitialized, slot.State())
	assert.EqualValues(t, 1, p.closes.Load())

	slot.Clear()
	assert.EqualValues(t, 1, p.closes.Load())

	snapshot := recorder.Snapshot()
	assert.EqualValues(t, 1, snapshot.Installs)
	assert.EqualValues(t, 1, snapshot.Closes)
}

func TestClearWaitsForOutstandingLease(t *testing.T) {
	slot, _ := newTestSlot()
	p := &countingPipeline{name: "held"}
	slot.Install(p)

	lease, err := slot.Acquire()
	require.NoError(t, err)

	slot.Clear()
	assert.Zero(t, p.closes.Load(), "lease keeps the capability alive")

	_, err = slot.Acquire()
	assert.ErrorIs(t, err, status.ErrNotInitialized)

	got, err := lease.Pipeline().ProcessAudio(context.Background(), audio.Chunk{})
	require.NoError(t, err)
	assert.Equal(t, "held", got.Original)

	lease.Release()
	assert.EqualValues(t, 1, p.closes.Load())
}

func TestInstallReplacesCapability(t *testing.T) {
	slot, _ := newTestSlot()
	old := &countingPipeline{name: "old"}
	next := &countingPipeline{name: "new"}

	oldID := slot.Install(old)
	inFlight, err := slot.Acquire()
	require.NoError(t, err)

	newID := slot.Install(next)
	assert.NotEqual(t, oldID, newID)
	assert.Zero(t, old.closes.Load())

	fresh, err := slot.Acquire()
	require.NoError(t, err)
	assert.Same(t, next, fresh.Pipeline())
	fresh.Release()

	assert.Same(t, old, inFlight.Pipeline())
	inFlight.Release()
	assert.EqualValues(t, 1, old.closes.Load())
	assert.Zero(t, next.closes.Load())

	slot.Clear()
	assert.EqualValues(t, 1, next.closes.Load())
}

func TestCreate(t *testing.T) {
	slot, _ := newTestSlot()
	first := &countingPipeline{name: "first"}
	opts := pipeline.Options{WhisperModelPath: "w", TranslationModelPath: "g", SourceLang: "en", TargetLang: "fr"}

	id, err := slot.Create(context.Background(), func(ctx context.Context, got pipeline.Options) (pipeline.Pipeline, error) {
		assert.Equal(t, opts, got)
		return first, nil
	}, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = slot.Create(context.Background(), func(context.Context, pipeline.Options) (pipeline.Pipeline, error) {
		return nil, errors.New("corrupt model")
	}, opts)
	assert.ErrorIs(t, err, status.ErrModelLoad)
	assert.ErrorContains(t, err, "corrupt model")

	_, err = slot.Create(context.Background(), func(context.Context, pipeline.Options) (pipeline.Pipeline, error) {
		return nil, fmt.Errorf("bad language: %w", status.ErrInvalidInput)
	}, opts)
	assert.ErrorIs(t, err, status.ErrInvalidInput)
	assert.NotErrorIs(t, err, status.ErrModelLoad)

	_, err = slot.Create(context.Background(), func(context.Context, pipeline.Options) (pipeline.Pipeline, error) {
		return nil, nil
	}, opts)
	assert.ErrorIs(t, err, status.ErrModelLoad)

	_, err = slot.Create(context.Background(), nil, opts)
	assert.ErrorIs(t, err, status.ErrModelLoad)

	lease, err := slot.Acquire()
	require.NoError(t, err)
	assert.Same(t, first, lease.Pipeline(), "failed creates keep the previous capability")
	lease.Release()
	slot.Clear()
}

func TestConcurrentAcquireInstallClear(t *testing.T) {
	slot, recorder := newTestSlot()
	var created []*countingPipeline
	for i := 0; i < 16; i++ {
		created = append(created, &countingPipeline{name: fmt.Sprintf("p%d", i)})
	}
	slot.Install(created[0])

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 500; i++ {
				lease, err := slot.Acquire()
				if errors.Is(err, status.ErrNotInitialized) {
					continue
				}
				if err != nil {
					return err
				}
				_, err = lease.Pipeline().ProcessAudio(context.Background(), audio.Chunk{})
				lease.Release()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for i, p := range created[1:] {
			slot.Install(p)
			if i%3 == 0 {
				slot.Clear()
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	slot.Clear()
	for _, p := range created {
		assert.EqualValues(t, 1, p.closes.Load(), "pipeline %s closed exactly once", p.name)
	}
	snapshot := recorder.Snapshot()
	assert.Equal(t, snapshot.Installs, snapshot.Closes)
}
