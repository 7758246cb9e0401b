// Package boundary implements the operations exported to native callers.
// Every method converts failures, including panics, into a status.Code and
// never lets them unwind into the caller.
package boundary

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
	"unsafe"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/handle"
	"github.com/nupi-ai/plugin-suno-core/internal/handoff"
	"github.com/nupi-ai/plugin-suno-core/internal/moduleinfo"
	"github.com/nupi-ai/plugin-suno-core/internal/pipeline"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
	"github.com/nupi-ai/plugin-suno-core/internal/telemetry"
)

// Result is a translation handed to the caller. Original and Translated are
// NUL-terminated C strings owned by the caller until passed to FreeString.
type Result struct {
	Original   unsafe.Pointer
	Translated unsafe.Pointer
	Confidence float32
}

// API is one boundary instance: a pipeline slot plus the ledger of strings
// it has handed out. The zero value is not usable; construct with New.
type API struct {
	log      *slog.Logger
	factory  pipeline.Factory
	slot     *handle.Slot
	ledger   *handoff.Ledger
	recorder *telemetry.Recorder
	now      func() time.Time
}

// New returns an API that builds pipelines with factory. recorder may be nil.
func New(factory pipeline.Factory, logger *slog.Logger, recorder *telemetry.Recorder) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		log:      logger.With("component", "boundary"),
		factory:  factory,
		slot:     handle.NewSlot(logger, recorder),
		ledger:   handoff.NewLedger(),
		recorder: recorder,
		now:      time.Now,
	}
}

// Init decodes the four caller strings and installs a new pipeline. A
// failure leaves any previously installed pipeline in place.
func (a *API) Init(whisperPath, translationPath, sourceLang, targetLang unsafe.Pointer) (code status.Code) {
	defer a.recoverCode("init", &code)

	fields := [4]struct {
		name string
		ptr  unsafe.Pointer
		out  string
	}{
		{name: "whisper_model_path", ptr: whisperPath},
		{name: "translation_model_path", ptr: translationPath},
		{name: "source_lang", ptr: sourceLang},
		{name: "target_lang", ptr: targetLang},
	}
	for i := range fields {
		s, err := handoff.GoString(fields[i].ptr)
		if err != nil {
			err = fmt.Errorf("%s: %w", fields[i].name, err)
			a.recorder.RecordInit(err, 0)
			a.log.Error("init rejected", "error", err)
			return status.FromError(err)
		}
		fields[i].out = s
	}
	return a.InitStrings(fields[0].out, fields[1].out, fields[2].out, fields[3].out)
}

// InitStrings is Init for Go callers.
func (a *API) InitStrings(whisperPath, translationPath, sourceLang, targetLang string) (code status.Code) {
	defer a.recoverCode("init", &code)

	opts := pipeline.Options{
		WhisperModelPath:     whisperPath,
		TranslationModelPath: translationPath,
		SourceLang:           sourceLang,
		TargetLang:           targetLang,
	}
	started := time.Now()
	id, err := a.slot.Create(context.Background(), a.factory, opts)
	a.recorder.RecordInit(err, time.Since(started))
	if err != nil {
		a.log.Error("init failed",
			"error", err,
			"kind", status.Kind(err),
			"whisper_model_path", whisperPath,
			"translation_model_path", translationPath,
		)
		return status.FromError(err)
	}
	a.log.Info("pipeline ready",
		"capability_id", id,
		"source_lang", sourceLang,
		"target_lang", targetLang,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return status.OK
}

// Process copies the described audio, runs it through the current pipeline
// and returns the encoded translation. On failure the Result is zero and
// nothing needs to be freed.
func (a *API) Process(view *audio.View) (res Result, code status.Code) {
	call := a.recorder.StartCall()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v: %w", r, status.ErrInference)
			a.log.Error("process panicked", "panic", r, "stack", string(debug.Stack()))
			res, code = Result{}, status.Failure
		}
		call.Finish(err)
	}()

	res, err = a.process(view, call)
	if err != nil {
		a.log.Warn("process failed", "error", err, "kind", status.Kind(err))
		return Result{}, status.FromError(err)
	}
	return res, status.OK
}

func (a *API) process(view *audio.View, call *telemetry.CallMetrics) (Result, error) {
	chunk, err := view.Copy(a.now())
	if err != nil {
		return Result{}, err
	}

	lease, err := a.slot.Acquire()
	if err != nil {
		return Result{}, err
	}
	defer lease.Release()

	started := time.Now()
	translation, err := lease.Pipeline().ProcessAudio(context.Background(), chunk)
	call.ObserveInference(time.Since(started))
	if err != nil {
		return Result{}, fmt.Errorf("capability %s: %w: %w", lease.ID(), status.ErrInference, err)
	}

	pair, err := handoff.EncodeTranslation(translation.Original, translation.Translated, translation.Confidence)
	if err != nil {
		return Result{}, err
	}
	original, translated, err := a.ledger.AdoptPair(pair)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", status.ErrEncoding, err)
	}
	a.recorder.RecordHandlesIssued(2)

	a.log.Debug("chunk processed",
		"capability_id", lease.ID(),
		"samples", len(chunk.Samples),
		"sample_rate", chunk.SampleRate,
		"channels", chunk.Channels,
		"confidence", translation.Confidence,
	)
	return Result{
		Original:   original,
		Translated: translated,
		Confidence: pair.Confidence,
	}, nil
}

// FreeString releases a string returned by this API. nil is a no-op, and
// pointers the API did not issue or already freed are ignored.
func (a *API) FreeString(p unsafe.Pointer) {
	defer a.recoverCode("free_string", nil)
	if p == nil {
		return
	}
	a.recorder.RecordFree(a.ledger.Free(p))
}

// Cleanup removes the current pipeline. In-flight Process calls finish on
// the pipeline they acquired. Cleanup is idempotent.
func (a *API) Cleanup() {
	defer a.recoverCode("cleanup", nil)
	a.slot.Clear()
}

// State reports whether a pipeline is installed.
func (a *API) State() handle.State {
	return a.slot.State()
}

// Outstanding returns the number of strings issued and not yet freed.
func (a *API) Outstanding() int {
	return a.ledger.Live()
}

// Version returns the library version as a caller-owned string, or nil if
// it could not be encoded.
func (a *API) Version() (p unsafe.Pointer) {
	defer a.recoverCode("version", nil)
	return a.issue(moduleinfo.VersionString())
}

// MetricsText returns the Prometheus text exposition of the API's metrics
// as a caller-owned string, or nil on failure.
func (a *API) MetricsText() (p unsafe.Pointer) {
	defer a.recoverCode("metrics", nil)
	var buf bytes.Buffer
	if err := a.recorder.WriteText(&buf); err != nil {
		a.log.Warn("metrics export failed", "error", err)
		return nil
	}
	return a.issue(buf.String())
}

func (a *API) issue(s string) unsafe.Pointer {
	text, err := handoff.Encode(s)
	if err != nil {
		a.log.Warn("string not representable", "error", err)
		return nil
	}
	p, err := a.ledger.Adopt(text)
	if err != nil {
		text.Release()
		return nil
	}
	a.recorder.RecordHandlesIssued(1)
	return p
}

func (a *API) recoverCode(op string, code *status.Code) {
	r := recover()
	if r == nil {
		return
	}
	a.log.Error("boundary call panicked", "op", op, "panic", r, "stack", string(debug.Stack()))
	if code != nil {
		*code = status.Failure
	}
}
