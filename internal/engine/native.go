//go:build whispercpp

package engine

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../third_party/whisper.cpp -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build -L${SRCDIR}/../../third_party/whisper.cpp/build/src -Wl,-rpath,${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lstdc++ -lm

#include "stdlib.h"
#include "include/whisper.h"
#include "ggml.h"

bool whisperGoAbort(void * user_data);
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"runtime/cgo"
	"strings"
	"sync"
	"unsafe"
)

func NativeAvailable() bool { return true }

// NativeEngine runs whisper.cpp. The model context is shared read-only; each
// call gets its own whisper_state, so calls proceed in parallel.
type NativeEngine struct {
	mu   sync.RWMutex
	ctx  *C.struct_whisper_context
	opts NativeOptions
}

func NewNativeEngine(modelPath string, opts NativeOptions) (Engine, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: model path required")
	}
	cPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cPath))
	cParams := C.whisper_context_default_params()
	cParams.use_gpu = C.bool(false)
	if opts.UseGPU != nil {
		cParams.use_gpu = C.bool(*opts.UseGPU)
	}
	if opts.FlashAttention != nil {
		cParams.flash_attn = C.bool(*opts.FlashAttention)
	}

	ctx := C.whisper_init_from_file_with_params(cPath, cParams)
	if ctx == nil {
		return nil, fmt.Errorf("whisper: failed to initialise context for %s", modelPath)
	}

	return &NativeEngine{
		ctx:  ctx,
		opts: opts,
	}, nil
}

func (e *NativeEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	lang := normaliseLanguage(opts.Language, "")
	if len(samples) == 0 {
		return Result{Language: lang}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ctx == nil {
		return Result{}, errors.New("whisper: engine closed")
	}

	state := C.whisper_init_state(e.ctx)
	if state == nil {
		return Result{}, errors.New("whisper: failed to initialise state")
	}
	defer C.whisper_free_state(state)

	cSamples := (*C.float)(unsafe.Pointer(&samples[0]))
	nSamples := C.int(len(samples))

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	if e.opts.BeamSize != nil && *e.opts.BeamSize > 1 {
		params = C.whisper_full_default_params(C.WHISPER_SAMPLING_BEAM_SEARCH)
		params.beam_search.beam_size = C.int(*e.opts.BeamSize)
	}
	params.print_progress = C.bool(false)
	params.print_realtime = C.bool(false)
	params.print_timestamps = C.bool(false)
	params.translate = C.bool(false)
	params.no_context = C.bool(true)
	params.single_segment = C.bool(false)
	if e.opts.Threads != nil {
		params.n_threads = C.int(*e.opts.Threads)
	}

	cLang := C.CString(lang)
	params.language = cLang
	defer C.free(unsafe.Pointer(cLang))

	handle := cgo.NewHandle(ctx)
	defer handle.Delete()
	params.abort_callback = (C.ggml_abort_callback)(C.whisperGoAbort)
	params.abort_callback_user_data = unsafe.Pointer(&handle)

	if ret := C.whisper_full_with_state(e.ctx, state, params, cSamples, nSamples); ret != 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("whisper: inference failed with code %d", int(ret))
	}

	agg := collectTranscriptAggregate(state)
	if strings.EqualFold(lang, "auto") {
		if id := C.whisper_full_lang_id_from_state(state); id >= 0 {
			lang = C.GoString(C.whisper_lang_str(id))
		}
	}
	return Result{
		Text:       agg.Text,
		Language:   lang,
		Confidence: agg.Confidence,
	}, nil
}

// Close waits for in-flight calls and frees the model context.
func (e *NativeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		C.whisper_free(e.ctx)
		e.ctx = nil
	}
	return nil
}

//export whisperGoAbort
func whisperGoAbort(userData unsafe.Pointer) C.bool {
	if shouldAbort(userData) {
		return C.bool(true)
	}
	return C.bool(false)
}

type transcriptAggregate struct {
	Text       string
	Confidence float32
}

func collectTranscriptAggregate(state *C.struct_whisper_state) transcriptAggregate {
	if state == nil {
		return transcriptAggregate{}
	}
	count := int(C.whisper_full_n_segments_from_state(state))
	if count == 0 {
		return transcriptAggregate{}
	}
	var (
		builder      strings.Builder
		sumProb      float64
		tokenSamples int
	)
	for i := 0; i < count; i++ {
		text := strings.TrimSpace(C.GoString(C.whisper_full_get_segment_text_from_state(state, C.int(i))))
		if text != "" {
			if builder.Len() > 0 {
				builder.WriteByte(' ')
			}
			builder.WriteString(text)
		}
		tokenCount := int(C.whisper_full_n_tokens_from_state(state, C.int(i)))
		for j := 0; j < tokenCount; j++ {
			tokenData := C.whisper_full_get_token_data_from_state(state, C.int(i), C.int(j))
			if tokenData.p > 0 {
				sumProb += float64(tokenData.p)
				tokenSamples++
			}
		}
	}
	confidence := float32(0)
	if tokenSamples > 0 {
		confidence = float32(sumProb / float64(tokenSamples))
	}
	text := strings.TrimSpace(builder.String())
	if isBlankTranscript(text) {
		text = ""
	}
	return transcriptAggregate{
		Text:       text,
		Confidence: confidence,
	}
}
