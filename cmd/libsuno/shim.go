package main

/*
#include <stdlib.h>
#include <string.h>
#include "suno.h"
*/
import "C"

import (
	"unsafe"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/boundary"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

// processAudio runs one chunk through api and writes all three fields of
// out, or none of them.
func processAudio(api *boundary.API, chunk *C.SunoAudioChunk, out *C.SunoTranslation) C.int32_t {
	if out == nil {
		return C.int32_t(status.Failure)
	}
	res, code := api.Process(viewOf(chunk))
	if code != status.OK {
		return C.int32_t(code)
	}
	setTranslation(out, (*C.char)(res.Original), (*C.char)(res.Translated), res.Confidence)
	return C.int32_t(status.OK)
}

func viewOf(chunk *C.SunoAudioChunk) *audio.View {
	if chunk == nil {
		return nil
	}
	// Lengths past MaxSamples are rejected by View.Validate; clamp first so
	// the conversion to int cannot wrap.
	length := min(uint64(chunk.length), audio.MaxSamples+1)
	return &audio.View{
		Data:       unsafe.Pointer(chunk.data),
		Length:     int(length),
		SampleRate: uint32(chunk.sample_rate),
		Channels:   uint16(chunk.channels),
	}
}

func setTranslation(out *C.SunoTranslation, original, translated *C.char, confidence float32) {
	out.original = original
	out.translated = translated
	out.confidence = C.float(confidence)
}

func translationFields(out *C.SunoTranslation) (original, translated *C.char, confidence float32) {
	return out.original, out.translated, float32(out.confidence)
}

// newAudioChunk copies samples into a C-allocated SunoAudioChunk, the way a
// native host hands audio over. Release it with freeAudioChunk.
func newAudioChunk(samples []float32, sampleRate uint32, channels uint16) *C.SunoAudioChunk {
	chunk := (*C.SunoAudioChunk)(C.calloc(1, C.size_t(unsafe.Sizeof(C.SunoAudioChunk{}))))
	size := C.size_t(len(samples)) * C.size_t(unsafe.Sizeof(C.float(0)))
	data := C.calloc(1, max(size, 1))
	if len(samples) > 0 {
		C.memcpy(data, unsafe.Pointer(&samples[0]), size)
	}
	chunk.data = (*C.float)(data)
	chunk.length = C.size_t(len(samples))
	chunk.sample_rate = C.uint32_t(sampleRate)
	chunk.channels = C.uint16_t(channels)
	return chunk
}

func setChunkLength(chunk *C.SunoAudioChunk, length uint64) {
	chunk.length = C.size_t(length)
}

func freeAudioChunk(chunk *C.SunoAudioChunk) {
	if chunk == nil {
		return
	}
	C.free(unsafe.Pointer(chunk.data))
	C.free(unsafe.Pointer(chunk))
}

func newTranslationSlot() *C.SunoTranslation {
	return (*C.SunoTranslation)(C.calloc(1, C.size_t(unsafe.Sizeof(C.SunoTranslation{}))))
}

func freeTranslationSlot(out *C.SunoTranslation) {
	C.free(unsafe.Pointer(out))
}

func newCString(s string) *C.char {
	return C.CString(s)
}

func freeCString(s *C.char) {
	C.free(unsafe.Pointer(s))
}
