// Command libsuno is built with -buildmode=c-shared and exports the suno_*
// functions declared in the generated libsuno.h.
package main

/*
#include "suno.h"
*/
import "C"

import "unsafe"

// suno_init loads both models and makes the pipeline current. Returns 0 on
// success and -1 on failure, in which case the previous pipeline (if any)
// stays in place.
//
//export suno_init
func suno_init(whisperModelPath, translationModelPath, sourceLang, targetLang *C.char) C.int32_t {
	code := library().Init(
		unsafe.Pointer(whisperModelPath),
		unsafe.Pointer(translationModelPath),
		unsafe.Pointer(sourceLang),
		unsafe.Pointer(targetLang),
	)
	return C.int32_t(code)
}

// suno_process_audio translates one chunk. On success all three fields of
// out are written and both strings must be released with suno_free_string.
// On failure out is left untouched.
//
//export suno_process_audio
func suno_process_audio(chunk *C.SunoAudioChunk, out *C.SunoTranslation) C.int32_t {
	return processAudio(library(), chunk, out)
}

// suno_free_string releases a string returned by this library. NULL is
// accepted.
//
//export suno_free_string
func suno_free_string(s *C.char) {
	library().FreeString(unsafe.Pointer(s))
}

// suno_cleanup drops the current pipeline. Calls already running finish
// first.
//
//export suno_cleanup
func suno_cleanup() {
	library().Cleanup()
}

// suno_version returns the library version. Free with suno_free_string.
//
//export suno_version
func suno_version() *C.char {
	return (*C.char)(library().Version())
}

// suno_metrics returns a Prometheus text snapshot of the library counters.
// Free with suno_free_string.
//
//export suno_metrics
func suno_metrics() *C.char {
	return (*C.char)(library().MetricsText())
}

func main() {}
