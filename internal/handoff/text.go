// Package handoff moves text across the C boundary. Strings handed to the
// caller live in C heap memory and are owned by the caller until released.
package handoff

/*
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"
	"unsafe"

	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

// ErrReleased is returned when a spent Text is read.
var ErrReleased = errors.New("handoff: handle already released")

// Text is an owned, NUL-terminated C string. A Text is spent once it has
// been released or detached; a spent Text can no longer be read.
type Text struct {
	ptr atomic.Pointer[C.char]
	n   int
}

// Encode copies s into C memory. Strings that cannot cross a
// NUL-terminated UTF-8 boundary are rejected with status.ErrEncoding.
func Encode(s string) (*Text, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, fmt.Errorf("handoff: embedded NUL at byte %d: %w", i, status.ErrEncoding)
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("handoff: invalid UTF-8: %w", status.ErrEncoding)
	}
	t := &Text{n: len(s)}
	t.ptr.Store(C.CString(s))
	return t, nil
}

// Len returns the byte length of the string, excluding the terminator.
func (t *Text) Len() (int, error) {
	if t == nil || t.ptr.Load() == nil {
		return 0, ErrReleased
	}
	return t.n, nil
}

// Released reports whether the handle has been spent.
func (t *Text) Released() bool {
	return t == nil || t.ptr.Load() == nil
}

// Release frees the C memory. Releasing a nil or spent Text is a no-op.
func (t *Text) Release() {
	if t == nil {
		return
	}
	if p := t.ptr.Swap(nil); p != nil {
		C.free(unsafe.Pointer(p))
	}
}

// Detach hands the C pointer to a new owner and spends the Text. It returns
// nil when the Text was already spent.
func (t *Text) Detach() unsafe.Pointer {
	if t == nil {
		return nil
	}
	return unsafe.Pointer(t.ptr.Swap(nil))
}

// GoString reads a caller-owned NUL-terminated string. The caller memory is
// not retained.
func GoString(p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", fmt.Errorf("handoff: nil string: %w", status.ErrInvalidInput)
	}
	s := C.GoString((*C.char)(p))
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("handoff: string is not valid UTF-8: %w", status.ErrInvalidInput)
	}
	return s, nil
}

// Pair is an encoded translation ready for the caller.
type Pair struct {
	Original   *Text
	Translated *Text
	Confidence float32
}

// EncodeTranslation encodes both strings or neither. The confidence is
// passed through unchanged.
func EncodeTranslation(original, translated string, confidence float32) (Pair, error) {
	orig, err := Encode(original)
	if err != nil {
		return Pair{}, fmt.Errorf("original text: %w", err)
	}
	trans, err := Encode(translated)
	if err != nil {
		orig.Release()
		return Pair{}, fmt.Errorf("translated text: %w", err)
	}
	return Pair{Original: orig, Translated: trans, Confidence: confidence}, nil
}

// Release frees both strings of the pair.
func (p Pair) Release() {
	p.Original.Release()
	p.Translated.Release()
}
