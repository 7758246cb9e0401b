package handoff

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Ledger records every pointer currently owned by the native caller so that
// free requests are only honoured for pointers this library issued, once.
type Ledger struct {
	mu   sync.Mutex
	live map[uintptr]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{live: make(map[uintptr]int)}
}

// Adopt detaches t and records the pointer as caller-owned.
func (l *Ledger) Adopt(t *Text) (unsafe.Pointer, error) {
	n, err := t.Len()
	if err != nil {
		return nil, err
	}
	p := t.Detach()
	if p == nil {
		return nil, ErrReleased
	}
	l.mu.Lock()
	l.live[uintptr(p)] = n
	l.mu.Unlock()
	return p, nil
}

// AdoptPair detaches both strings of pair. Either both pointers are returned
// or neither string survives.
func (l *Ledger) AdoptPair(pair Pair) (original, translated unsafe.Pointer, err error) {
	if pair.Original.Released() || pair.Translated.Released() {
		pair.Release()
		return nil, nil, fmt.Errorf("handoff: pair: %w", ErrReleased)
	}
	original, err = l.Adopt(pair.Original)
	if err != nil {
		pair.Release()
		return nil, nil, err
	}
	translated, err = l.Adopt(pair.Translated)
	if err != nil {
		pair.Translated.Release()
		l.Free(original)
		return nil, nil, err
	}
	return original, translated, nil
}

// Free releases a pointer previously returned by Adopt. A nil pointer is a
// no-op. Pointers the ledger does not know, including ones already freed,
// are left untouched and reported with false.
func (l *Ledger) Free(p unsafe.Pointer) bool {
	if p == nil {
		return true
	}
	l.mu.Lock()
	_, ok := l.live[uintptr(p)]
	if ok {
		delete(l.live, uintptr(p))
	}
	l.mu.Unlock()
	if !ok {
		return false
	}
	C.free(p)
	return true
}

// Live returns the number of issued pointers not yet freed.
func (l *Ledger) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}
