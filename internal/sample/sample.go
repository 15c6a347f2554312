// Package sample defines the abstract producer contract that feeds raw PCM
// samples into the Loader Pool, plus the concrete providers that turn a file
// or a live pipe into one.
package sample

import "time"

// Sample is a single 32-bit float channel instant. Two consecutive Samples
// form one stereo frame (L, R).
type Sample = float32

// Reader is a finite, non-restartable, single-threaded producer of
// interleaved stereo samples. ReadInto fills up to len(out) samples and
// returns how many were written. A return of 0 is sticky end-of-stream: every
// subsequent call must also return 0. Transient decode failures are not
// reported as errors — the implementation logs them and reports end-of-stream
// instead, so the Loader Pool never has to understand decode internals.
type Reader interface {
	ReadInto(out []Sample) int
}

// Provider is anything that can be turned into a Reader plus a duration hint.
// The hint is advisory and never relied upon for correctness: it becomes the
// expectedLength handed to the Loader Pool, which records it but grows every
// buffer segment by segment regardless.
type Provider interface {
	Open() (Reader, error)
	Duration() time.Duration
}
