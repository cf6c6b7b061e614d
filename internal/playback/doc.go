// Package playback coordinates background tracks so that at most one is
// audible at a time.
//
// A Controller owns one mounted sound. It stops every other registered
// sound, opens its track through a Backend, registers the Handle, and starts
// it after a settle delay. When the autoplay policy refuses the start, a Gate
// waits for the next user gesture delivered through Signals and retries once.
// The Registry is the only shared state and tracks which key is active.
package playback
