// Package synth generates short UI feedback tones without audio files.
// Each effect maps to a fixed frequency, duration and waveform with an
// exponentially decaying gain.
package synth
