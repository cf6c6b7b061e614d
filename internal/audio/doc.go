// Package audio provides the beep-backed playback backend.
// It streams WAV, OGG, and MP3 background tracks through a shared speaker
// output, plays short cached clips, and models the platform autoplay policy
// that refuses audio until the first user gesture.
package audio
