package audio

import "errors"

var (
	// ErrAutoplayRejected is returned when playback is refused until a user gesture occurs.
	ErrAutoplayRejected = errors.New("autoplay rejected: user interaction required")

	// ErrResource is returned when a media resource cannot be opened or decoded.
	ErrResource = errors.New("audio resource unavailable")

	// ErrOutputUnavailable is returned when no audio output device can be initialized.
	ErrOutputUnavailable = errors.New("audio output unavailable")
)
