package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// SupportedExtensions lists the file extensions that can be decoded.
var SupportedExtensions = []string{".wav", ".ogg", ".mp3"}

// openDecoder opens path and returns a streaming decoder for it.
// The decoder owns the file; closing the decoder closes the file.
func openDecoder(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, beep.Format{}, fmt.Errorf("%w: unsupported audio format %q", ErrResource, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: failed to open sound file: %w", ErrResource, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: failed to decode sound: %w", ErrResource, err)
	}

	return &fileStreamer{StreamSeekCloser: streamer, file: f}, format, nil
}

// decodeBuffer decodes the whole file at path into memory.
func decodeBuffer(path string) (*beep.Buffer, error) {
	streamer, format, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to decode sound: %w", ErrResource, err)
	}

	return buffer, nil
}

// fileStreamer closes the backing file along with the decoder.
type fileStreamer struct {
	beep.StreamSeekCloser
	file *os.File
}

func (f *fileStreamer) Close() error {
	err := f.StreamSeekCloser.Close()
	// Some decoders already close the reader they were given
	_ = f.file.Close()
	return err
}

// ExpandPath expands ~ to the home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
