package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/soundstage/internal/playback"
)

func testSounds() []playback.HandleInfo {
	now := time.Now()
	return []playback.HandleInfo{
		{
			ID:        "01JA0000000000000000000001",
			Key:       "home-sound",
			Source:    "/usr/share/sounds/home.mp3",
			State:     playback.StatePlaying,
			Volume:    0.5,
			Loop:      true,
			Active:    true,
			MountedAt: now.Add(-5 * time.Minute),
		},
		{
			ID:        "01JA0000000000000000000002",
			Key:       "splash-sound",
			Source:    "/usr/share/sounds/splash.mp3",
			State:     playback.StateSuspended,
			Volume:    0.25,
			MountedAt: now.Add(-2 * time.Hour),
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FormatType
		wantErr bool
	}{
		{"plain", FormatPlain, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"dmenu", FormatDmenu, false},
		{"ids", FormatIDs, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testSounds())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[1] * home-sound playing vol 50% loop (mounted 5 minutes ago)")
	assert.Contains(t, out, "[2]   splash-sound suspended vol 25% (mounted 2 hours ago)")
	assert.Contains(t, out, "    /usr/share/sounds/splash.mp3\n")
}

func TestPlainFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, nil))
	assert.Equal(t, "no sounds mounted\n", buf.String())
}

func TestPlainFormatter_SourceOmittedWhenKey(t *testing.T) {
	var buf bytes.Buffer
	sounds := []playback.HandleInfo{{Key: "/a.mp3", Source: "/a.mp3", State: playback.StateIdle}}

	opts := DefaultFormatterOptions()
	opts.ShowTime = false
	opts.ShowIndex = false
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, sounds))
	assert.Equal(t, "  /a.mp3 idle vol 0%\n", buf.String())
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.Template = "{{.Index}}:{{.Sound.Key}}:{{percent .Sound.Volume}}{{activeMark .Sound.Active}}\n"
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testSounds()))
	assert.Equal(t, "1:home-sound:50%*\n2:splash-sound:25% \n", buf.String())
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	opts := DefaultFormatterOptions()
	opts.ShowTime = false
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testSounds()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 | home-sound | playing", lines[0])
	assert.Equal(t, "2 | splash-sound | suspended", lines[1])
}

func TestDmenuFormatter_BadTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Template: "{{.Nope", Separator: "\t"}
	require.NoError(t, NewDmenuFormatter(opts).Format(&buf, testSounds()[:1]))
	assert.Equal(t, "home-sound\tplaying\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testSounds()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "home-sound", decoded[0]["key"])
	assert.Equal(t, "playing", decoded[0]["state"])
	assert.Equal(t, true, decoded[0]["active"])
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(DefaultFormatterOptions()).Format(&buf, testSounds()))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "splash-sound", decoded[1]["key"])
	assert.Equal(t, "suspended", decoded[1]["state"])
	assert.Equal(t, 0.25, decoded[1]["volume"])
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testSounds()))
	assert.Equal(t, "01JA0000000000000000000001\n01JA0000000000000000000002\n", buf.String())
}

func TestFormatField(t *testing.T) {
	s := testSounds()[0]

	tests := []struct {
		field    string
		expected string
	}{
		{"id", s.ID},
		{"key", "home-sound"},
		{"SOURCE", "/usr/share/sounds/home.mp3"},
		{"state", "playing"},
		{"volume", "0.50"},
		{"loop", "true"},
		{"active", "true"},
		{"unknown", "home-sound"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatField(s, tt.field))
		})
	}
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &DmenuFormatter{}, NewFormatter(FormatDmenu, opts))
	assert.IsType(t, &IDsFormatter{}, NewFormatter(FormatIDs, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown", opts), "defaults to plain")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxLen   int
		expected string
	}{
		{"unlimited", "/a/b/c.mp3", 0, "/a/b/c.mp3"},
		{"fits", "/a/b/c.mp3", 20, "/a/b/c.mp3"},
		{"keeps tail", "/long/path/to/c.mp3", 10, "...o/c.mp3"},
		{"tiny", "/long/path", 2, "/l"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.in, tt.maxLen))
		})
	}
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "unknown", relativeTime(time.Time{}))
	assert.Equal(t, "3 days ago", relativeTime(time.Now().Add(-72*time.Hour)))
}
