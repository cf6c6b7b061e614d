package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundstage/internal/playback"
)

func TestGenerateWaybarStatus(t *testing.T) {
	tests := []struct {
		name   string
		sounds []playback.HandleInfo
		want   WaybarStatus
	}{
		{
			name: "empty",
			want: WaybarStatus{Alt: "empty", Class: "empty", Tooltip: "No sounds mounted"},
		},
		{
			name: "playing",
			sounds: []playback.HandleInfo{
				{Key: "home-sound", State: playback.StatePlaying, Active: true, Volume: 0.25},
				{Key: "splash-sound", State: playback.StateIdle},
			},
			want: WaybarStatus{
				Text:       "home-sound",
				Alt:        "playing",
				Class:      "playing",
				Percentage: 25,
				Tooltip:    "2 mounted\nhome-sound: playing\nsplash-sound: idle",
			},
		},
		{
			name: "suspended",
			sounds: []playback.HandleInfo{
				{Key: "home-sound", State: playback.StateSuspended},
			},
			want: WaybarStatus{
				Text:    "1",
				Alt:     "suspended",
				Class:   "suspended",
				Tooltip: "1 mounted\nhome-sound: suspended",
			},
		},
		{
			name: "idle",
			sounds: []playback.HandleInfo{
				{Key: "home-sound", State: playback.StateIdle},
			},
			want: WaybarStatus{Alt: "idle", Class: "idle", Tooltip: "1 mounted\nhome-sound: idle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateWaybarStatus(tt.sounds))
		})
	}
}

func TestLookupSound(t *testing.T) {
	sounds := []playback.HandleInfo{
		{ID: "01JAAA", Key: "a"},
		{ID: "01JBBB", Key: "b"},
	}

	s, err := lookupSound(sounds, "2")
	require.NoError(t, err)
	assert.Equal(t, "b", s.Key)

	s, err = lookupSound(sounds, "01JAAA")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Key)

	_, err = lookupSound(sounds, "3")
	assert.Error(t, err)
	_, err = lookupSound(sounds, "0")
	assert.Error(t, err)
	_, err = lookupSound(sounds, "01JCCC")
	assert.Error(t, err)
}

func TestTrackFinished(t *testing.T) {
	ch := make(chan playback.HandleInfo, 1)
	fn := trackFinished(ch)

	// Idle before the track started is the initial state
	fn(playback.HandleInfo{State: playback.StateLoading})
	fn(playback.HandleInfo{State: playback.StateIdle})
	assert.Empty(t, ch)

	fn(playback.HandleInfo{State: playback.StatePlaying})
	fn(playback.HandleInfo{State: playback.StateIdle, Key: "done"})
	require.Len(t, ch, 1)

	// A full channel never blocks the caller
	fn(playback.HandleInfo{State: playback.StateErrored})
	got := <-ch
	assert.Equal(t, "done", got.Key)
}

func TestTrackFinished_Errored(t *testing.T) {
	ch := make(chan playback.HandleInfo, 1)
	trackFinished(ch)(playback.HandleInfo{State: playback.StateErrored, Source: "/missing.mp3"})

	err := waitForTrack(t.Context(), ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing.mp3")
}

func TestEffectNames(t *testing.T) {
	assert.Equal(t, "click, success, error, celebration, pop", effectNames())
}
