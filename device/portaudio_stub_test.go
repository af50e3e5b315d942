//go:build !portaudio

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortAudioUnavailableWithoutTag(t *testing.T) {
	_, err := NewPortAudio()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestOpenPortAudioFallsBackToNull(t *testing.T) {
	devs, err := Open("portaudio", "")
	require.NoError(t, err)
	assert.Equal(t, &Files{Realtime: true}, devs)

	mic, err := devs.OpenMicrophone(16000, 160)
	require.NoError(t, err)
	defer mic.Close()
	assert.Equal(t, 16000, mic.SampleRate())
}
