package recorder

import (
	"os"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderWritesBothTracks(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, "abc", 16000, 24000)
	require.NoError(t, err)

	require.NoError(t, rec.WriteInput([]float32{0, 0.5, -0.5, 0.25}))
	require.NoError(t, rec.WriteOutput([]float32{0.5, 0.5}))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	in, out := rec.Paths()
	assertTrack(t, in, 16000, []int{0, 16384, -16384, 8192})
	assertTrack(t, out, 24000, []int{16384, 16384})

	assert.ErrorIs(t, rec.WriteInput([]float32{0}), ErrClosed)
}

func TestRecorderValidation(t *testing.T) {
	_, err := New("", "abc", 16000, 24000)
	assert.Error(t, err)
	_, err = New(t.TempDir(), "", 16000, 24000)
	assert.Error(t, err)
}

func assertTrack(t *testing.T, path string, rate int, want []int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(rate), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, want, buf.Data)
}
