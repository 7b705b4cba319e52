package audioconv

import (
	"bytes"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVBytes(t *testing.T) {
	pcm := []float32{0, 0.5, -0.5, 1.0, -1.0, 2.0, -2.0}
	data, err := WAVBytes(pcm, 16000)
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	require.Equal(t, 1, buf.Format.NumChannels)
	require.Equal(t, 16000, buf.Format.SampleRate)
	require.Len(t, buf.Data, len(pcm))

	assert.Equal(t, 0, buf.Data[0])
	assert.Equal(t, 16383, buf.Data[1])
	assert.Equal(t, -16383, buf.Data[2])
	// Out-of-range samples clamp instead of wrapping.
	assert.Equal(t, 32767, buf.Data[5])
	assert.Equal(t, -32768, buf.Data[6])
}

func TestWAVBytesRejectsEmpty(t *testing.T) {
	_, err := WAVBytes(nil, 16000)
	assert.Error(t, err)

	_, err = WAVBytes([]float32{0.1}, 0)
	assert.Error(t, err)
}
