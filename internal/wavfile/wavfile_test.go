package wavfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteRead_RoundTrip_Mono(t *testing.T) {
	h := Header{Channels: 1, SampleRate: 48000}
	samples := []int16{0, 1, -1, 32767, -32768, 1234, -1234}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h, samples))

	gotHeader, gotSamples, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, gotHeader)
	assert.Equal(t, samples, gotSamples)
}

func Test_WriteRead_RoundTrip_Stereo(t *testing.T) {
	h := Header{Channels: 2, SampleRate: 44100}
	samples := []int16{100, -100, 200, -200}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h, samples))

	gotHeader, gotSamples, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, gotHeader)
	assert.Equal(t, samples, gotSamples)
}

func Test_Read_RejectsBadRIFFTag(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{Channels: 1, SampleRate: 48000}, nil))
	raw := buf.Bytes()
	raw[0] = 'X'

	_, _, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func Test_Read_RejectsInconsistentFileSize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{Channels: 1, SampleRate: 48000}, []int16{1, 2, 3}))
	raw := buf.Bytes()
	raw[4] = raw[4] + 1 // corrupt file_size

	_, _, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func Test_Read_RejectsNonPCMFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{Channels: 1, SampleRate: 48000}, nil))
	raw := buf.Bytes()
	raw[20] = 3 // IEEE float, not PCM

	_, _, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func Test_Write_RejectsBadChannelCount(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Header{Channels: 3, SampleRate: 48000}, nil)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func Test_Read_EmptyData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Header{Channels: 1, SampleRate: 8000}, nil))

	h, samples, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(8000), h.SampleRate)
	assert.Empty(t, samples)
}
