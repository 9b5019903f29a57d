package al

import (
	"os"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/config"
	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/internal/pool"
)

func writeTestWAV(t *testing.T, path string, sampleRate, bitDepth, numChans int, samples []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestLoadBufferWAVMonoI16(t *testing.T) {
	path := t.TempDir() + "/tone.wav"
	samples := []int{100, -100, 200, -200, 300, -300}
	writeTestWAV(t, path, 44100, 16, 1, samples)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg := config.Default()
	dev := device.OpenLoopback(cfg.DeviceConfig("loopback"), nil)
	dev.Buffers = pool.New[device.Buffer]()

	h, err := LoadBufferWAV(dev, f)
	require.NoError(t, err)

	b, ok := dev.Buffers.Get(h)
	require.True(t, ok)
	require.Equal(t, device.Mono, b.Format.Layout)
	require.Equal(t, device.I16, b.Format.Type)
	require.Equal(t, 44100, b.Format.Frequency)
	require.Len(t, b.Data, len(samples)*2)
}

func TestLoadBufferWAVRejectsGarbage(t *testing.T) {
	cfg := config.Default()
	dev := device.OpenLoopback(cfg.DeviceConfig("loopback"), nil)
	dev.Buffers = pool.New[device.Buffer]()

	_, err := LoadBufferWAV(dev, strings.NewReader("not a wav file"))
	require.Error(t, err)
}
