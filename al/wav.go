package al

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/internal/pool"
)

// LoadBufferWAV decodes a WAV stream and allocates a device.Buffer from it
// in dev's Buffers pool, returning the new buffer's handle. The buffer's
// Data is packed to match the decoded channel count and bit depth (8-bit
// unsigned, 16-bit signed, or 32-bit signed little-endian), mirroring the
// PCM layout DecomposeCapture/Format already expect elsewhere in this
// core.
func LoadBufferWAV(dev *device.Device, r io.Reader) (pool.Handle, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pool.NullHandle, fmt.Errorf("al: not a valid WAV stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pool.NullHandle, fmt.Errorf("al: decode WAV: %w", err)
	}

	layout, ok := channelLayoutFor(buf.Format.NumChannels)
	if !ok {
		return pool.NullHandle, fmt.Errorf("al: unsupported WAV channel count %d", buf.Format.NumChannels)
	}
	sampleType, bytesPer, ok := sampleTypeFor(int(dec.BitDepth))
	if !ok {
		return pool.NullHandle, fmt.Errorf("al: unsupported WAV bit depth %d", dec.BitDepth)
	}

	data := make([]byte, len(buf.Data)*bytesPer)
	for i, sample := range buf.Data {
		off := i * bytesPer
		switch sampleType {
		case device.U8:
			data[off] = byte(sample)
		case device.I16:
			binary.LittleEndian.PutUint16(data[off:], uint16(int16(sample)))
		default: // device.I32
			binary.LittleEndian.PutUint32(data[off:], uint32(int32(sample)))
		}
	}

	format := device.Format{
		Layout:    layout,
		Type:      sampleType,
		Frequency: buf.Format.SampleRate,
	}
	if err := format.Validate(); err != nil {
		return pool.NullHandle, fmt.Errorf("al: WAV format: %w", err)
	}

	h, b := dev.Buffers.Alloc()
	b.Data = data
	b.Format = format
	return h, nil
}

func channelLayoutFor(n int) (device.ChannelLayout, bool) {
	switch n {
	case 1:
		return device.Mono, true
	case 2:
		return device.Stereo, true
	case 4:
		return device.Quad, true
	case 6:
		return device.Surround51, true
	case 7:
		return device.Surround61, true
	case 8:
		return device.Surround71, true
	default:
		return 0, false
	}
}

func sampleTypeFor(bitDepth int) (device.SampleType, int, bool) {
	switch bitDepth {
	case 8:
		return device.U8, 1, true
	case 16:
		return device.I16, 2, true
	case 32:
		return device.I32, 4, true
	default:
		return 0, 0, false
	}
}
