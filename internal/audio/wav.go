package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotWAV is returned when a buffer has no RIFF/WAVE header.
var ErrNotWAV = errors.New("not a WAV file")

// ParseWAV returns the PCM payload and format of a 16-bit PCM WAV buffer.
// Streams written to a pipe often carry a placeholder data size; the
// payload is then taken to run to the end of the buffer.
func ParseWAV(data []byte) ([]byte, Format, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, Format{}, ErrNotWAV
	}

	var (
		f       Format
		haveFmt bool
		pos     = 12
	)
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, Format{}, fmt.Errorf("short fmt chunk (%d bytes)", size)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body:])
			channels := binary.LittleEndian.Uint16(data[body+2:])
			rate := binary.LittleEndian.Uint32(data[body+4:])
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if audioFormat != 1 {
				return nil, Format{}, fmt.Errorf("unsupported WAV encoding %d (want PCM)", audioFormat)
			}
			if bits != 16 {
				return nil, Format{}, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
			}
			f = Format{SampleRate: int(rate), Channels: int(channels)}
			if err := f.Validate(); err != nil {
				return nil, Format{}, err
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, Format{}, errors.New("data chunk before fmt chunk")
			}
			end := body + size
			if size < 0 || end > len(data) || end < body {
				end = len(data)
			}
			pcm := data[body:end]
			return pcm[:len(pcm)-len(pcm)%f.FrameSize()], f, nil
		}

		// Chunks are word aligned.
		pos = body + size + size%2
		if pos < body {
			break
		}
	}
	return nil, Format{}, errors.New("WAV has no data chunk")
}

// EncodeWAV wraps pcm in a 44-byte PCM WAV header.
func EncodeWAV(pcm []byte, f Format) []byte {
	var b bytes.Buffer
	b.Grow(44 + len(pcm))
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(f.Channels))
	binary.Write(&b, binary.LittleEndian, uint32(f.SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(f.SampleRate*f.FrameSize()))
	binary.Write(&b, binary.LittleEndian, uint16(f.FrameSize()))
	binary.Write(&b, binary.LittleEndian, uint16(BytesPerSample*8))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}
