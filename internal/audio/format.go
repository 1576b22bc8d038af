package audio

import (
	"fmt"
	"time"
)

// BytesPerSample is fixed: every buffer in this package is signed 16-bit LE.
const BytesPerSample = 2

// Format describes a PCM buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono returns a single-channel format at rate.
func Mono(rate int) Format {
	return Format{SampleRate: rate, Channels: 1}
}

// Validate checks the format is playable.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	return nil
}

// FrameSize is the number of bytes per sample frame.
func (f Format) FrameSize() int {
	return f.Channels * BytesPerSample
}

// Duration returns how long n bytes play for.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.FrameSize()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Bytes returns the byte length of d, rounded down to a whole frame.
func (f Format) Bytes(d time.Duration) int {
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return frames * f.FrameSize()
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}
