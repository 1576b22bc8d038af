package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildWAV(rate uint32, channels, bits uint16, pcm []byte, dataSize uint32) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("LIST")
	binary.Write(&b, binary.LittleEndian, uint32(3))
	b.Write([]byte{'a', 'b', 'c', 0}) // odd chunk plus pad byte
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*uint32(channels)*uint32(bits/8))
	binary.Write(&b, binary.LittleEndian, channels*bits/8)
	binary.Write(&b, binary.LittleEndian, bits)
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataSize)
	b.Write(pcm)
	return b.Bytes()
}

func TestParseWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	data := buildWAV(22050, 1, 16, pcm, uint32(len(pcm)))

	got, f, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if f != Mono(22050) {
		t.Errorf("Expected 22050Hz mono, got %v", f)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("Expected payload %v, got %v", pcm, got)
	}
}

func TestParseWAVStreamingSize(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3}
	data := buildWAV(16000, 1, 16, pcm, 0xFFFFFFFF)

	got, _, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Expected payload trimmed to 4 bytes, got %d", len(got))
	}
}

func TestParseWAVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not riff", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"8-bit", buildWAV(8000, 1, 8, []byte{1, 2}, 2)},
		{"no data", []byte("RIFF\x04\x00\x00\x00WAVE")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseWAV(tt.data); err == nil {
				t.Error("Expected error but got none")
			}
		})
	}

	if _, _, err := ParseWAV([]byte("hello world!")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("Expected ErrNotWAV, got %v", err)
	}
}

func TestEncodeWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	f := Format{SampleRate: 44100, Channels: 2}

	data := EncodeWAV(pcm, f)
	if len(data) != 44+len(pcm) {
		t.Errorf("Expected %d bytes, got %d", 44+len(pcm), len(data))
	}
	got, gotFormat, err := ParseWAV(data)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if gotFormat != f || !bytes.Equal(got, pcm) {
		t.Errorf("Expected %v %v, got %v %v", f, pcm, gotFormat, got)
	}
}
