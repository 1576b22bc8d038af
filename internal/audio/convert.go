package audio

import "encoding/binary"

// Convert returns pcm in format to. Stereo input is averaged down to mono,
// and the sample rate is changed by linear interpolation. Mono input is
// duplicated when to is stereo.
func Convert(pcm []byte, from, to Format) []byte {
	if from == to {
		return pcm
	}
	samples := decode(pcm, from.Channels)
	if from.SampleRate != to.SampleRate {
		samples = resample(samples, from.SampleRate, to.SampleRate)
	}
	return encode(samples, to.Channels)
}

// decode reads frames as mono samples.
func decode(pcm []byte, channels int) []int16 {
	frame := channels * BytesPerSample
	out := make([]int16, len(pcm)/frame)
	for i := range out {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			off := i*frame + ch*BytesPerSample
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[off:])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

func encode(samples []int16, channels int) []byte {
	out := make([]byte, len(samples)*channels*BytesPerSample)
	off := 0
	for _, s := range samples {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(out[off:], uint16(s))
			off += BytesPerSample
		}
	}
	return out
}

func resample(in []int16, from, to int) []int16 {
	if len(in) == 0 || from <= 0 || to <= 0 {
		return in
	}
	ratio := float64(from) / float64(to)
	out := make([]int16, len(in)*to/from)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
	}
	return out
}
