// Package audio plays 16-bit little-endian PCM through oto/v3 and provides
// the conversions engines need to feed it: WAV header parsing, down-mixing
// to mono and linear resampling to the device rate.
package audio
