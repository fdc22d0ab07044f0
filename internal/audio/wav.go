// Package audio reads decoded PCM from disk for the CLI. Only 16-bit PCM
// WAV and headerless s16le raw files are supported; anything compressed is
// expected to be decoded upstream.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
)

// ReadFile decodes a .wav or raw .pcm/.s16le file into mono float64 samples
// in [-1, 1] and its sample rate. Raw files assume the given fallback rate.
func ReadFile(path string, fallbackRate int) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read audio file: %w", err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".wav") {
		return decodeWAV(data)
	}
	return decodeS16LE(data, 1, fallbackRate)
}

// decodeWAV parses a 16-bit PCM RIFF/WAVE file
func decodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < 44 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		sampleRate int
		channels   int
		bitDepth   int
		pcm        []byte
	)

	// Walk the chunk list; fmt must precede data
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(data) {
			chunkLen = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, 0, fmt.Errorf("unsupported WAV format %d, want PCM", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+chunkLen]
		}

		pos = body + chunkLen
		if chunkLen%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if sampleRate == 0 || pcm == nil {
		return nil, 0, fmt.Errorf("WAV file missing fmt or data chunk")
	}
	if bitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d, want 16", bitDepth)
	}

	samples, _, err := decodeS16LE(pcm, channels, sampleRate)
	if err != nil {
		return nil, 0, err
	}
	return samples, sampleRate, nil
}

// decodeS16LE converts interleaved signed 16-bit little-endian PCM to mono
// float64, averaging channels
func decodeS16LE(data []byte, channels, sampleRate int) ([]float64, int, error) {
	if channels <= 0 {
		return nil, 0, fmt.Errorf("channel count must be positive")
	}

	frameBytes := 2 * channels
	frames := len(data) / frameBytes
	samples := make([]float64, frames)

	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*2
			sum += float64(int16(binary.LittleEndian.Uint16(data[off : off+2])))
		}
		samples[i] = sum / float64(channels) / 32768.0
	}

	return samples, sampleRate, nil
}
