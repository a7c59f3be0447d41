// Package capture writes debug artefacts: camera frames, voice audio and
// map images.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Speech backends expect 16 kHz mono PCM16.
const (
	SpeechSampleRate = 16000
	SpeechChannels   = 1
)

const wavHeaderSize = 44

var errOddPCM = errors.New("capture: PCM16 data has an odd byte count")

// WriteWAV writes little-endian PCM16 samples as a RIFF/WAVE stream.
func WriteWAV(w io.Writer, pcm []byte, sampleRate, channels int) error {
	if len(pcm)%2 != 0 {
		return errOddPCM
	}
	dataSize := len(pcm)

	hdr := make([]byte, 0, wavHeaderSize)
	hdr = append(hdr, "RIFF"...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(36+dataSize))
	hdr = append(hdr, "WAVE"...)

	hdr = append(hdr, "fmt "...)
	hdr = binary.LittleEndian.AppendUint32(hdr, 16)
	hdr = binary.LittleEndian.AppendUint16(hdr, 1) // PCM
	hdr = binary.LittleEndian.AppendUint16(hdr, uint16(channels))
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(sampleRate))
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(sampleRate*channels*2))
	hdr = binary.LittleEndian.AppendUint16(hdr, uint16(channels*2))
	hdr = binary.LittleEndian.AppendUint16(hdr, 16)

	hdr = append(hdr, "data"...)
	hdr = binary.LittleEndian.AppendUint32(hdr, uint32(dataSize))

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}

// EncodeWAV returns pcm wrapped in a WAV header.
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))
	if err := WriteWAV(&buf, pcm, sampleRate, channels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// PCM16ToInt16 decodes little-endian PCM16 bytes. A trailing odd byte is
// ignored.
func PCM16ToInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// RMS is the root mean square amplitude of PCM16 audio, on the int16 scale.
func RMS(pcm []byte) float64 {
	samples := PCM16ToInt16(pcm)
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
