package capture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// Recorder saves artefacts under one directory with timestamped names.
type Recorder struct {
	dir string
	now func() time.Time
}

// NewRecorder creates dir if needed.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	return &Recorder{dir: dir, now: time.Now}, nil
}

// Dir returns the output directory.
func (r *Recorder) Dir() string { return r.dir }

// Filename builds prefix_YYYYMMDD_HHMMSS_mmm.ext in local time.
func Filename(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%03d%s", prefix, t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond), ext)
}

func (r *Recorder) path(prefix, ext string) string {
	return filepath.Join(r.dir, Filename(prefix, ext, r.now()))
}

// SaveFrame writes an encoded frame unchanged and returns its path.
func (r *Recorder) SaveFrame(prefix string, img *dog.CompressedImage) (string, error) {
	ext := ".jpg"
	if img.Format == "png" {
		ext = ".png"
	}
	return r.write(r.path(prefix, ext), img.Data)
}

// SaveWAV wraps PCM16 audio in a WAV header. Data that already is WAV is
// written as is.
func (r *Recorder) SaveWAV(prefix string, pcm []byte, sampleRate, channels int) (string, error) {
	data := pcm
	if !IsWAV(pcm) {
		var err error
		if data, err = EncodeWAV(pcm, sampleRate, channels); err != nil {
			return "", err
		}
	}
	return r.write(r.path(prefix, ".wav"), data)
}

// SaveMap writes the map image as name.pgm, falling back to a timestamped
// name when the map name has no usable characters.
func (r *Recorder) SaveMap(m dog.MapInfo) (string, error) {
	var buf bytes.Buffer
	if err := WritePGM(&buf, m.MapMetaData.MapImageData); err != nil {
		return "", err
	}
	name := SafeName(m.MapName)
	if name == "" {
		name = fmt.Sprintf("map_%d", r.now().Unix())
	}
	return r.write(filepath.Join(r.dir, name+".pgm"), buf.Bytes())
}

func (r *Recorder) write(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
