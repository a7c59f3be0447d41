// Package webcam grabs JPEG frames from a local camera with OpenCV, for the
// face tools that talk to the recognition backend without a robot.
package webcam

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// DefaultQuality is the JPEG quality used for uploads.
const DefaultQuality = 90

var ErrNoFrame = errors.New("webcam: no frame")

// Config selects and sizes the camera.
type Config struct {
	Device  int // OpenCV device index
	Width   int // 0 keeps the driver default
	Height  int
	Quality int // JPEG quality 1-100
}

// Camera is an open capture device.
type Camera struct {
	cfg Config

	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat
}

// Open starts capturing from cfg.Device.
func Open(cfg Config) (*Camera, error) {
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %d: device not available", cfg.Device)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return &Camera{cfg: cfg, cap: vc, img: gocv.NewMat()}, nil
}

// Frame reads one frame and returns it JPEG-encoded.
func (c *Camera) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.cap.Read(&c.img); !ok || c.img.Empty() {
		return nil, ErrNoFrame
	}
	return EncodeJPEG(c.img, c.cfg.Quality)
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img.Close()
	return c.cap.Close()
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory that Close frees.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
