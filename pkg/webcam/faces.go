package webcam

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Face is one detected face, normalised to the frame size.
type Face struct {
	X, Y, W, H float64
	Score      float64
}

// FaceFinder runs OpenCV's YuNet face detector on JPEG frames. It is used to
// skip backend uploads for frames with nobody in them.
type FaceFinder struct {
	mu       sync.Mutex
	detector gocv.FaceDetectorYN
	minScore float64
}

// NewFaceFinder loads a YuNet ONNX model.
func NewFaceFinder(modelPath string, minScore float64) (*FaceFinder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("face model: %w", err)
	}
	if minScore <= 0 {
		minScore = 0.5
	}
	d := gocv.NewFaceDetectorYNWithParams(
		modelPath, "",
		image.Pt(320, 320),
		float32(minScore),
		0.3,  // NMS
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	return &FaceFinder{detector: d, minScore: minScore}, nil
}

// Find returns the faces in a JPEG frame.
func (f *FaceFinder) Find(jpeg []byte) ([]Face, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("decode image: empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w, h := float64(img.Cols()), float64(img.Rows())
	f.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	out := gocv.NewMat()
	defer out.Close()
	f.detector.Detect(img, &out)

	// Rows are x, y, w, h, five landmark pairs, score.
	faces := make([]Face, 0, out.Rows())
	for r := 0; r < out.Rows(); r++ {
		faces = append(faces, Face{
			X:     float64(out.GetFloatAt(r, 0)) / w,
			Y:     float64(out.GetFloatAt(r, 1)) / h,
			W:     float64(out.GetFloatAt(r, 2)) / w,
			H:     float64(out.GetFloatAt(r, 3)) / h,
			Score: float64(out.GetFloatAt(r, 14)),
		})
	}
	return faces, nil
}

// HasFace reports whether a frame contains at least one face. Undecodable
// frames count as empty.
func (f *FaceFinder) HasFace(jpeg []byte) bool {
	faces, err := f.Find(jpeg)
	return err == nil && len(faces) > 0
}

// Close releases the model.
func (f *FaceFinder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	return nil
}
