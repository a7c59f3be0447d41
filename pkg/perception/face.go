package perception

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/teslashibe/go-magicdog/internal/httpc"
)

// DefaultSimilarityThreshold is the score a match must exceed to count.
const DefaultSimilarityThreshold = 0.85

// FaceMatch is the recognition result for one frame.
type FaceMatch struct {
	Status     string  `json:"status"`
	Similarity float64 `json:"similarity"`
	Name       string  `json:"name"`
}

// Matched reports a successful match above threshold.
func (m *FaceMatch) Matched(threshold float64) bool {
	return m.Status == "success" && m.Similarity > threshold
}

type faceResponse struct {
	Data *FaceMatch `json:"data"`
}

func decodeFace(body []byte) (*FaceMatch, error) {
	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed("face: %v", err)
	}
	if resp.Data == nil {
		return nil, malformed("face: missing data")
	}
	return resp.Data, nil
}

// ParseFaceResponse extracts the recognised identity from a face backend
// body. A well-formed miss, or a match at or below threshold, yields "".
func ParseFaceResponse(body []byte, threshold float64) (string, error) {
	m, err := decodeFace(body)
	if err != nil {
		return "", err
	}
	if !m.Matched(threshold) {
		return "", nil
	}
	return m.Name, nil
}

// FaceClient uploads camera frames to the face recognition backend.
type FaceClient struct {
	url       string
	threshold float64
	client    *http.Client
}

// FaceOption configures a FaceClient.
type FaceOption func(*FaceClient)

// WithThreshold overrides DefaultSimilarityThreshold.
func WithThreshold(t float64) FaceOption {
	return func(c *FaceClient) {
		if t > 0 {
			c.threshold = t
		}
	}
}

// WithHTTPClient replaces the default 10 s client.
func WithHTTPClient(hc *http.Client) FaceOption {
	return func(c *FaceClient) { c.client = hc }
}

// NewFaceClient creates a client posting frames to url.
func NewFaceClient(url string, opts ...FaceOption) *FaceClient {
	c := &FaceClient{
		url:       url,
		threshold: DefaultSimilarityThreshold,
		client:    httpc.NewClient(httpc.DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recognize uploads one JPEG frame and returns the raw match.
func (c *FaceClient) Recognize(ctx context.Context, jpeg []byte) (*FaceMatch, error) {
	body, err := c.upload(ctx, jpeg)
	if err != nil {
		return nil, err
	}
	return decodeFace(body)
}

// Identify uploads one JPEG frame and returns the identity, or "" when
// nobody known is in view.
func (c *FaceClient) Identify(ctx context.Context, jpeg []byte) (string, error) {
	body, err := c.upload(ctx, jpeg)
	if err != nil {
		return "", err
	}
	return ParseFaceResponse(body, c.threshold)
}

func (c *FaceClient) upload(ctx context.Context, jpeg []byte) ([]byte, error) {
	code, body, err := httpc.Upload(ctx, c.client, c.url, httpc.File{
		Field:       "file",
		Filename:    "frame.jpg",
		ContentType: "image/jpeg",
		Data:        jpeg,
	})
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, newAPIError(c.url, code, body)
	}
	return body, nil
}

// Threshold is the similarity a match must exceed.
func (c *FaceClient) Threshold() float64 { return c.threshold }

// Timeout reports the HTTP client timeout, for logging.
func (c *FaceClient) Timeout() time.Duration {
	return c.client.Timeout
}
