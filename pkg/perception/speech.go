package perception

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/teslashibe/go-magicdog/internal/httpc"
)

type speechResponse struct {
	Data *string `json:"data"`
}

// ParseSpeechResponse extracts the transcript from a speech backend body.
func ParseSpeechResponse(body []byte) (string, error) {
	var resp speechResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", malformed("speech: %v", err)
	}
	if resp.Data == nil {
		return "", malformed("speech: missing data")
	}
	return *resp.Data, nil
}

// SpeechClient uploads voice audio to the speech recognition backend.
type SpeechClient struct {
	url    string
	client *http.Client
}

// NewSpeechClient creates a client posting audio to url. A nil hc uses the
// default 10 s client.
func NewSpeechClient(url string, hc *http.Client) *SpeechClient {
	if hc == nil {
		hc = httpc.NewClient(httpc.DefaultTimeout)
	}
	return &SpeechClient{url: url, client: hc}
}

// Transcribe uploads audio as voice.wav and returns the recognised text.
// The robot's beam-formed chunks are sent as they arrive, without a header.
func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return c.TranscribeFile(ctx, "voice.wav", audio)
}

// TranscribeFile is Transcribe with an explicit upload filename.
func (c *SpeechClient) TranscribeFile(ctx context.Context, filename string, audio []byte) (string, error) {
	code, body, err := httpc.Upload(ctx, c.client, c.url, httpc.File{
		Field:       "file",
		Filename:    filename,
		ContentType: "audio/wav",
		Data:        audio,
	})
	if err != nil {
		return "", err
	}
	if code != http.StatusOK {
		return "", newAPIError(c.url, code, body)
	}
	return ParseSpeechResponse(body)
}
