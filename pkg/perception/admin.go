package perception

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/go-magicdog/internal/httpc"
)

// FaceAdmin manages the face backend's registered people.
type FaceAdmin struct {
	base   string
	client *http.Client
}

// NewFaceAdmin creates an admin client for the backend rooted at base,
// e.g. "http://host:3999".
func NewFaceAdmin(base string, hc *http.Client) *FaceAdmin {
	if hc == nil {
		hc = httpc.NewClient(httpc.DefaultTimeout)
	}
	return &FaceAdmin{base: strings.TrimRight(base, "/"), client: hc}
}

func (a *FaceAdmin) endpoint(path, name string) string {
	u := a.base + path
	if name != "" {
		u += "?name=" + url.QueryEscape(name)
	}
	return u
}

// Register adds name with one JPEG sample and returns the backend's reply.
func (a *FaceAdmin) Register(ctx context.Context, name string, jpeg []byte) (map[string]any, error) {
	u := a.endpoint("/face/register", name)
	code, body, err := httpc.Upload(ctx, a.client, u, httpc.File{
		Field:       "file",
		Filename:    "frame.jpg",
		ContentType: "image/jpeg",
		Data:        jpeg,
	})
	if err != nil {
		return nil, err
	}
	return decodeAdmin(u, code, body)
}

// List returns the registered names.
func (a *FaceAdmin) List(ctx context.Context) ([]string, error) {
	u := a.endpoint("/face/list", "")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	code, body, err := httpc.Do(a.client, req)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, newAPIError(u, code, body)
	}

	// Names arrive under "data" or "names".
	var resp struct {
		Data  []string `json:"data"`
		Names []string `json:"names"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, malformed("face list: %v", err)
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	if resp.Names != nil {
		return resp.Names, nil
	}
	return nil, malformed("face list: no names")
}

// Delete removes name.
func (a *FaceAdmin) Delete(ctx context.Context, name string) (map[string]any, error) {
	u := a.endpoint("/face/delete", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return nil, err
	}
	code, body, err := httpc.Do(a.client, req)
	if err != nil {
		return nil, err
	}
	return decodeAdmin(u, code, body)
}

func decodeAdmin(u string, code int, body []byte) (map[string]any, error) {
	if code != http.StatusOK {
		return nil, newAPIError(u, code, body)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, malformed("face admin: %v", err)
	}
	return out, nil
}
