package perception

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFaceResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"match", `{"data":{"status":"success","similarity":0.91,"name":"alice"}}`, "alice", false},
		{"at threshold", `{"data":{"status":"success","similarity":0.85,"name":"alice"}}`, "", false},
		{"low score", `{"data":{"status":"success","similarity":0.5,"name":"alice"}}`, "", false},
		{"failed status", `{"data":{"status":"no_face","similarity":0.99,"name":"alice"}}`, "", false},
		{"no data", `{"error":"boom"}`, "", true},
		{"null data", `{"data":null}`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFaceResponse([]byte(tt.body), DefaultSimilarityThreshold)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpeechResponse(t *testing.T) {
	text, err := ParseSpeechResponse([]byte(`{"data":"我们跳个舞吧"}`))
	require.NoError(t, err)
	assert.Equal(t, "我们跳个舞吧", text)

	text, err = ParseSpeechResponse([]byte(`{"data":""}`))
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = ParseSpeechResponse([]byte(`{"text":"hi"}`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func uploadServer(t *testing.T, wantFile, wantType string, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, wantFile, hdr.Filename)
		assert.Equal(t, wantType, hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("payload"), data)
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFaceClientIdentify(t *testing.T) {
	srv := uploadServer(t, "frame.jpg", "image/jpeg", http.StatusOK,
		`{"data":{"status":"success","similarity":0.9,"name":"alice"}}`)

	name, err := NewFaceClient(srv.URL).Identify(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	// A stricter threshold rejects the same answer.
	name, err = NewFaceClient(srv.URL, WithThreshold(0.95)).Identify(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestFaceClientRecognize(t *testing.T) {
	srv := uploadServer(t, "frame.jpg", "image/jpeg", http.StatusOK,
		`{"data":{"status":"success","similarity":0.8,"name":"bob"}}`)

	m, err := NewFaceClient(srv.URL).Recognize(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "bob", m.Name)
	assert.False(t, m.Matched(DefaultSimilarityThreshold))
	assert.True(t, m.Matched(0.5))

	for _, body := range []string{`{"data":null}`, `not json`} {
		bad := uploadServer(t, "frame.jpg", "image/jpeg", http.StatusOK, body)
		_, err := NewFaceClient(bad.URL).Recognize(context.Background(), []byte("payload"))
		assert.ErrorIs(t, err, ErrMalformedResponse, body)
	}
}

func TestFaceClientAPIError(t *testing.T) {
	srv := uploadServer(t, "frame.jpg", "image/jpeg", http.StatusBadGateway, "upstream down")

	_, err := NewFaceClient(srv.URL).Identify(context.Background(), []byte("payload"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, apiErr.IsServerError())
	assert.True(t, apiErr.IsRetryable())
	assert.Equal(t, "upstream down", apiErr.Body)
}

func TestSpeechClientTranscribe(t *testing.T) {
	srv := uploadServer(t, "voice.wav", "audio/wav", http.StatusOK, `{"data":"握个手"}`)

	text, err := NewSpeechClient(srv.URL, nil).Transcribe(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "握个手", text)
}

func TestFaceAdmin(t *testing.T) {
	names := []string{"alice"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /face/register", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		names = append(names, r.URL.Query().Get("name"))
		io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("GET /face/list", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":["`+names[0]+`","`+names[len(names)-1]+`"]}`)
	})
	mux.HandleFunc("DELETE /face/delete", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "bob smith" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"status":"deleted"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	admin := NewFaceAdmin(srv.URL+"/", nil)
	ctx := context.Background()

	out, err := admin.Register(ctx, "bob smith", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out["status"])

	list, err := admin.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob smith"}, list)

	out, err = admin.Delete(ctx, "bob smith")
	require.NoError(t, err)
	assert.Equal(t, "deleted", out["status"])

	_, err = admin.Delete(ctx, "carol")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}
