package httpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUploadSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)

		if hdr.Filename != "frame.jpg" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("content type = %q", ct)
		}
		w.Write(data)
	}))
	defer srv.Close()

	code, body, err := Upload(context.Background(), NewClient(time.Second), srv.URL, File{
		Field:       "file",
		Filename:    "frame.jpg",
		ContentType: "image/jpeg",
		Data:        []byte{0xff, 0xd8, 0xff},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if code != http.StatusOK {
		t.Errorf("code = %d", code)
	}
	if string(body) != "\xff\xd8\xff" {
		t.Errorf("echoed body = %q", body)
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	if c := NewClient(0); c.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
}
