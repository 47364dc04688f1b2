package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/blackmichael/skybridge/internal/bluesky"
)

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	fail    bool
}

func (u *fakeUploader) UploadBlob(_ context.Context, data []byte, mimeType string) (*bluesky.BlobRef, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return nil, errors.New("blob store said no")
	}
	u.uploads = append(u.uploads, string(data))

	blob := &bluesky.BlobRef{Type: "blob", MimeType: mimeType, Size: len(data)}
	blob.Ref.Link = fmt.Sprintf("link-%s", data)
	return blob, nil
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, name)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTransload(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	uploader := &fakeUploader{}
	transloader := NewTransloader(uploader)

	urls := []string{server.URL + "/a.png", server.URL + "/b.png", server.URL + "/c.png"}
	blobs, err := transloader.Transload(context.Background(), urls)
	if err != nil {
		t.Fatalf("Transload() error = %v", err)
	}
	if len(blobs) != 3 {
		t.Fatalf("got %d blobs, want 3", len(blobs))
	}

	// result order must match input order regardless of completion order
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		if got := blobs[i].Ref.Link; got != "link-"+name {
			t.Errorf("blobs[%d].Ref.Link = %q, want %q", i, got, "link-"+name)
		}
		if blobs[i].MimeType != "image/png" {
			t.Errorf("blobs[%d].MimeType = %q, want image/png", i, blobs[i].MimeType)
		}
	}
}

func TestTransloadDownloadFailure(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	transloader := NewTransloader(&fakeUploader{})

	urls := []string{server.URL + "/a.png", server.URL + "/missing.png"}
	blobs, err := transloader.Transload(context.Background(), urls)
	if blobs != nil {
		t.Errorf("got partial blobs %v, want nil on any failure", blobs)
	}

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.URL != server.URL+"/missing.png" {
		t.Errorf("DownloadError.URL = %q, want the failing URL", dlErr.URL)
	}
}

func TestTransloadUploadFailure(t *testing.T) {
	t.Parallel()

	server := newImageServer(t)
	transloader := NewTransloader(&fakeUploader{fail: true})

	blobs, err := transloader.Transload(context.Background(), []string{server.URL + "/a.png"})
	if blobs != nil {
		t.Errorf("got blobs %v, want nil on upload failure", blobs)
	}

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
	if upErr.URL != server.URL+"/a.png" {
		t.Errorf("UploadError.URL = %q, want the failing URL", upErr.URL)
	}
}

func TestTransloadEmptyBatch(t *testing.T) {
	t.Parallel()

	transloader := NewTransloader(&fakeUploader{})
	blobs, err := transloader.Transload(context.Background(), nil)
	if err != nil {
		t.Fatalf("Transload(nil) error = %v", err)
	}
	if len(blobs) != 0 {
		t.Errorf("got %d blobs, want 0", len(blobs))
	}
}
