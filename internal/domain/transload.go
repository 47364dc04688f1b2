package domain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blackmichael/skybridge/internal/bluesky"
	"golang.org/x/sync/errgroup"
)

// Transloader moves image assets from the source platform to the destination
// platform's blob store without keeping them.
type Transloader struct {
	uploader   BlobUploader
	httpClient *http.Client
}

// NewTransloader creates a Transloader that uploads through the given
// uploader.
func NewTransloader(uploader BlobUploader) *Transloader {
	return &Transloader{
		uploader: uploader,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Transload downloads every URL and re-uploads the bytes as destination
// blobs, concurrently. The returned slice preserves input order. The batch
// is all-or-nothing: if any item fails, the whole call fails, so a post is
// never published with a subset of its images. Failures carry the offending
// URL as a DownloadError or UploadError.
func (t *Transloader) Transload(ctx context.Context, urls []string) ([]*bluesky.BlobRef, error) {
	blobs := make([]*bluesky.BlobRef, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			data, mimeType, err := t.download(ctx, u)
			if err != nil {
				return &DownloadError{URL: u, Err: err}
			}

			blob, err := t.uploader.UploadBlob(ctx, data, mimeType)
			if err != nil {
				return &UploadError{URL: u, Err: err}
			}

			blobs[i] = blob
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

func (t *Transloader) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}
