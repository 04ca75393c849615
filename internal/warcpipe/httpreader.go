package warcpipe

import (
	"context"
	"fmt"

	"github.com/sigman78/cdxt/internal/httpx"
)

// HTTPRangeReader fetches each RangeJob as an HTTP byte-range GET,
// covering the common case of CDX-file-driven extraction from a fixed
// WARC-hosting prefix (S3-backed ranges use the same Range header over
// the bucket's HTTPS endpoint, per the CC default WARC download prefix).
type HTTPRangeReader struct {
	client *httpx.Client
}

// NewHTTPRangeReader builds a RangeReader backed by an httpx.Client.
func NewHTTPRangeReader(client *httpx.Client) *HTTPRangeReader {
	return &HTTPRangeReader{client: client}
}

// FetchRange issues a ranged GET for job.URL.
func (r *HTTPRangeReader) FetchRange(ctx context.Context, job RangeJob) ([]byte, error) {
	headers := map[string][]string{
		"Range": {fmt.Sprintf("bytes=%d-%d", job.Offset, job.Offset+job.Length-1)},
	}
	resp, err := r.client.Get(ctx, job.URL, httpx.Options{Headers: headers})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
