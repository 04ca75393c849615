package cdx

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sigman78/cdxt/internal/cdxerr"
)

// RecordFetcher fetches the WARC record backing a Capture, either via
// direct byte-range GET (warcDownloadPrefix) or wayback vivification
// (wbPrefix). Implemented by package warcfetch; declared here to avoid an
// import cycle between cdx and warcfetch.
type RecordFetcher interface {
	FetchDirect(ctx context.Context, warcPrefix string, c Capture) ([]byte, error)
	FetchVivified(ctx context.Context, wbPrefix string, c Capture) ([]byte, error)
}

// CaptureObject wraps one Capture with lazy, cached access to its backing
// WARC record and decoded content.
type CaptureObject struct {
	Capture Capture

	warcPrefix string
	wbPrefix   string
	fetcher    RecordFetcher

	once       sync.Once
	record     []byte
	recordErr  error
}

// NewCaptureObject builds a CaptureObject. fetcher may be nil if the caller
// never intends to access content (CDX-only use).
func NewCaptureObject(c Capture, warcPrefix, wbPrefix string, fetcher RecordFetcher) *CaptureObject {
	return &CaptureObject{Capture: c, warcPrefix: warcPrefix, wbPrefix: wbPrefix, fetcher: fetcher}
}

// IsRevisit reports whether the underlying capture is a revisit record.
func (o *CaptureObject) IsRevisit() bool { return o.Capture.IsRevisit() }

// FetchWARCRecord returns the raw WARC record bytes, fetching (and caching)
// on first access.
func (o *CaptureObject) FetchWARCRecord(ctx context.Context) ([]byte, error) {
	o.once.Do(func() {
		if o.fetcher == nil {
			o.recordErr = cdxerr.NoContentSource
			return
		}
		if o.wbPrefix != "" {
			o.record, o.recordErr = o.fetcher.FetchVivified(ctx, o.wbPrefix, o.Capture)
			return
		}
		if o.warcPrefix != "" {
			o.record, o.recordErr = o.fetcher.FetchDirect(ctx, o.warcPrefix, o.Capture)
			return
		}
		o.recordErr = cdxerr.NoContentSource
	})
	return o.record, o.recordErr
}

// Content returns the WARC record's payload bytes (the record minus its
// WARC header block). Callers needing the full record use FetchWARCRecord.
func (o *CaptureObject) Content(ctx context.Context) ([]byte, error) {
	record, err := o.FetchWARCRecord(ctx)
	if err != nil {
		return nil, err
	}
	sep := []byte("\r\n\r\n")
	if i := bytes.Index(record, sep); i >= 0 {
		return bytes.TrimSuffix(record[i+len(sep):], sep), nil
	}
	return record, nil
}

// Text returns Content decoded as UTF-8, replacing invalid sequences.
func (o *CaptureObject) Text(ctx context.Context) (string, error) {
	b, err := o.Content(ctx)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// LengthInt parses Capture.Length as an integer, returning 0 if empty or
// unparsable (some endpoints omit it).
func (o *CaptureObject) LengthInt() int {
	n, err := strconv.Atoi(o.Capture.Length)
	if err != nil {
		return 0
	}
	return n
}

// OffsetInt parses Capture.Offset as an integer, returning 0 if empty or
// unparsable.
func (o *CaptureObject) OffsetInt() int {
	n, err := strconv.Atoi(o.Capture.Offset)
	if err != nil {
		return 0
	}
	return n
}

func (o *CaptureObject) String() string {
	return fmt.Sprintf("CaptureObject(%s @ %s)", o.Capture.URL, o.Capture.Timestamp)
}
