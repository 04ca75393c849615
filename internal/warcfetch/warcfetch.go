// Package warcfetch retrieves a single WARC record addressed by a CDX
// capture, either via a direct byte-range GET against a WARC-hosting
// prefix (typical for Common Crawl) or by synthesizing one from an
// Internet Archive Wayback playback response ("vivification"), grounded
// on cdx_toolkit's warc.py and the teacher's internal/wayback download path.
package warcfetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/slyrz/warc"

	"github.com/sigman78/cdxt/internal/cdx"
	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/logx"
)

// Fetcher implements cdx.RecordFetcher using an httpx.Client for the
// underlying byte-range and wayback playback GETs.
type Fetcher struct {
	client *httpx.Client
	log    *logx.Logger
}

// New builds a Fetcher. log may be nil.
func New(client *httpx.Client, log *logx.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// FetchDirect issues a byte-range GET of warcPrefix+"/"+capture.Filename
// and returns the serialized WARC record.
func (f *Fetcher) FetchDirect(ctx context.Context, warcPrefix string, c cdx.Capture) ([]byte, error) {
	offset, _ := strconv.Atoi(c.Offset)
	length, _ := strconv.Atoi(c.Length)
	fetchURL := strings.TrimSuffix(warcPrefix, "/") + "/" + c.Filename

	headers := map[string][]string{
		"Range": {fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)},
	}
	resp, err := f.client.Get(ctx, fetchURL, httpx.Options{Headers: headers})
	if err != nil {
		return nil, err
	}

	body := resp.Body
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("warcfetch: ungzip record at %s: %w", fetchURL, err)
		}
		defer gz.Close()
		decoded, err := io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("warcfetch: ungzip record at %s: %w", fetchURL, err)
		}
		body = decoded
	}

	reader, err := warc.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("warcfetch: parse record at %s: %w", fetchURL, err)
	}
	defer reader.Close()
	record, err := reader.ReadRecord()
	if err != nil {
		return nil, fmt.Errorf("warcfetch: read record at %s: %w", fetchURL, err)
	}

	record.Header["WARC-Source-URI"] = fetchURL
	record.Header["WARC-Source-Range"] = fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	if target := record.Header["WARC-Target-URI"]; target != "" && target != c.URL {
		f.logf("WARC-Target-URI %q does not match capture url %q for %s", target, c.URL, fetchURL)
	}

	return serializeRecord(record)
}

// xArchiveOrigPrefix is the header prefix wayback uses to preserve the
// original archived response's HTTP headers under playback.
const xArchiveOrigPrefix = "X-Archive-Orig-"

// FetchVivified reconstructs a synthetic WARC response record from a
// wayback playback fetch of capture c.
func (f *Fetcher) FetchVivified(ctx context.Context, wbPrefix string, c cdx.Capture) ([]byte, error) {
	wbURL := strings.TrimSuffix(wbPrefix, "/") + "/" + c.Timestamp + "id_/" + quotePath(c.URL)

	allow404 := c.Status == "404" || c.Status == "-"
	resp, err := f.client.Get(ctx, wbURL, httpx.Options{Allow404: allow404})
	if err != nil {
		return nil, err
	}

	record := warc.NewRecord()
	record.Header["WARC-Type"] = "response"
	record.Header["WARC-Target-URI"] = c.URL
	record.Header["WARC-Source-URI"] = wbURL

	httpHeaders := make(map[string]string)
	for k, vs := range resp.Header {
		if len(vs) == 0 {
			continue
		}
		v := vs[0]
		switch {
		case strings.HasPrefix(k, xArchiveOrigPrefix):
			httpHeaders[strings.TrimPrefix(k, xArchiveOrigPrefix)] = v
		case strings.EqualFold(k, "Location"):
			httpHeaders[k] = unwrapWaybackLocation(v)
		default:
			httpHeaders[k] = v
		}
	}
	if d, ok := httpHeaders["Date"]; ok {
		record.Header["WARC-Date"] = d
	}

	f.reconcileStatus(c, resp.StatusCode)

	record.Content = buildHTTPResponse(resp.StatusCode, httpHeaders, resp.Body)
	return serializeRecord(record)
}

// quoteUnreserved is the RFC 3986 unreserved set plus '/', matching Python's
// urllib.parse.quote default safe="/" so a wayback playback URL's path
// segment keeps its slashes literal instead of percent-encoding them.
const quoteUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.~/"

// quotePath percent-encodes s the way Python's urllib.parse.quote does by
// default: every byte except the unreserved set and '/' is escaped.
func quotePath(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(quoteUnreserved, c) >= 0 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// unwrapWaybackLocation strips wayback's id_ playback rewriting off a
// Location header, e.g. "https://web.archive.org/web/20200101000000id_/http://x"
// becomes "http://x".
func unwrapWaybackLocation(loc string) string {
	if idx := strings.Index(loc, "id_/"); idx >= 0 {
		return loc[idx+len("id_/"):]
	}
	return loc
}

// reconcileStatus warns when the live wayback status and the captured
// status fall outside the documented equivalence classes.
func (f *Fetcher) reconcileStatus(c cdx.Capture, liveStatus int) {
	switch {
	case c.Status == "-" && liveStatus == 200:
		// revisit vivified to a 200 body: expected, not worth a log.
	case isRedirectStatus(c.Status) && liveStatus == 200:
		f.logf("same-surt same-timestamp alias: capture status %s now serves 200 for %s", c.Status, c.URL)
	case c.Status != "" && liveStatus != 200 && liveStatus != 302 && strconv.Itoa(liveStatus) != c.Status:
		f.logf("unexpected vivified status %d for capture status %s on %s", liveStatus, c.Status, c.URL)
	}
}

func isRedirectStatus(status string) bool {
	return strings.HasPrefix(status, "30")
}

func buildHTTPResponse(status int, headers map[string]string, body []byte) io.Reader {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", status, statusText(status))
	for k, v := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	return io.MultiReader(strings.NewReader(b.String()), bytes.NewReader(body))
}

func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 302:
		return "Found"
	case 404:
		return "Not Found"
	default:
		return ""
	}
}

func serializeRecord(record *warc.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := warc.NewWriter(&buf)
	if _, err := writer.WriteRecord(record); err != nil {
		return nil, fmt.Errorf("warcfetch: serialize record: %w", err)
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) logf(format string, args ...interface{}) {
	if f.log == nil {
		return
	}
	f.log.Warningf(format, args...)
}
