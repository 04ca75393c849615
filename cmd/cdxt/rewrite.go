package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/slyrz/warc"

	"github.com/sigman78/cdxt/internal/cdx"
	"github.com/sigman78/cdxt/internal/htmlrewrite"
)

// buildURLResolver maps every capture's own URL to a relative local path,
// so htmlrewrite can turn links between pages captured in the same run
// into relative references instead of leaving them pointing at the live web.
// Each path is relPathForURL of the target URL, i.e. relative to the site
// root; it is the same whichever page holds the link, so it is not adjusted
// for pages below the root.
func buildURLResolver(captures []cdx.Capture) htmlrewrite.Resolver {
	byURL := make(map[string]string, len(captures))
	for _, c := range captures {
		byURL[c.URL] = relPathForURL(c.URL)
	}
	return func(resolvedURL string) (string, bool) {
		p, ok := byURL[resolvedURL]
		return p, ok
	}
}

// relPathForURL turns an absolute URL's path into a relative filesystem-ish
// path fragment, defaulting empty/directory paths to index.html.
func relPathForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" || strings.HasSuffix(u.Path, "/") {
		p += "index.html"
	}
	return p
}

// rewriteRecordContent re-parses a serialized WARC response record and, if
// its payload is HTML or CSS, rewrites internal links through resolve
// before re-serializing. Records that aren't HTTP responses, or whose
// content doesn't sniff as HTML/CSS, pass through unchanged.
func rewriteRecordContent(record []byte, pageURL string, resolve htmlrewrite.Resolver) ([]byte, error) {
	reader, err := warc.NewReader(bytes.NewReader(record))
	if err != nil {
		return record, nil
	}
	defer reader.Close()
	rec, err := reader.ReadRecord()
	if err != nil {
		return record, nil
	}

	raw, err := io.ReadAll(rec.Content)
	if err != nil {
		return record, nil
	}

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return record, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return record, nil
	}

	contentType := resp.Header.Get("Content-Type")
	var rewritten []byte
	switch {
	case htmlrewrite.IsHTMLFile(pageURL, contentType, body):
		rewritten, err = htmlrewrite.RewriteHTML(body, pageURL, resolve)
		if err != nil {
			return record, nil
		}
	case htmlrewrite.IsCSSResource(pageURL, contentType):
		rewritten = []byte(htmlrewrite.RewriteCSSContent(string(body), pageURL, resolve))
	default:
		return record, nil
	}

	resp.Header.Set("Content-Length", strconv.Itoa(len(rewritten)))
	var respBuf bytes.Buffer
	fmt.Fprintf(&respBuf, "HTTP/1.1 %d %s\r\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	resp.Header.Write(&respBuf)
	respBuf.WriteString("\r\n")
	respBuf.Write(rewritten)
	rec.Content = bytes.NewReader(respBuf.Bytes())

	var out bytes.Buffer
	writer := warc.NewWriter(&out)
	if _, err := writer.WriteRecord(rec); err != nil {
		return nil, fmt.Errorf("rewrite record: %w", err)
	}
	return out.Bytes(), nil
}
