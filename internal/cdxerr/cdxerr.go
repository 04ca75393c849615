// Package cdxerr defines the sentinel error kinds shared across cdxt's
// CDX and WARC subsystems, so callers can classify failures with errors.Is
// instead of string matching.
package cdxerr

import "errors"

var (
	// BadTimestamp is returned when a 14-digit CDX timestamp cannot be parsed.
	BadTimestamp = errors.New("cdxt: bad timestamp")

	// BadHostname is returned when a DNS lookup fails for a host never seen
	// to succeed before; the caller should treat this as fatal rather than
	// retrying indefinitely.
	BadHostname = errors.New("cdxt: bad hostname")

	// BadCDXResponse is returned when a CDX response body cannot be parsed
	// and the call was not in cdx-empty-tolerant mode.
	BadCDXResponse = errors.New("cdxt: bad cdx response")

	// InvalidTimestamp is returned in place of BadTimestamp when an
	// unparsable value looks like a unix epoch rather than a CDX timestamp;
	// it does not wrap BadTimestamp.
	InvalidTimestamp = errors.New("cdxt: invalid timestamp")

	// CrawlMismatch is returned when none of the caller's crawl substrings
	// matched any Common Crawl endpoint.
	CrawlMismatch = errors.New("cdxt: no crawl matched")

	// ConfigError is returned for invalid fetcher construction, e.g.
	// conflicting source options.
	ConfigError = errors.New("cdxt: config error")

	// NoContentSource is returned when a CaptureObject has neither a
	// wayback prefix nor a WARC download prefix configured.
	NoContentSource = errors.New("cdxt: no content source configured")

	// RecordFetchFailed is returned by the WARC record fetcher when the
	// byte-range GET cannot be completed.
	RecordFetchFailed = errors.New("cdxt: warc record fetch failed")

	// WriterCompleteFailed is returned when completing a shard (local
	// close or S3 CompleteMultipartUpload) fails.
	WriterCompleteFailed = errors.New("cdxt: writer complete failed")
)
