// Package cdx implements the CDX fetcher: construction against a source
// (cc, ia, or a raw endpoint URL), paged get/iter, and the lazily-populated
// CaptureObject, grounded on cdx_toolkit's __init__.py and commoncrawl.py.
package cdx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sigman78/cdxt/internal/cdxerr"
	"github.com/sigman78/cdxt/internal/commoncrawl"
	"github.com/sigman78/cdxt/internal/compat"
	"github.com/sigman78/cdxt/internal/httpx"
)

// Capture is one normalized CDX row. Field names are always pywb-dialect.
type Capture struct {
	URLKey    string
	Timestamp string
	URL       string
	Mime      string
	Status    string
	Digest    string
	Length    string
	Offset    string
	Filename  string
}

// IsRevisit reports whether this capture's content is a revisit record.
func (c Capture) IsRevisit() bool { return c.Mime == "warc/revisit" }

const defaultLinesPerPage = 3000

// Params is the caller-supplied query, copied and mutated per call.
type Params struct {
	URL       string
	Limit     int
	From      string
	To        string
	Closest   string
	Filters   []string
	MatchType string
	Crawl     []string
	SortOrder string // "ascending" or "mixed" (default)
}

// Fetcher resolves a source to an ordered endpoint list and issues paged
// CDX requests against it.
type Fetcher struct {
	client     *httpx.Client
	source     string // "cc", "ia", or a raw endpoint URL
	endpoints  []string
	warcPrefix string
	wbPrefix   string
	sortOrder  string
}

// NewCC builds a Fetcher against Common Crawl, resolving the endpoint list
// via the given params' from/to/closest/crawl.
func NewCC(ctx context.Context, client *httpx.Client, p Params) (*Fetcher, error) {
	from, to, err := commoncrawl.ApplyDefaults(p.Closest, p.From, p.To)
	if err != nil {
		return nil, err
	}
	sel, err := commoncrawl.SelectEndpoints(ctx, client, p.Crawl, from, to)
	if err != nil {
		return nil, err
	}
	endpoints := sel.Endpoints
	sortOrder := p.SortOrder
	if sortOrder == "" {
		sortOrder = "mixed"
	}
	if sortOrder == "mixed" {
		endpoints = reversed(endpoints)
	}
	return &Fetcher{
		client:     client,
		source:     "cc",
		endpoints:  endpoints,
		warcPrefix: "https://commoncrawl.s3.amazonaws.com",
		sortOrder:  sortOrder,
	}, nil
}

// NewIA builds a Fetcher against the Internet Archive's Wayback CDX server.
func NewIA(client *httpx.Client) *Fetcher {
	return &Fetcher{
		client:    client,
		source:    "ia",
		endpoints: []string{"https://web.archive.org/cdx/search/cdx"},
		wbPrefix:  "https://web.archive.org/web",
	}
}

// NewRaw builds a Fetcher against a single caller-specified CDX endpoint URL.
func NewRaw(client *httpx.Client, endpoint string) *Fetcher {
	return &Fetcher{client: client, source: endpoint, endpoints: []string{endpoint}}
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// WarcDownloadPrefix returns the default WARC fetch prefix for this
// fetcher's source (empty for IA, which uses wayback vivification instead).
func (f *Fetcher) WarcDownloadPrefix() string { return f.warcPrefix }

// WBPrefix returns the wayback playback prefix for this fetcher's source
// (empty for CC).
func (f *Fetcher) WBPrefix() string { return f.wbPrefix }

func (f *Fetcher) buildQuery(p Params, page int) url.Values {
	q := url.Values{}
	q.Set("url", p.URL)
	q.Set("output", "json")
	if p.Limit != 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.From != "" {
		q.Set("from", p.From)
	}
	if p.To != "" {
		q.Set("to", p.To)
	}
	if p.Closest != "" {
		q.Set("closest", p.Closest)
	}
	if p.MatchType != "" {
		q.Set("matchType", p.MatchType)
	}
	for _, flt := range p.Filters {
		translated, _ := compat.TranslateFilter(flt, f.source)
		q.Add("filter", translated)
	}
	if page >= 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// Get performs an eager, single-shot fetch honoring a default limit of 1000
// when the caller did not set one, returning all captures up to that limit
// across every endpoint in order.
func (f *Fetcher) Get(ctx context.Context, p Params) ([]Capture, error) {
	if p.Limit == 0 {
		p.Limit = 1000
	}
	var out []Capture
	it := f.Iter(ctx, p)
	for it.Next() {
		out = append(out, it.Capture())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// state constants for the per-endpoint paged state machine.
const (
	stateAdvance = iota
	stateLastPage
	stateExhausted
)

// Iterator lazily pages through every endpoint in order, honoring p.Limit.
type Iterator struct {
	f       *Fetcher
	ctx     context.Context
	params  Params
	epIdx   int
	page    int
	state   int
	buffer  []Capture
	current Capture
	remain  int // remaining_limit; 0 means unlimited
	err     error
}

// Iter returns a lazy iterator honoring p.Limit (0 means unlimited).
func (f *Fetcher) Iter(ctx context.Context, p Params) *Iterator {
	return &Iterator{f: f, ctx: ctx, params: p, page: -1, remain: p.Limit}
}

// Next advances to the next capture, returning false at end-of-stream or on
// error (check Err to distinguish).
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.params.Limit > 0 && it.remain <= 0 {
			return false
		}
		if len(it.buffer) > 0 {
			it.current = it.buffer[0]
			it.buffer = it.buffer[1:]
			if it.params.Limit > 0 {
				it.remain--
			}
			return true
		}
		if it.epIdx >= len(it.f.endpoints) {
			return false
		}
		switch it.state {
		case stateAdvance:
			it.page++
			records, lastPage, err := it.fetchPage()
			if err != nil {
				it.err = err
				return false
			}
			if lastPage {
				it.state = stateLastPage
				continue
			}
			it.buffer = records
		case stateLastPage:
			it.epIdx++
			it.page = -1
			it.state = stateAdvance
			if it.epIdx >= len(it.f.endpoints) {
				it.state = stateExhausted
			}
		case stateExhausted:
			return false
		}
	}
}

// Capture returns the current capture after a successful Next.
func (it *Iterator) Capture() Capture { return it.current }

// Err returns any error that stopped iteration early.
func (it *Iterator) Err() error { return it.err }

func (it *Iterator) fetchPage() (records []Capture, lastPage bool, err error) {
	endpoint := it.f.endpoints[it.epIdx]
	q := it.f.buildQuery(it.params, it.page)
	resp, err := it.f.client.Get(it.ctx, endpoint, httpx.Options{Params: q, CDXMode: true})
	if err != nil {
		return nil, false, err
	}
	if resp.Empty {
		return nil, true, nil
	}
	trimmed := strings.TrimSpace(string(resp.Body))
	if trimmed == "" || trimmed == "[]" {
		return nil, true, nil
	}
	if it.f.source == "ia" {
		var rows [][]string
		if err := json.Unmarshal(resp.Body, &rows); err != nil {
			return nil, false, fmt.Errorf("%w: %v", cdxerr.BadCDXResponse, err)
		}
		if len(rows) < 2 {
			return nil, true, nil
		}
		fields := rows[0]
		objs := compat.NormalizeFields(fields, rows[1:])
		for _, obj := range objs {
			records = append(records, captureFromMap(obj))
		}
		return records, false, nil
	}

	lines := strings.Split(strings.TrimSpace(string(resp.Body)), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		var obj map[string]string
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, false, fmt.Errorf("%w: %v", cdxerr.BadCDXResponse, err)
		}
		records = append(records, captureFromMap(obj))
	}
	return records, false, nil
}

func captureFromMap(m map[string]string) Capture {
	return Capture{
		URLKey:    m["urlkey"],
		Timestamp: m["timestamp"],
		URL:       m["url"],
		Mime:      m["mime"],
		Status:    m["status"],
		Digest:    m["digest"],
		Length:    m["length"],
		Offset:    m["offset"],
		Filename:  m["filename"],
	}
}

// EndpointEstimate is one endpoint's contribution to a size estimate.
type EndpointEstimate struct {
	Endpoint string
	Pages    float64
}

// GetSizeEstimate sums showNumPages across every endpoint and converts
// pages to an estimated record count via the fixed lines-per-page constant,
// with the partial-boundary-page adjustment.
func (f *Fetcher) GetSizeEstimate(ctx context.Context, p Params, asPages bool) (float64, error) {
	details, err := f.GetSizeEstimateDetails(ctx, p)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, d := range details {
		total += d.Pages
	}
	if asPages {
		return total, nil
	}
	samples := total * defaultLinesPerPage
	if total > 1 {
		samples -= defaultLinesPerPage
	} else if total == 1 {
		samples -= defaultLinesPerPage / 2
	}
	if samples < 0 {
		samples = 0
	}
	return samples, nil
}

// GetSizeEstimateDetails queries showNumPages at every endpoint individually,
// returning the per-endpoint page counts instead of just their sum (backs
// the "size -details" breakdown).
func (f *Fetcher) GetSizeEstimateDetails(ctx context.Context, p Params) ([]EndpointEstimate, error) {
	out := make([]EndpointEstimate, 0, len(f.endpoints))
	for _, endpoint := range f.endpoints {
		q := f.buildQuery(p, -1)
		q.Set("showNumPages", "true")
		resp, err := f.client.Get(ctx, endpoint, httpx.Options{Params: q, CDXMode: true})
		if err != nil {
			return nil, err
		}
		if resp.Empty {
			out = append(out, EndpointEstimate{Endpoint: endpoint})
			continue
		}
		pages, err := parsePageCount(resp.Body, f.source)
		if err != nil {
			return nil, err
		}
		out = append(out, EndpointEstimate{Endpoint: endpoint, Pages: pages})
	}
	return out, nil
}

func parsePageCount(body []byte, source string) (float64, error) {
	if source == "ia" {
		var n int
		if err := json.Unmarshal(body, &n); err != nil {
			return 0, fmt.Errorf("%w: showNumPages body: %v", cdxerr.BadCDXResponse, err)
		}
		return float64(n), nil
	}
	var obj struct {
		Blocks int `json:"blocks"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0, fmt.Errorf("%w: showNumPages body: %v", cdxerr.BadCDXResponse, err)
	}
	return float64(obj.Blocks), nil
}
