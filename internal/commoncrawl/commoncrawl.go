// Package commoncrawl resolves Common Crawl index names against the
// collinfo.json catalog and implements the closest-timestamp and
// crawl-list selection logic used by the "cc" source, grounded on
// cdx_toolkit's commoncrawl.py.
package commoncrawl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sigman78/cdxt/internal/cdxerr"
	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/timeutil"
)

const collinfoURL = "https://index.commoncrawl.org/collinfo.json"

const minExpectedEndpoints = 60

const cacheTTL = 24 * time.Hour

// Endpoint describes one published Common Crawl index.
type Endpoint struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	CDXAPI string `json:"cdx-API"`
}

type cacheFile struct {
	FetchedAt time.Time  `json:"fetched_at"`
	Endpoints []Endpoint `json:"endpoints"`
}

// CacheDir returns the directory used to cache collinfo.json, honoring
// XDG_CACHE_HOME and falling back to os.UserCacheDir.
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cdxt"), nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "cdxt"), nil
}

// ListEndpoints returns the full Common Crawl endpoint catalog, ordered
// oldest first, using a 24h on-disk cache to avoid hammering collinfo.json.
func ListEndpoints(ctx context.Context, client *httpx.Client) ([]Endpoint, error) {
	if cached, ok := readCache(); ok {
		return cached, nil
	}
	resp, err := client.Get(ctx, collinfoURL, httpx.Options{})
	if err != nil {
		return nil, fmt.Errorf("commoncrawl: fetch collinfo.json: %w", err)
	}
	var endpoints []Endpoint
	if err := json.Unmarshal(resp.Body, &endpoints); err != nil {
		return nil, fmt.Errorf("%w: collinfo.json: %v", cdxerr.BadCDXResponse, err)
	}
	if len(endpoints) < minExpectedEndpoints {
		return nil, fmt.Errorf("%w: collinfo.json only listed %d endpoints, expected at least %d",
			cdxerr.BadCDXResponse, len(endpoints), minExpectedEndpoints)
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].ID < endpoints[j].ID })
	writeCache(endpoints)
	return endpoints, nil
}

func cachePath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "collinfo.json"), nil
}

func readCache() ([]Endpoint, bool) {
	path, err := cachePath()
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixed cache path under our own cache dir
	if err != nil {
		return nil, false
	}
	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, false
	}
	if time.Since(cf.FetchedAt) > cacheTTL {
		return nil, false
	}
	if len(cf.Endpoints) < minExpectedEndpoints {
		return nil, false
	}
	return cf.Endpoints, true
}

func writeCache(endpoints []Endpoint) {
	path, err := cachePath()
	if err != nil {
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return
	}
	data, err := json.Marshal(cacheFile{FetchedAt: time.Now().UTC(), Endpoints: endpoints})
	if err != nil {
		return
	}
	tmp, err := os.CreateTemp(dir, ".collinfo-*.json")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return
	}
	if err := tmp.Close(); err != nil {
		return
	}
	os.Rename(tmpName, path)
}

// Selection is the resolved set of CDX API endpoint URLs plus the
// from/to window actually applied, for diagnostics.
type Selection struct {
	Endpoints []string
	From      string
	To        string
}

// ApplyDefaults fills in from/to when the caller asked for "closest":
// widen +/-3 calendar months around closest. Bounds the caller already
// supplied are kept as given; the derived bounds are not clamped.
func ApplyDefaults(closest, from, to string) (string, string, error) {
	if closest == "" {
		return from, to, nil
	}
	t, err := timeutil.ToEpoch(closest)
	if err != nil {
		return "", "", err
	}
	if from == "" {
		from = timeutil.FromEpoch(t.AddDate(0, -3, 0))
	}
	if to == "" {
		to = timeutil.FromEpoch(t.AddDate(0, 3, 0))
	}
	return from, to, nil
}

// MatchCrawls resolves the --crawl argument against the catalog. A single
// value that parses as an integer N selects the N most recent endpoints
// (by ID, ascending ID = oldest). Otherwise each value is matched as a
// case-sensitive substring of an endpoint ID; an unmatched value is an error.
func MatchCrawls(all []Endpoint, crawls []string) ([]Endpoint, error) {
	if len(crawls) == 1 {
		if n, ok := parseLastN(crawls[0]); ok {
			if n <= 0 || n > len(all) {
				return nil, fmt.Errorf("commoncrawl: requested last %d crawls, only %d available", n, len(all))
			}
			return all[len(all)-n:], nil
		}
	}
	var out []Endpoint
	for _, want := range crawls {
		matched := false
		for _, ep := range all {
			if strings.Contains(ep.ID, want) {
				out = append(out, ep)
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("commoncrawl: no crawl matched %q", want)
		}
	}
	return out, nil
}

// indexNameFragment strips the "CC-MAIN-" prefix off an endpoint ID,
// leaving the "YYYY-WW" (or pseudo-index) fragment CCIndexNameToEpoch wants.
func indexNameFragment(id string) string {
	return strings.TrimPrefix(id, "CC-MAIN-")
}

func parseLastN(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// BisectByTime returns the endpoints whose index covers any part of
// [from, to], assuming all is sorted ascending by ID (oldest first). Each
// endpoint's coverage window is [epoch(ID), epoch(next ID)) except the
// newest, which is open-ended.
func BisectByTime(all []Endpoint, from, to string) ([]Endpoint, error) {
	var fromT, toT time.Time
	var err error
	if from != "" {
		fromT, err = timeutil.ToEpoch(timeutil.PadLow(from))
		if err != nil {
			return nil, err
		}
	}
	if to != "" {
		toT, err = timeutil.ToEpoch(timeutil.PadHigh(to))
		if err != nil {
			return nil, err
		}
	}

	epochs := make([]time.Time, len(all))
	for i, ep := range all {
		name, err := timeutil.CCIndexNameToEpoch(indexNameFragment(ep.ID))
		if err != nil {
			return nil, fmt.Errorf("commoncrawl: endpoint %q: %w", ep.ID, err)
		}
		epochs[i], err = timeutil.ToEpoch(name)
		if err != nil {
			return nil, err
		}
	}

	var out []Endpoint
	for i, ep := range all {
		windowStart := epochs[i]
		windowEnd := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		if i+1 < len(epochs) {
			windowEnd = epochs[i+1]
		}
		if from != "" && windowEnd.Before(fromT) {
			continue
		}
		if to != "" && windowStart.After(toT) {
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

// SelectEndpoints is the single entry point combining crawl-list selection
// and time-bisection selection, returning CDX API URLs in ascending
// (oldest-first) order.
func SelectEndpoints(ctx context.Context, client *httpx.Client, crawls []string, from, to string) (Selection, error) {
	all, err := ListEndpoints(ctx, client)
	if err != nil {
		return Selection{}, err
	}

	var chosen []Endpoint
	if len(crawls) > 0 {
		chosen, err = MatchCrawls(all, crawls)
	} else {
		chosen, err = BisectByTime(all, from, to)
	}
	if err != nil {
		return Selection{}, err
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].ID < chosen[j].ID })

	urls := make([]string, len(chosen))
	for i, ep := range chosen {
		urls[i] = ep.CDXAPI
	}
	return Selection{Endpoints: urls, From: from, To: to}, nil
}
