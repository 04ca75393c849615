package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/sigman78/cdxt/internal/cdx"
	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/logx"
	"github.com/sigman78/cdxt/internal/urlnorm"
)

// sourceFlags are the flags shared by every subcommand that needs to
// resolve a CDX source and build query Params.
type sourceFlags struct {
	cc        bool
	ia        bool
	source    string
	crawl     string
	ccSort    string
	from      string
	to        string
	closest   string
	limit     int
	filters   stringSlice
	matchType string
	verbose   int
}

// stringSlice implements flag.Value for a repeatable flag.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func addSourceFlags(fs *flag.FlagSet, sf *sourceFlags) {
	fs.BoolVar(&sf.cc, "cc", false, "use Common Crawl as the source")
	fs.BoolVar(&sf.ia, "ia", false, "use the Internet Archive Wayback CDX server")
	fs.StringVar(&sf.source, "source", "", "raw CDX endpoint URL")
	fs.StringVar(&sf.crawl, "crawl", "", "comma-separated crawl IDs, or a single \"last N\"")
	fs.StringVar(&sf.ccSort, "cc-sort", "mixed", "ascending|mixed, Common Crawl endpoint order")
	fs.StringVar(&sf.from, "from", "", "start timestamp YYYYMMDDhhmmss")
	fs.StringVar(&sf.to, "to", "", "end timestamp YYYYMMDDhhmmss")
	fs.StringVar(&sf.closest, "closest", "", "closest-to timestamp")
	fs.IntVar(&sf.limit, "limit", 0, "maximum records to return (0 means unlimited)")
	fs.Var(&sf.filters, "filter", "filter expression, field:regex (repeatable)")
	fs.StringVar(&sf.matchType, "matchType", "", "exact|prefix|host|domain")
	fs.IntVar(&sf.verbose, "v", 0, "verbosity (repeat for more, e.g. -v -v)")
}

func (sf *sourceFlags) validate() error {
	n := 0
	if sf.cc {
		n++
	}
	if sf.ia {
		n++
	}
	if sf.source != "" {
		n++
	}
	if n == 0 {
		return fmt.Errorf("exactly one of -cc, -ia, or -source is required")
	}
	if n > 1 {
		return fmt.Errorf("only one of -cc, -ia, or -source may be given")
	}
	return nil
}

// buildFetcher resolves sf into a *cdx.Fetcher against the chosen source.
func (sf *sourceFlags) buildFetcher(ctx context.Context, client *httpx.Client) (*cdx.Fetcher, error) {
	switch {
	case sf.cc:
		return cdx.NewCC(ctx, client, sf.params(""))
	case sf.ia:
		return cdx.NewIA(client), nil
	default:
		return cdx.NewRaw(client, sf.source), nil
	}
}

func (sf *sourceFlags) params(url string) cdx.Params {
	return cdx.Params{
		URL:       url,
		Limit:     sf.limit,
		From:      sf.from,
		To:        sf.to,
		Closest:   sf.closest,
		Filters:   []string(sf.filters),
		MatchType: sf.matchType,
		Crawl:     splitCrawls(sf.crawl),
		SortOrder: sf.ccSort,
	}
}

func splitCrawls(crawl string) []string {
	if crawl == "" {
		return nil
	}
	return strings.Split(crawl, ",")
}

func newLogger(verbose int) *logx.Logger {
	return logx.FromEnv(verbose)
}

// resolveURLArg expands a bare domain positional argument (no scheme, e.g.
// "example.com") into its canonical https:// form via internal/urlnorm, so
// CDX query params always carry a fully-formed url= value. A raw value that
// already carries a scheme (or any wildcard/prefix query a user crafted by
// hand) passes through untouched.
func resolveURLArg(raw string) string {
	if raw == "" || strings.Contains(raw, "://") || strings.Contains(raw, "*") {
		return raw
	}
	n, err := urlnorm.Normalize(raw)
	if err != nil {
		return raw
	}
	return n.CanonicalURL
}
