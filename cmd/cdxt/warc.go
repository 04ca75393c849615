package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/sigman78/cdxt/internal/cdx"
	"github.com/sigman78/cdxt/internal/htmlrewrite"
	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/progress"
	"github.com/sigman78/cdxt/internal/warcfetch"
	"github.com/sigman78/cdxt/internal/warcwrite"
)

func warcUsage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt warc [options] URL

Page CDX records matching URL and extract each one's backing WARC record
into rotated local shard files.

Options:
  -cc / -ia / -source string   CDX source (exactly one required)
  -crawl string                 Common Crawl crawl selection
  -from / -to / -closest string  Timestamp bounds
  -limit int                     Maximum records to extract
  -filter string                  Filter expression (repeatable)
  -matchType string                exact|prefix|host|domain
  -prefix string                    Output shard filename prefix (default "cdxt")
  -subprefix string                  Output shard filename sub-prefix
  -max-shard-size int                Shard rotation threshold in bytes (default 1e9)
  -parallel int                       Concurrent record downloads (default 4)
  -rewrite-html-links                  Rewrite HTML/CSS links between captured pages to relative paths (opt-in)
  -no-progress                         Disable the extraction progress bar
  -v                                   Increase log verbosity (repeatable)
  -h / -help                           Show this help and exit
`)
}

func runWarc(args []string) int {
	fs := flag.NewFlagSet("warc", flag.ContinueOnError)
	fs.Usage = warcUsage
	sf := &sourceFlags{}
	addSourceFlags(fs, sf)
	var prefix, subPrefix string
	var maxShardSize int64
	var parallel int
	var noProgress, rewriteHTML bool
	fs.StringVar(&prefix, "prefix", "cdxt", "output shard filename prefix")
	fs.StringVar(&subPrefix, "subprefix", "", "output shard filename sub-prefix")
	fs.Int64Var(&maxShardSize, "max-shard-size", 0, "shard rotation threshold in bytes (default 1e9)")
	fs.IntVar(&parallel, "parallel", 4, "concurrent record downloads")
	fs.BoolVar(&noProgress, "no-progress", false, "disable the extraction progress bar")
	fs.BoolVar(&rewriteHTML, "rewrite-html-links", false, "rewrite HTML/CSS links between captured pages to relative paths")

	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" {
			warcUsage()
			return 0
		}
	}
	url, rest := extractPositionalURL(args)
	url = resolveURLArg(url)
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	if err := sf.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "error: URL is required")
		warcUsage()
		return 1
	}
	if parallel <= 0 {
		fmt.Fprintln(os.Stderr, "error: -parallel must be greater than 0")
		return 1
	}

	log := newLogger(sf.verbose)
	client := httpx.New(log)
	ctx := context.Background()
	fetcher, err := sf.buildFetcher(ctx, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	recordFetcher := warcfetch.New(client, log)

	shard := warcwrite.NewLocalWriter(prefix, subPrefix, 0, maxShardSize, warcwrite.Metadata{
		Software: "cdxt/" + version,
		Operator: os.Getenv("USER"),
		Creator:  "cdxt",
		Prefix:   prefix,
	})
	defer shard.Close()

	it := fetcher.Iter(ctx, sf.params(url))
	var captures []cdx.Capture
	for it.Next() {
		captures = append(captures, it.Capture())
	}
	if err := it.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// -rewrite-html-links needs every capture's URL known up front to build
	// the cross-page link resolver, hence materializing captures above
	// instead of fetching records off the paging iterator directly.
	var resolve htmlrewrite.Resolver
	if rewriteHTML {
		resolve = buildURLResolver(captures)
	}

	var bar *progress.Bar
	if !noProgress {
		bar = progress.NewExtractBar(len(captures))
	}

	type result struct {
		record []byte
		err    error
	}
	results := make(chan result, parallel)
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	go func() {
		for _, c := range captures {
			c := c
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				obj := cdx.NewCaptureObject(c, fetcher.WarcDownloadPrefix(), fetcher.WBPrefix(), recordFetcher)
				record, err := obj.FetchWARCRecord(ctx)
				if err == nil && rewriteHTML {
					record, err = rewriteRecordContent(record, c.URL, resolve)
				}
				results <- result{record: record, err: err}
			}()
		}
		wg.Wait()
		close(results)
	}()

	var writeErrors int
	for r := range results {
		if r.err != nil {
			log.Warningf("skipping record: %v", r.err)
			writeErrors++
			continue
		}
		if err := shard.WriteRecord(r.record); err != nil {
			log.Errorf("writing record: %v", err)
			writeErrors++
			continue
		}
		bar.Inc()
	}
	bar.Finish()

	if writeErrors > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d records failed\n", writeErrors)
	}
	return 0
}
