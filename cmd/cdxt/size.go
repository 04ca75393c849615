package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sigman78/cdxt/internal/httpx"
)

func sizeUsage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt size [options] URL

Print an estimate of the number of CDX records (or pages) matching URL,
without paging through the full result set.

Options:
  -cc / -ia / -source string   CDX source (exactly one required)
  -crawl string                 Common Crawl crawl selection
  -from / -to / -closest string  Timestamp bounds
  -filter string                  Filter expression (repeatable)
  -matchType string                exact|prefix|host|domain
  -pages                           Print a page count instead of a record estimate
  -details                         Print a per-endpoint page count breakdown
  -v                               Increase log verbosity (repeatable)
  -h / -help                       Show this help and exit
`)
}

func runSize(args []string) int {
	fs := flag.NewFlagSet("size", flag.ContinueOnError)
	fs.Usage = sizeUsage
	sf := &sourceFlags{}
	addSourceFlags(fs, sf)
	var asPages, details bool
	fs.BoolVar(&asPages, "pages", false, "print a page count instead of a record estimate")
	fs.BoolVar(&details, "details", false, "print a per-endpoint page count breakdown")

	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" {
			sizeUsage()
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
		sizeUsage()
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

	if details {
		breakdown, err := fetcher.GetSizeEstimateDetails(ctx, sf.params(url))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		total := 0.0
		for _, d := range breakdown {
			fmt.Printf("%-60s %.0f pages\n", d.Endpoint, d.Pages)
			total += d.Pages
		}
		fmt.Printf("%-60s %.0f pages\n", "total", total)
		return 0
	}

	estimate, err := fetcher.GetSizeEstimate(ctx, sf.params(url), asPages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if asPages {
		fmt.Printf("%.0f pages\n", estimate)
	} else {
		fmt.Printf("%.0f records (estimated)\n", estimate)
	}
	return 0
}
