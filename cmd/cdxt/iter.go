package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/progress"
)

func iterUsage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt iter [options] URL

Page CDX records matching URL and print them, one record per line.

Options:
  -cc / -ia / -source string   CDX source (exactly one required)
  -crawl string                 Common Crawl crawl selection
  -cc-sort string                ascending|mixed (default mixed)
  -from / -to / -closest string  Timestamp bounds
  -limit int                     Maximum records to return
  -filter string                  Filter expression (repeatable)
  -matchType string                exact|prefix|host|domain
  -get                             Single eager call instead of paging
  -all-fields                      Print every CDX field (implies field-subset output)
  -fields string                    Comma-separated CDX field names to print
  -csv                              Output CSV instead of JSON lines
  -jsonl                             Output JSON lines (default; explicit for symmetry with -csv)
  -no-progress                     Disable the paging spinner
  -v                               Increase log verbosity (repeatable)
  -h / -help                       Show this help and exit
`)
}

func runIter(args []string) int {
	fs := flag.NewFlagSet("iter", flag.ContinueOnError)
	fs.Usage = iterUsage
	sf := &sourceFlags{}
	addSourceFlags(fs, sf)
	var get, noProgress, allFields, asCSV, asJSONL bool
	var fieldsArg string
	fs.BoolVar(&get, "get", false, "single eager call instead of paging")
	fs.BoolVar(&noProgress, "no-progress", false, "disable the paging spinner")
	fs.BoolVar(&allFields, "all-fields", false, "print every CDX field")
	fs.StringVar(&fieldsArg, "fields", "", "comma-separated CDX field names to print")
	fs.BoolVar(&asCSV, "csv", false, "output CSV instead of JSON lines")
	fs.BoolVar(&asJSONL, "jsonl", false, "output JSON lines (default)")

	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" {
			iterUsage()
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
		iterUsage()
		return 1
	}
	if asCSV && asJSONL {
		fmt.Fprintln(os.Stderr, "error: only one of -csv or -jsonl may be given")
		return 1
	}
	if allFields && fieldsArg != "" {
		fmt.Fprintln(os.Stderr, "error: only one of -all-fields or -fields may be given")
		return 1
	}
	var fields []string
	switch {
	case allFields:
		fields = cdxFieldNames
	case fieldsArg != "":
		parsed, err := parseFields(fieldsArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		fields = parsed
	}

	log := newLogger(sf.verbose)
	client := httpx.New(log)
	ctx := context.Background()
	banner(sf.verbose, "paging CDX records for %s", url)
	fetcher, err := sf.buildFetcher(ctx, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	params := sf.params(url)

	emitter := newCaptureEmitter(os.Stdout, fields, asCSV)
	if get {
		captures, err := fetcher.Get(ctx, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		for _, c := range captures {
			_ = emitter.Emit(c)
		}
		_ = emitter.Close()
		return 0
	}

	var spinner *progress.Bar
	if !noProgress {
		spinner = progress.NewCDXSpinner()
	}
	it := fetcher.Iter(ctx, params)
	for it.Next() {
		_ = emitter.Emit(it.Capture())
		spinner.Inc()
	}
	spinner.Finish()
	_ = emitter.Close()
	if err := it.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// extractPositionalURL pulls a leading non-flag argument out of args so the
// stdlib flag package (which stops parsing at the first non-flag token)
// still sees every flag that follows it.
func extractPositionalURL(args []string) (url string, rest []string) {
	if len(args) > 0 && args[0] != "" && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}
