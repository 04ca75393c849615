package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sigman78/cdxt/internal/cdx"
	"github.com/sigman78/cdxt/internal/htmlrewrite"
	"github.com/sigman78/cdxt/internal/httpx"
	"github.com/sigman78/cdxt/internal/warcpipe"
	"github.com/sigman78/cdxt/internal/warcwrite"
)

func warcByCDXUsage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt warc_by_cdx [options] CDX_FILE...

Extract WARC records directly from one or more pre-fetched CDX JSON files
(the line format printed by "cdxt iter"), issuing one ranged HTTP GET per
record against -warc-prefix and fanning the results out across rotating
shard files.

Options:
  -warc-prefix string   WARC download prefix (default Common Crawl's S3 bucket)
  -prefix string          Output shard filename prefix (default "cdxt")
  -max-shard-size int       Shard rotation threshold in bytes (default 1e9)
  -readers int                Concurrent range-fetch workers (default 12)
  -writers int                 Concurrent shard writers (default readers/6)
  -limit int                    Maximum records to extract
  -rewrite-html-links              Rewrite HTML/CSS links between captured pages to relative paths (opt-in)
  -v                              Increase log verbosity (repeatable)
  -h / -help                       Show this help and exit
`)
}

const defaultCCWarcPrefix = "https://commoncrawl.s3.amazonaws.com"

func runWarcByCDX(args []string) int {
	fs := flag.NewFlagSet("warc_by_cdx", flag.ContinueOnError)
	fs.Usage = warcByCDXUsage
	var warcPrefix, prefix string
	var maxShardSize int64
	var readers, writers, limit, verbose int
	var rewriteHTML bool
	fs.StringVar(&warcPrefix, "warc-prefix", defaultCCWarcPrefix, "WARC download prefix")
	fs.StringVar(&prefix, "prefix", "cdxt", "output shard filename prefix")
	fs.Int64Var(&maxShardSize, "max-shard-size", 0, "shard rotation threshold in bytes")
	fs.IntVar(&readers, "readers", 12, "concurrent range-fetch workers")
	fs.IntVar(&writers, "writers", 0, "concurrent shard writers")
	fs.IntVar(&limit, "limit", 0, "maximum records to extract")
	fs.IntVar(&verbose, "v", 0, "verbosity")
	fs.BoolVar(&rewriteHTML, "rewrite-html-links", false, "rewrite HTML/CSS links between captured pages to relative paths")

	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" {
			warcByCDXUsage()
			return 0
		}
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "error: at least one CDX_FILE is required")
		warcByCDXUsage()
		return 1
	}

	log := newLogger(verbose)
	client := httpx.New(log)
	ctx := context.Background()

	// -rewrite-html-links needs every capture's URL known up front to build
	// the cross-page link resolver, hence reading every CDX_FILE into a
	// slice first instead of streaming jobs straight off the scanner.
	var captures []cdx.Capture
	for _, path := range files {
		caps, err := readCDXFile(path)
		if err != nil {
			log.Errorf("reading %s: %v", path, err)
			continue
		}
		captures = append(captures, caps...)
	}

	var resolve htmlrewrite.Resolver
	if rewriteHTML {
		resolve = buildURLResolver(captures)
	}

	jobs := make(chan warcpipe.RangeJob)
	go func() {
		defer close(jobs)
		for _, c := range captures {
			obj := cdx.NewCaptureObject(c, warcPrefix, "", nil)
			jobs <- warcpipe.RangeJob{
				URL:          warcPrefix + "/" + c.Filename,
				Offset:       int64(obj.OffsetInt()),
				Length:       int64(obj.LengthInt()),
				RecordsCount: 1,
				PageURL:      c.URL,
				Mime:         c.Mime,
			}
		}
	}()

	opts := warcpipe.Options{
		Readers:      readers,
		Writers:      writers,
		RecordLimit:  limit,
		MaxShardSize: maxShardSize,
		Log:          log,
		NewShardWriter: func(writerID int) (warcwrite.ShardWriter, error) {
			return warcwrite.NewLocalWriter(prefix, "", writerID, maxShardSize, warcwrite.Metadata{
				Software: "cdxt/" + version,
				Operator: os.Getenv("USER"),
				Creator:  "cdxt",
				Prefix:   prefix,
			}), nil
		},
	}
	if rewriteHTML {
		opts.RewriteHTML = func(job warcpipe.RangeJob, record []byte) ([]byte, error) {
			return rewriteRecordContent(record, job.PageURL, resolve)
		}
	}

	totals, err := warcpipe.Run(ctx, jobs, warcpipe.NewHTTPRangeReader(client), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Printf("jobs read: %d, records written: %d, bytes written: %d, read errors: %d, write errors: %d\n",
		totals.JobsRead, totals.RecordsWritten, totals.BytesWritten, totals.ReadErrors, totals.WriteErrors)
	return 0
}

// readCDXFile parses one CDX JSON-lines file (gzip-compressed if its name
// ends in .gz) into a slice of Captures.
func readCDXFile(path string) ([]cdx.Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	var captures []cdx.Capture
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var c cdx.Capture
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("bad CDX line: %w", err)
		}
		captures = append(captures, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return captures, nil
}
