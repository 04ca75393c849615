package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sigman78/cdxt/internal/cdxfilter"
)

func filterCDXUsage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt filter_cdx [options] IN_DIR GLOB OUT_DIR SURT_FILE

Stream-filter every gzipped CDX file matching GLOB under IN_DIR against the
SURT prefixes listed one-per-line in SURT_FILE, writing the matching lines
to the mirrored path under OUT_DIR.

Options:
  -matching-approach string   trie|tuple, prefix matcher implementation (default trie)
  -limit int                    Maximum matches per file (0 means unlimited)
  -parallel int                   Concurrent files processed (default 4)
  -overwrite                       Allow overwriting existing output files
  -v                                Increase log verbosity (repeatable)
  -h / -help                        Show this help and exit
`)
}

func runFilterCDX(args []string) int {
	fs := flag.NewFlagSet("filter_cdx", flag.ContinueOnError)
	fs.Usage = filterCDXUsage
	var matchingApproach string
	var limit, parallel, verbose int
	var overwrite bool
	fs.StringVar(&matchingApproach, "matching-approach", "trie", "trie|tuple")
	fs.IntVar(&limit, "limit", 0, "maximum matches per file")
	fs.IntVar(&parallel, "parallel", 4, "concurrent files processed")
	fs.BoolVar(&overwrite, "overwrite", false, "allow overwriting existing output files")
	fs.IntVar(&verbose, "v", 0, "verbosity")

	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" {
			filterCDXUsage()
			return 0
		}
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) != 4 {
		fmt.Fprintln(os.Stderr, "error: IN_DIR, GLOB, OUT_DIR and SURT_FILE are all required")
		filterCDXUsage()
		return 1
	}
	inDir, glob, outDir, surtFile := rest[0], rest[1], rest[2], rest[3]

	prefixes, err := readLines(surtFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", surtFile, err)
		return 1
	}

	var matcher cdxfilter.Matcher
	switch matchingApproach {
	case "trie":
		matcher = cdxfilter.NewTrieMatcher(prefixes)
	case "tuple":
		matcher = cdxfilter.NewTupleMatcher(prefixes)
	default:
		fmt.Fprintf(os.Stderr, "error: -matching-approach must be trie or tuple\n")
		return 1
	}

	pairs, err := cdxfilter.ResolvePaths(inDir, glob, outDir, overwrite)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if len(pairs) == 0 {
		fmt.Fprintln(os.Stderr, "no files matched the glob")
		return 0
	}

	log := newLogger(verbose)
	stats, err := cdxfilter.Run(context.Background(), pairs, cdxfilter.Options{
		Matcher:  matcher,
		Limit:    limit,
		Parallel: parallel,
		Log:      log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Printf("files processed: %d, lines matched: %d, errors: %d\n",
		stats.FilesProcessed, stats.LinesMatched, stats.Errors)
	if stats.Errors > 0 {
		return 1
	}
	return 0
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
