// Command cdxt pages CDX records from Common Crawl or the Internet
// Archive's Wayback CDX server and, optionally, extracts their backing
// WARC records into rotated local or S3 shards.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/colorstring"
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage: cdxt <command> [arguments]

Commands:
  iter           Page CDX records and print them, one JSON object per line
  warc           Page CDX records and extract their WARC records into shards
  warc_by_cdx    Extract WARC records from pre-fetched CDX JSON files
  filter_cdx     Stream-filter gzipped CDX files against a SURT prefix list
  size           Print a CDX result-set size estimate

Run "cdxt <command> -help" for command-specific options.

  -version       Print version and exit
  -h / -help     Show this help and exit
`)
}

func main() {
	for _, a := range os.Args[1:] {
		if a == "-version" || a == "--version" {
			fmt.Printf("cdxt %s (commit %s, built %s)\n", version, commit, date)
			os.Exit(0)
		}
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if os.Args[1] == "-h" || os.Args[1] == "-help" || os.Args[1] == "--help" {
		usage()
		os.Exit(0)
	}

	sub := os.Args[1]
	args := os.Args[2:]
	var code int
	switch sub {
	case "iter":
		code = runIter(args)
	case "warc":
		code = runWarc(args)
	case "warc_by_cdx":
		code = runWarcByCDX(args)
	case "filter_cdx":
		code = runFilterCDX(args)
	case "size":
		code = runSize(args)
	default:
		fmt.Fprintf(os.Stderr, "cdxt: unknown command %q\n\n", sub)
		usage()
		code = 2
	}
	os.Exit(code)
}

func banner(verbose int, format string, args ...interface{}) {
	if verbose <= 0 {
		return
	}
	fmt.Fprintln(os.Stderr, colorstring.Color(fmt.Sprintf("[green]cdxt[reset]: "+format, args...)))
}
