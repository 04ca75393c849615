package cdxfilter

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/sigman78/cdxt/internal/logx"
)

// Stats accumulates the outcome of a filter run across every worker.
type Stats struct {
	FilesProcessed int64
	LinesMatched   int64
	Errors         int64
}

// Options controls one filter_cdx run.
type Options struct {
	Matcher    Matcher
	Limit      int // 0 means unlimited
	Parallel   int // 0 uses a single-process default
	Log        *logx.Logger
}

// Run processes every pair concurrently via a bounded worker pool,
// matching filter_cdx's N-process fan-out (here, N goroutines — see the
// module's concurrency notes on why a pool replaces the OS-process fork).
// Per-file errors are counted, not fatal to the run.
func Run(_ context.Context, pairs []PathPair, opts Options) (Stats, error) {
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	var stats Stats
	var wg sync.WaitGroup
	pool, err := ants.NewPool(parallel)
	if err != nil {
		return stats, fmt.Errorf("cdxfilter: create worker pool: %w", err)
	}
	defer pool.Release()

	for _, pair := range pairs {
		pair := pair
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			matched, err := processFile(pair, opts.Matcher, opts.Limit)
			atomic.AddInt64(&stats.FilesProcessed, 1)
			atomic.AddInt64(&stats.LinesMatched, int64(matched))
			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				if opts.Log != nil {
					opts.Log.Warningf("cdxfilter: %s: %v", pair.In, err)
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			atomic.AddInt64(&stats.Errors, 1)
		}
	}
	wg.Wait()
	return stats, nil
}

// processFile streams pair.In line by line, writing lines whose SURT
// (the prefix up to the first space) matches to pair.Out, stopping after
// limit matches (0 means unlimited). The output file is deleted if empty.
func processFile(pair PathPair, m Matcher, limit int) (int, error) {
	in, err := os.Open(pair.In) //nolint:gosec // G304: caller-resolved path from ResolvePaths
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	reader, err := openMaybeGzip(in)
	if err != nil {
		return 0, err
	}
	if closer, ok := reader.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	if err := os.MkdirAll(parentDir(pair.Out), 0750); err != nil {
		return 0, fmt.Errorf("mkdir output dir: %w", err)
	}
	outFile, err := os.CreateTemp(parentDir(pair.Out), ".cdxfilter-*")
	if err != nil {
		return 0, fmt.Errorf("create temp output: %w", err)
	}
	tmpName := outFile.Name()
	writer := bufio.NewWriter(outFile)

	matched := 0
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if limit > 0 && matched >= limit {
			break
		}
		line := scanner.Text()
		surt := line
		if i := strings.IndexByte(line, ' '); i >= 0 {
			surt = line[:i]
		}
		if m.Matches(surt) {
			writer.WriteString(line)
			writer.WriteByte('\n')
			matched++
		}
	}
	scanErr := scanner.Err()
	flushErr := writer.Flush()
	closeErr := outFile.Close()

	if scanErr != nil || flushErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if scanErr != nil {
			return matched, fmt.Errorf("scan input: %w", scanErr)
		}
		if flushErr != nil {
			return matched, fmt.Errorf("flush output: %w", flushErr)
		}
		return matched, fmt.Errorf("close output: %w", closeErr)
	}

	if matched == 0 {
		os.Remove(tmpName)
		return 0, nil
	}
	if err := os.Rename(tmpName, pair.Out); err != nil {
		os.Remove(tmpName)
		return matched, fmt.Errorf("rename output: %w", err)
	}
	return matched, nil
}

func openMaybeGzip(f *os.File) (interface{ Read([]byte) (int, error) }, error) {
	if strings.HasSuffix(f.Name(), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip open: %w", err)
		}
		return gz, nil
	}
	return f, nil
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
