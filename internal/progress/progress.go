// Package progress wraps schollz/progressbar for cdxt's two long-running
// phases (CDX paging, WARC extraction), adapted from the teacher's
// progress.go.
package progress

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar is a nil-safe wrapper around progressbar.ProgressBar; a nil *Bar is
// valid and every method becomes a no-op, so progress can be disabled in
// tests or non-interactive pipelines by simply not constructing one.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewCDXSpinner creates an indeterminate spinner for the CDX paging phase.
func NewCDXSpinner() *Bar {
	return &Bar{bar: progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[green][1/2][reset] Paging CDX results"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)}
}

// NewExtractBar creates a determinate bar for the WARC extraction phase.
func NewExtractBar(total int) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[green][2/2][reset] Extracting WARC records"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = os.Stderr.WriteString("\n")
		}),
	)}
}

// Inc advances the bar by one step.
func (b *Bar) Inc() {
	if b == nil {
		return
	}
	_ = b.bar.Add(1)
}

// Finish marks the bar complete.
func (b *Bar) Finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}
