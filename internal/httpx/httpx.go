// Package httpx is the rate-limited, retrying HTTP client shared by every
// CDX and WARC fetch path in cdxt. It owns the single piece of process-wide
// mutable state in the whole module: the per-host rate.Limiter table.
//
// Grounded on the teacher's cdx.go retryDelay/fetchCDXPage and on
// cdx_toolkit's myrequests.py, generalized to a per-host table per spec.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sigman78/cdxt/internal/cdxerr"
	"github.com/sigman78/cdxt/internal/config"
	"github.com/sigman78/cdxt/internal/logx"
)

// UserAgent is the default User-Agent sent with every request unless the
// caller overrides it.
const UserAgent = "cdxt/1.0 (+https://github.com/sigman78/cdxt)"

var retriableStatus = map[int]bool{
	429: true, 500: true, 502: true, 503: true, 504: true, 509: true,
}

// hostState paces one host's fetches with a token-bucket limiter: burst of
// 1 and a refill rate of one token per minInterval, so the floor holds even
// across retries without a separate re-pin step.
type hostState struct {
	limiter *rate.Limiter
}

// Client is a rate-limited, retrying HTTP client. The zero value is not
// usable; construct with New.
type Client struct {
	httpClient *http.Client
	log        *logx.Logger
	settings   config.Settings

	mu    sync.Mutex
	hosts map[string]*hostState
	seen  map[string]bool // hostnames that have ever returned a response

	// MaxConnectErrors bounds the connect-error retry loop before giving up
	// hard; defaults from config.Settings.MaxErrors.
	MaxConnectErrors int
	// WarnAfterNErrors is the connect-error count after which log level
	// rises to WARNING.
	WarnAfterNErrors int
}

// hostIntervals are the spec-mandated per-host minimum intervals; any host
// not listed inherits settings.DefaultMinRetryInterval.
func hostIntervals(s config.Settings) map[string]time.Duration {
	return map[string]time.Duration{
		"index.commoncrawl.org": s.CCIndexMinRetryInterval,
		"data.commoncrawl.org":  s.CCDataMinRetryInterval,
		"web.archive.org":       s.IAMinRetryInterval,
	}
}

// New builds a Client. log may be nil (warnings/errors only).
func New(log *logx.Logger) *Client {
	s := config.FromEnv()
	return &Client{
		httpClient: &http.Client{
			Timeout: 0, // per-request timeout is set via context below
		},
		log:              log,
		settings:         s,
		hosts:            make(map[string]*hostState),
		seen:             make(map[string]bool),
		MaxConnectErrors: s.MaxErrors,
		WarnAfterNErrors: s.WarningAfterNErrors,
	}
}

// Response is the normalized result of a GET: status code and body bytes.
// The empty-result sentinel (cdx-mode 400/404) is represented by Empty.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Empty      bool
}

// Options controls one logical GET call.
type Options struct {
	Params  url.Values
	Headers http.Header
	// CDXMode treats 400/404 as an empty result instead of an error.
	CDXMode bool
	// Allow404 passes a 404 response straight through instead of erroring.
	Allow404 bool
}

// Get issues a rate-limited, retrying GET to rawURL with the given options.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: parse url %q: %w", rawURL, err)
	}
	if opts.Params != nil {
		u.RawQuery = opts.Params.Encode()
	}
	hostname := u.Hostname()

	retrySec := 2 * c.minIntervalFor(hostname)
	const retryMaxSec = 60 * time.Second
	retries := 0
	connectErrors := 0

	for {
		if err := c.waitTurn(ctx, hostname); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("httpx: build request: %w", err)
		}
		for k, vs := range opts.Headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", UserAgent)
		}

		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		req = req.WithContext(reqCtx)

		resp, err := c.httpClient.Do(req)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			connectErrors++
			if isDNSFatal(err) && !c.hasSucceeded(hostname) {
				return nil, fmt.Errorf("%w: %v", cdxerr.BadHostname, err)
			}
			if connectErrors > c.MaxConnectErrors {
				c.logf(logx.LevelError, "giving up after %d connect errors for %s: %v", connectErrors, rawURL, err)
				return nil, fmt.Errorf("httpx: %d connect errors for %s: %w", connectErrors, rawURL, err)
			}
			if connectErrors > c.WarnAfterNErrors {
				c.logf(logx.LevelWarning, "%d connect errors for %s: %v", connectErrors, rawURL, err)
			} else {
				c.logf(logx.LevelInfo, "retrying after 60s for %s: %v", rawURL, err)
			}
			if !sleepCtx(ctx, 60*time.Second) {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("httpx: read body: %w", readErr)
		}
		c.markSeen(hostname)

		status := resp.StatusCode
		switch {
		case opts.CDXMode && (status == 400 || status == 404):
			return &Response{StatusCode: status, Body: body, Header: resp.Header, Empty: true}, nil
		case opts.Allow404 && status == 404:
			return &Response{StatusCode: status, Body: body, Header: resp.Header}, nil
		case retriableStatus[status]:
			retries++
			level := logx.LevelInfo
			if retries > 5 {
				level = logx.LevelWarning
			}
			c.logf(level, "retrying after %s for status %d on %s", retrySec, status, rawURL)
			if len(body) > 0 {
				c.logf(level, "response body: %.500s", body)
			}
			if !sleepCtx(ctx, retrySec) {
				return nil, ctx.Err()
			}
			retrySec *= 2
			if retrySec > retryMaxSec {
				retrySec = retryMaxSec
			}
			continue
		case status >= 400 && status < 500:
			return nil, fmt.Errorf("%w: status %d for %s: %.200s", cdxerr.BadCDXResponse, status, rawURL, body)
		default:
			return &Response{StatusCode: status, Body: body, Header: resp.Header}, nil
		}
	}
}

func (c *Client) minIntervalFor(hostname string) time.Duration {
	if d, ok := hostIntervals(c.settings)[hostname]; ok {
		return d
	}
	return c.settings.DefaultMinRetryInterval
}

// waitTurn blocks until hostname's limiter yields a token — the floor is
// enforced even across retries, since every call (including the one after
// a retry sleep) draws from the same per-host bucket.
func (c *Client) waitTurn(ctx context.Context, hostname string) error {
	c.mu.Lock()
	hs, ok := c.hosts[hostname]
	if !ok {
		hs = &hostState{limiter: rate.NewLimiter(rate.Every(c.minIntervalFor(hostname)), 1)}
		c.hosts[hostname] = hs
	}
	c.mu.Unlock()

	return hs.limiter.Wait(ctx)
}

func (c *Client) markSeen(hostname string) {
	c.mu.Lock()
	c.seen[hostname] = true
	c.mu.Unlock()
}

func (c *Client) hasSucceeded(hostname string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[hostname]
}

func (c *Client) logf(level logx.Level, format string, args ...interface{}) {
	switch level {
	case logx.LevelInfo:
		c.log.Infof(format, args...)
	case logx.LevelWarning:
		c.log.Warningf(format, args...)
	case logx.LevelError:
		c.log.Errorf(format, args...)
	default:
		c.log.Debugf(format, args...)
	}
}

func isDNSFatal(err error) bool {
	var dnsErr *net.DNSError
	if ok := asDNSError(err, &dnsErr); ok {
		return true
	}
	return strings.Contains(err.Error(), "no such host")
}

func asDNSError(err error, target **net.DNSError) bool {
	for err != nil {
		if de, ok := err.(*net.DNSError); ok {
			*target = de
			return true
		}
		unwrap, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrap.Unwrap()
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
