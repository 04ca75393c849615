// Package urlnorm normalizes a user-supplied bare domain or URL into the
// canonical https:// form plus the http/https × bare/www variant set,
// adapted from the teacher's URL-normalization path for the cdxt CLI's
// convenience of accepting "example.com" where a CDX query expects a URL.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Normalized holds the canonical form and every http/https × bare/www
// variant of a user-supplied input.
type Normalized struct {
	CanonicalURL string
	Variants     []string
	BareHost     string
	UnicodeHost  string
}

// Normalize parses input (a bare domain or full URL), defaulting to https
// when no scheme is given, and returns its canonical form plus variants.
func Normalize(input string) (*Normalized, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("urlnorm: empty input")
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("urlnorm: parse %q: %w", input, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("urlnorm: unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("urlnorm: missing host in %q", input)
	}

	bareHost := host
	if strings.HasPrefix(strings.ToLower(bareHost), "www.") {
		bareHost = bareHost[4:]
	}

	unicodeHost := bareHost
	if decoded, err := idna.ToUnicode(bareHost); err == nil {
		unicodeHost = decoded
	}

	urlPath := u.Path
	if urlPath == "" {
		urlPath = "/"
	}

	schemes := []string{"https", "http"}
	hostVariants := []string{bareHost, "www." + bareHost}
	var variants []string
	for _, s := range schemes {
		for _, h := range hostVariants {
			v := s + "://" + h + urlPath
			if u.RawQuery != "" {
				v += "?" + u.RawQuery
			}
			variants = append(variants, v)
		}
	}

	canonical := "https://" + host + urlPath
	if u.RawQuery != "" {
		canonical += "?" + u.RawQuery
	}

	return &Normalized{
		CanonicalURL: canonical,
		Variants:     variants,
		BareHost:     bareHost,
		UnicodeHost:  unicodeHost,
	}, nil
}
