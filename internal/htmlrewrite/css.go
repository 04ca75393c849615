package htmlrewrite

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	reURLDouble = regexp.MustCompile(`(?i)url\(\s*"([^"]+)"\s*\)`)
	reURLSingle = regexp.MustCompile(`(?i)url\(\s*'([^']+)'\s*\)`)
	reURLBare   = regexp.MustCompile(`(?i)url\(\s*([^)'"]+?)\s*\)`)
	reImportDbl = regexp.MustCompile(`(?i)@import\s+"([^"]+)"`)
	reImportSgl = regexp.MustCompile(`(?i)@import\s+'([^']+)'`)
)

// RewriteCSSContent rewrites url() and @import references in CSS text
// addressed as pageURL, replacing any reference resolve can map to a
// sibling local path.
func RewriteCSSContent(css, pageURL string, resolve Resolver) string {
	pageU, err := url.Parse(pageURL)
	if err != nil {
		return css
	}

	replace := func(ref string) (string, bool) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") ||
			strings.HasPrefix(ref, "javascript:") || strings.HasPrefix(ref, "#") {
			return ref, false
		}
		resolved, err := pageU.Parse(ref)
		if err != nil {
			return ref, false
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return ref, false
		}
		rel, ok := resolve(resolved.String())
		return rel, ok
	}

	css = reURLDouble.ReplaceAllStringFunc(css, func(m string) string {
		sub := reURLDouble.FindStringSubmatch(m)
		if rel, ok := replace(sub[1]); ok {
			return `url("` + rel + `")`
		}
		return m
	})
	css = reURLSingle.ReplaceAllStringFunc(css, func(m string) string {
		sub := reURLSingle.FindStringSubmatch(m)
		if rel, ok := replace(sub[1]); ok {
			return `url('` + rel + `')`
		}
		return m
	})
	css = reURLBare.ReplaceAllStringFunc(css, func(m string) string {
		sub := reURLBare.FindStringSubmatch(m)
		if rel, ok := replace(sub[1]); ok {
			return `url(` + rel + `)`
		}
		return m
	})
	css = reImportDbl.ReplaceAllStringFunc(css, func(m string) string {
		sub := reImportDbl.FindStringSubmatch(m)
		if rel, ok := replace(sub[1]); ok {
			return `@import "` + rel + `"`
		}
		return m
	})
	css = reImportSgl.ReplaceAllStringFunc(css, func(m string) string {
		sub := reImportSgl.FindStringSubmatch(m)
		if rel, ok := replace(sub[1]); ok {
			return `@import '` + rel + `'`
		}
		return m
	})
	return css
}
