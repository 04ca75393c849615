package htmlrewrite

import (
	"strings"
	"testing"
)

func resolverTo(mapping map[string]string) Resolver {
	return func(resolved string) (string, bool) {
		rel, ok := mapping[resolved]
		return rel, ok
	}
}

func TestRewriteCSSDoubleQuotedURL(t *testing.T) {
	resolve := resolverTo(map[string]string{
		"http://example.com/images/bg.png": "images/bg.png",
	})
	css := `body { background: url("http://example.com/images/bg.png"); }`
	got := RewriteCSSContent(css, "http://example.com/style.css", resolve)
	if !strings.Contains(got, `url("images/bg.png")`) {
		t.Errorf("double-quoted url() not rewritten to relative path\n  got: %s", got)
	}
	if strings.Contains(got, "http://example.com") {
		t.Errorf("absolute URL should have been removed\n  got: %s", got)
	}
}

func TestRewriteCSSSingleQuotedImport(t *testing.T) {
	resolve := resolverTo(map[string]string{
		"http://example.com/fonts/main.css": "fonts/main.css",
	})
	css := `@import 'http://example.com/fonts/main.css';`
	got := RewriteCSSContent(css, "http://example.com/style.css", resolve)
	if !strings.Contains(got, `@import 'fonts/main.css'`) {
		t.Errorf("single-quoted @import not rewritten\n  got: %s", got)
	}
}

func TestRewriteCSSLeavesUnresolvedReferenceUntouched(t *testing.T) {
	resolve := resolverTo(map[string]string{})
	css := `body { background: url("http://other.com/bg.png"); }`
	got := RewriteCSSContent(css, "http://example.com/style.css", resolve)
	if got != css {
		t.Errorf("expected unresolved reference to be left alone, got %q", got)
	}
}

func TestRewriteCSSSkipsDataURI(t *testing.T) {
	resolve := resolverTo(map[string]string{})
	css := `body { background: url("data:image/png;base64,AAAA"); }`
	got := RewriteCSSContent(css, "http://example.com/style.css", resolve)
	if got != css {
		t.Errorf("expected data: uri to be left alone, got %q", got)
	}
}
