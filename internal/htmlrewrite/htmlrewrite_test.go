package htmlrewrite

import (
	"strings"
	"testing"
)

func TestRewriteHTMLRewritesInternalAnchor(t *testing.T) {
	resolve := resolverTo(map[string]string{
		"http://example.com/about.html": "about.html",
	})
	content := []byte(`<html><body><a href="/about.html">About</a></body></html>`)
	out, err := RewriteHTML(content, "http://example.com/", resolve)
	if err != nil {
		t.Fatalf("RewriteHTML: %v", err)
	}
	if !strings.Contains(string(out), `href="about.html"`) {
		t.Errorf("expected internal anchor rewritten, got %s", out)
	}
}

func TestRewriteHTMLLeavesUnresolvedLinkAlone(t *testing.T) {
	resolve := resolverTo(map[string]string{})
	content := []byte(`<html><body><a href="http://other.com/x">X</a></body></html>`)
	out, err := RewriteHTML(content, "http://example.com/", resolve)
	if err != nil {
		t.Fatalf("RewriteHTML: %v", err)
	}
	if !strings.Contains(string(out), `http://other.com/x`) {
		t.Errorf("expected unresolved link left as-is, got %s", out)
	}
}

func TestRewriteHTMLSkipsCanonicalLink(t *testing.T) {
	resolve := resolverTo(map[string]string{
		"http://example.com/": "index.html",
	})
	content := []byte(`<html><head><link rel="canonical" href="http://example.com/"></head></html>`)
	out, err := RewriteHTML(content, "http://example.com/page", resolve)
	if err != nil {
		t.Fatalf("RewriteHTML: %v", err)
	}
	if !strings.Contains(string(out), `http://example.com/`) {
		t.Errorf("expected canonical link untouched, got %s", out)
	}
}

func TestIsHTMLFile(t *testing.T) {
	if !IsHTMLFile("page.html", "", nil) {
		t.Error("expected .html extension to be detected")
	}
	if !IsHTMLFile("page", "text/html; charset=utf-8", nil) {
		t.Error("expected text/html content-type to be detected")
	}
	if !IsHTMLFile("page", "", []byte("<!DOCTYPE html>")) {
		t.Error("expected leading < to be detected as html")
	}
	if IsHTMLFile("page.json", "application/json", []byte(`{}`)) {
		t.Error("did not expect json to be detected as html")
	}
}

func TestIsCSSResource(t *testing.T) {
	if !IsCSSResource("style.css", "") {
		t.Error("expected .css extension to be detected")
	}
	if !IsCSSResource("style", "text/css") {
		t.Error("expected text/css content-type to be detected")
	}
	if IsCSSResource("script.js", "application/javascript") {
		t.Error("did not expect js to be detected as css")
	}
}
