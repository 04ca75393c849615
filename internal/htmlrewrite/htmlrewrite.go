// Package htmlrewrite is cdxt's strictly opt-in post-extraction pass
// (enabled via -rewrite-html-links, off by default): given the decoded
// content of an extracted capture and a Resolver mapping other captured
// URLs to sibling local paths, it rewrites internal links and asset
// references so a batch of extracted pages can be browsed offline,
// adapted from the teacher's html.go/css.go.
package htmlrewrite

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Resolver maps an absolute URL (already resolved against the page's own
// URL) to the local path a rewritten reference should carry, if that URL
// was itself captured and extracted in this run. The rewriter writes the
// returned path into the document unchanged.
type Resolver func(resolvedURL string) (relPath string, ok bool)

// IsHTMLFile reports whether a path/content-type/leading-bytes triple
// indicates HTML content.
func IsHTMLFile(filePath, contentType string, firstBytes []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	ext := strings.ToLower(path.Ext(filePath))
	if ext == ".html" || ext == ".htm" {
		return true
	}
	if len(firstBytes) > 0 {
		b := firstBytes
		if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
			b = b[3:]
		}
		if strings.HasPrefix(strings.TrimSpace(string(b)), "<") {
			return true
		}
	}
	return false
}

// IsCSSResource reports whether a path/content-type pair indicates CSS.
func IsCSSResource(filePath, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/css") {
		return true
	}
	return strings.ToLower(path.Ext(filePath)) == ".css"
}

// RewriteHTML parses html content addressed as pageURL and rewrites every
// internal link/asset attribute that resolve can successfully map,
// returning the re-serialized document.
func RewriteHTML(content []byte, pageURL string, resolve Resolver) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	pageU, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "form":
				rewriteAttr(n, attrName(n.Data), pageU, resolve)
			case "img", "script", "iframe", "source", "video", "audio":
				rewriteAttr(n, "src", pageU, resolve)
			case "link":
				if !isCanonical(n) {
					rewriteAttr(n, "href", pageU, resolve)
				}
			case "style":
				rewriteStyleNode(n, pageURL, resolve)
			}
			for i, a := range n.Attr {
				if a.Key == "style" {
					n.Attr[i].Val = RewriteCSSContent(a.Val, pageURL, resolve)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attrName(tag string) string {
	if tag == "form" {
		return "action"
	}
	return "href"
}

func isCanonical(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "rel" && strings.ToLower(strings.TrimSpace(a.Val)) == "canonical" {
			return true
		}
	}
	return false
}

func rewriteAttr(n *html.Node, attr string, pageU *url.URL, resolve Resolver) {
	for i, a := range n.Attr {
		if a.Key != attr {
			continue
		}
		val := strings.TrimSpace(a.Val)
		if val == "" || strings.HasPrefix(val, "#") || strings.HasPrefix(val, "javascript:") ||
			strings.HasPrefix(val, "data:") || strings.HasPrefix(val, "mailto:") {
			return
		}
		resolved, err := pageU.Parse(val)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if rel, ok := resolve(resolved.String()); ok {
			n.Attr[i].Val = rel
		}
		return
	}
}

func rewriteStyleNode(n *html.Node, pageURL string, resolve Resolver) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			c.Data = RewriteCSSContent(c.Data, pageURL, resolve)
		}
	}
}
