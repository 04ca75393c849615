package warcfetch

import "testing"

func TestUnwrapWaybackLocation(t *testing.T) {
	cases := map[string]string{
		"https://web.archive.org/web/20200101000000id_/http://example.com/x": "http://example.com/x",
		"http://example.com/already-plain":                                   "http://example.com/already-plain",
	}
	for in, want := range cases {
		if got := unwrapWaybackLocation(in); got != want {
			t.Errorf("unwrapWaybackLocation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsRedirectStatus(t *testing.T) {
	if !isRedirectStatus("301") || !isRedirectStatus("302") {
		t.Error("expected 30x to be a redirect status")
	}
	if isRedirectStatus("200") || isRedirectStatus("-") {
		t.Error("did not expect 200 or - to be a redirect status")
	}
}

func TestStatusText(t *testing.T) {
	if statusText(200) != "OK" {
		t.Errorf("statusText(200) = %q, want OK", statusText(200))
	}
	if statusText(999) != "" {
		t.Errorf("statusText(999) = %q, want empty", statusText(999))
	}
}
