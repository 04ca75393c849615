package urlnorm

import "testing"

func TestNormalizeBareDomainDefaultsToHTTPS(t *testing.T) {
	n, err := Normalize("example.com")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if n.CanonicalURL != "https://example.com/" {
		t.Errorf("CanonicalURL = %q, want https://example.com/", n.CanonicalURL)
	}
	if len(n.Variants) != 4 {
		t.Errorf("got %d variants, want 4 (http/https x bare/www)", len(n.Variants))
	}
}

func TestNormalizeStripsWWWForBareHost(t *testing.T) {
	n, err := Normalize("https://www.example.com/page")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if n.BareHost != "example.com" {
		t.Errorf("BareHost = %q, want example.com", n.BareHost)
	}
}

func TestNormalizeRejectsBadScheme(t *testing.T) {
	if _, err := Normalize("ftp://example.com"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	if _, err := Normalize("   "); err == nil {
		t.Error("expected error for empty input")
	}
}
