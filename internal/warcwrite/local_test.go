package warcwrite

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalWriterRotatesShards(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "out")
	w := NewLocalWriter(prefix, "", 0, 100*1024, Metadata{Software: "cdxt/1.0"})

	payload := make([]byte, 30*1024)
	for i := 0; i < 10; i++ {
		if err := w.WriteRecord(payload); err != nil {
			t.Fatalf("WriteRecord %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d shard files, want 4 (10 * 30KiB records at 100KiB max)", len(entries))
	}
}

func TestLocalWriterUniqueFilenameProbing(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "out")

	if err := os.WriteFile(prefix+"-000001-001.extracted.warc.gz", []byte("existing"), 0644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	w := NewLocalWriter(prefix, "", 1, 0, Metadata{Software: "cdxt/1.0"})
	if err := w.WriteRecord([]byte("record")); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(prefix + "-000001-002.extracted.warc.gz"); err != nil {
		t.Errorf("expected writer to skip to seq 002, stat error: %v", err)
	}
}
