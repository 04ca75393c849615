package warcpipe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sigman78/cdxt/internal/warcwrite"
)

// memShardWriter is an in-memory warcwrite.ShardWriter for tests.
type memShardWriter struct {
	mu      sync.Mutex
	records [][]byte
	closed  bool
}

func (w *memShardWriter) WriteRecord(record []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, append([]byte(nil), record...))
	return nil
}

func (w *memShardWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *memShardWriter) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var n int64
	for _, r := range w.records {
		n += int64(len(r))
	}
	return n
}

func (w *memShardWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

type fakeReader struct{}

func (fakeReader) FetchRange(_ context.Context, job RangeJob) ([]byte, error) {
	return []byte(fmt.Sprintf("record-%s-%d", job.URL, job.Offset)), nil
}

func TestRunWritesEveryJobAcrossWriters(t *testing.T) {
	const totalJobs = 20
	jobs := make(chan RangeJob, totalJobs)
	for i := 0; i < totalJobs; i++ {
		jobs <- RangeJob{URL: "shard.warc.gz", Offset: int64(i), Length: 10, RecordsCount: 1}
	}
	close(jobs)

	var writersMu sync.Mutex
	var writers []*memShardWriter

	totals, err := Run(context.Background(), jobs, fakeReader{}, Options{
		Readers: 4,
		Writers: 2,
		NewShardWriter: func(writerID int) (warcwrite.ShardWriter, error) {
			w := &memShardWriter{}
			writersMu.Lock()
			writers = append(writers, w)
			writersMu.Unlock()
			return w, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if totals.JobsRead != totalJobs {
		t.Errorf("JobsRead = %d, want %d", totals.JobsRead, totalJobs)
	}
	if totals.RecordsWritten != totalJobs {
		t.Errorf("RecordsWritten = %d, want %d", totals.RecordsWritten, totalJobs)
	}

	sum := 0
	for _, w := range writers {
		sum += w.count()
		if !w.closed {
			t.Error("expected every writer's shard to be closed")
		}
	}
	if sum != totalJobs {
		t.Errorf("sum of per-writer records = %d, want %d", sum, totalJobs)
	}
}

func TestRunHonorsRecordLimit(t *testing.T) {
	const totalJobs = 10
	const limit = 4
	jobs := make(chan RangeJob, totalJobs)
	for i := 0; i < totalJobs; i++ {
		jobs <- RangeJob{URL: "shard.warc.gz", Offset: int64(i), Length: 10, RecordsCount: 1}
	}
	close(jobs)

	totals, err := Run(context.Background(), jobs, fakeReader{}, Options{
		Readers:     2,
		Writers:     1,
		RecordLimit: limit,
		NewShardWriter: func(writerID int) (warcwrite.ShardWriter, error) {
			return &memShardWriter{}, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if totals.JobsRead != limit {
		t.Errorf("JobsRead = %d, want %d (limit enforced)", totals.JobsRead, limit)
	}
}

func TestRunEmitsResourceRecordsPerShard(t *testing.T) {
	jobs := make(chan RangeJob, 1)
	jobs <- RangeJob{URL: "shard.warc.gz", Offset: 0, Length: 10, RecordsCount: 1}
	close(jobs)

	var writer *memShardWriter
	_, err := Run(context.Background(), jobs, fakeReader{}, Options{
		Readers: 1,
		Writers: 1,
		ResourceRecords: []ResourceRecord{
			{Path: "meta.json", ContentType: "application/json", Data: []byte("resource-record")},
		},
		NewShardWriter: func(writerID int) (warcwrite.ShardWriter, error) {
			writer = &memShardWriter{}
			return writer, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.count() != 2 {
		t.Fatalf("got %d records in shard, want 2 (resource record + data record)", writer.count())
	}
	if string(writer.records[0]) != "resource-record" {
		t.Errorf("expected resource record first, got %q", writer.records[0])
	}
}
