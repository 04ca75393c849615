package cdx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sigman78/cdxt/internal/httpx"
)

func newTestClient() *httpx.Client {
	return httpx.New(nil)
}

func TestIterPywbPagesAcrossLastPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		page := r.URL.Query().Get("page")
		switch page {
		case "0":
			w.Write([]byte(`{"urlkey":"com,example)/","timestamp":"20200101000000","url":"http://example.com/","status":"200","mime":"text/html","digest":"ABC","length":"100"}
{"urlkey":"com,example)/","timestamp":"20200102000000","url":"http://example.com/","status":"200","mime":"text/html","digest":"DEF","length":"120"}`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	f := NewRaw(newTestClient(), srv.URL)
	it := f.Iter(context.Background(), Params{URL: "example.com/*"})
	var got []Capture
	for it.Next() {
		got = append(got, it.Capture())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d captures, want 2", len(got))
	}
	if got[0].Digest != "ABC" || got[1].Digest != "DEF" {
		t.Errorf("got %+v, want ABC then DEF in order", got)
	}
}

func TestIterHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "0" {
			w.Write([]byte(`{"urlkey":"a","timestamp":"1","url":"a","status":"200","mime":"text/html","digest":"1","length":"1"}
{"urlkey":"a","timestamp":"2","url":"a","status":"200","mime":"text/html","digest":"2","length":"1"}
{"urlkey":"a","timestamp":"3","url":"a","status":"200","mime":"text/html","digest":"3","length":"1"}`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewRaw(newTestClient(), srv.URL)
	it := f.Iter(context.Background(), Params{URL: "example.com/*", Limit: 2})
	var got []Capture
	for it.Next() {
		got = append(got, it.Capture())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d captures, want exactly 2 (limit enforced)", len(got))
	}
}

func TestIterEmptyResultIsLastPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"error":"No Captures found"}`))
	}))
	defer srv.Close()

	f := NewRaw(newTestClient(), srv.URL)
	it := f.Iter(context.Background(), Params{URL: "example.com/*"})
	if it.Next() {
		t.Fatal("expected no captures")
	}
	if err := it.Err(); err != nil {
		t.Fatalf("expected no error on empty 404, got %v", err)
	}
}

func TestIterIAArrayOfArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "0" {
			w.Write([]byte(`[["urlkey","timestamp","original","statuscode","mimetype","digest","length"],
["com,example)/","20200101000000","http://example.com/","200","text/html","ABC","100"]]`))
			return
		}
		w.Write([]byte(``))
	}))
	defer srv.Close()

	f := NewIA(newTestClient())
	f.endpoints = []string{srv.URL}
	it := f.Iter(context.Background(), Params{URL: "example.com/*"})
	var got []Capture
	for it.Next() {
		got = append(got, it.Capture())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d captures, want 1", len(got))
	}
	if got[0].URL != "http://example.com/" || got[0].Status != "200" {
		t.Errorf("got %+v, want normalized ia fields", got[0])
	}
}

func TestGetSizeEstimatePywbBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blocks":3}`))
	}))
	defer srv.Close()

	f := NewRaw(newTestClient(), srv.URL)
	samples, err := f.GetSizeEstimate(context.Background(), Params{URL: "example.com/*"}, false)
	if err != nil {
		t.Fatalf("GetSizeEstimate: %v", err)
	}
	want := 3*float64(defaultLinesPerPage) - float64(defaultLinesPerPage)
	if samples != want {
		t.Errorf("got %v, want %v", samples, want)
	}
}

func TestGetSizeEstimateAsPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blocks":5}`))
	}))
	defer srv.Close()

	f := NewRaw(newTestClient(), srv.URL)
	pages, err := f.GetSizeEstimate(context.Background(), Params{URL: "example.com/*"}, true)
	if err != nil {
		t.Fatalf("GetSizeEstimate: %v", err)
	}
	if pages != 5 {
		t.Errorf("got %v pages, want 5", pages)
	}
}
