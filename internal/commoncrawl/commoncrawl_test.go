package commoncrawl

import (
	"testing"
)

func makeEndpoints(ids ...string) []Endpoint {
	out := make([]Endpoint, len(ids))
	for i, id := range ids {
		out[i] = Endpoint{ID: id, Name: id, CDXAPI: "https://index.commoncrawl.org/" + id + "-index"}
	}
	return out
}

func TestMatchCrawlsLastN(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05", "CC-MAIN-2020-10", "CC-MAIN-2020-16")
	got, err := MatchCrawls(all, []string{"2"})
	if err != nil {
		t.Fatalf("MatchCrawls: %v", err)
	}
	if len(got) != 2 || got[0].ID != "CC-MAIN-2020-10" || got[1].ID != "CC-MAIN-2020-16" {
		t.Errorf("got %v, want last 2 endpoints", got)
	}
}

func TestMatchCrawlsLastNTooLarge(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05")
	if _, err := MatchCrawls(all, []string{"5"}); err == nil {
		t.Error("expected error requesting more crawls than exist")
	}
}

func TestMatchCrawlsSubstring(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05", "CC-MAIN-2021-10")
	got, err := MatchCrawls(all, []string{"2021"})
	if err != nil {
		t.Fatalf("MatchCrawls: %v", err)
	}
	if len(got) != 1 || got[0].ID != "CC-MAIN-2021-10" {
		t.Errorf("got %v, want CC-MAIN-2021-10", got)
	}
}

func TestMatchCrawlsUnmatchedIsError(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05")
	if _, err := MatchCrawls(all, []string{"2099"}); err == nil {
		t.Error("expected error for unmatched crawl substring")
	}
}

func TestApplyDefaultsClosestWindow(t *testing.T) {
	from, to, err := ApplyDefaults("20200401000000", "", "")
	if err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if from == "" || to == "" {
		t.Fatalf("expected both from and to to be derived, got from=%q to=%q", from, to)
	}
	if from >= to {
		t.Errorf("from %q should be before to %q", from, to)
	}
}

func TestApplyDefaultsNoClosestPassesThrough(t *testing.T) {
	from, to, err := ApplyDefaults("", "20200101000000", "20200201000000")
	if err != nil {
		t.Fatalf("ApplyDefaults: %v", err)
	}
	if from != "20200101000000" || to != "20200201000000" {
		t.Errorf("got from=%q to=%q, want pass-through", from, to)
	}
}

func TestBisectByTimeCoversWindow(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05", "CC-MAIN-2020-16", "CC-MAIN-2020-24")
	got, err := BisectByTime(all, "20200201000000", "20200401000000")
	if err != nil {
		t.Fatalf("BisectByTime: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one endpoint to cover the window")
	}
	for _, ep := range got {
		if ep.ID == "CC-MAIN-2020-24" {
			t.Errorf("CC-MAIN-2020-24 should not be selected: window ends before it starts")
		}
	}
}

func TestBisectByTimeEmptyBoundsReturnsAll(t *testing.T) {
	all := makeEndpoints("CC-MAIN-2020-05", "CC-MAIN-2020-16")
	got, err := BisectByTime(all, "", "")
	if err != nil {
		t.Fatalf("BisectByTime: %v", err)
	}
	if len(got) != len(all) {
		t.Errorf("got %d endpoints, want all %d", len(got), len(all))
	}
}
