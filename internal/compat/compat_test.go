package compat

import (
	"reflect"
	"testing"
)

func TestTranslateFilterIALeavesIANamesUnchanged(t *testing.T) {
	got, err := TranslateFilter("statuscode:200", "ia")
	if err != nil {
		t.Fatalf("TranslateFilter: %v", err)
	}
	if got != "statuscode:200" {
		t.Errorf("got %q, want unchanged (already ia-shaped)", got)
	}
}

func TestTranslateFilterIARejectsUnsupportedOperator(t *testing.T) {
	if _, err := TranslateFilter("=exact match", "ia"); err == nil {
		t.Error("expected error for = operator on ia source")
	}
	if _, err := TranslateFilter("!~negated regex", "ia"); err == nil {
		t.Error("expected error for !~ operator on ia source")
	}
}

func TestTranslateFilterToPywbRewritesFieldName(t *testing.T) {
	got, err := TranslateFilter("statuscode:200", "cc")
	if err != nil {
		t.Fatalf("TranslateFilter: %v", err)
	}
	if got != "status:200" {
		t.Errorf("got %q, want status:200", got)
	}
}

func TestTranslateFilterOnlyFirstOccurrence(t *testing.T) {
	got, err := TranslateFilter("original:example.com original:foo.com", "cc")
	if err != nil {
		t.Fatalf("TranslateFilter: %v", err)
	}
	if got != "url:example.com original:foo.com" {
		t.Errorf("got %q, want only first occurrence rewritten", got)
	}
}

func TestTranslateFilterPreservesNegation(t *testing.T) {
	got, err := TranslateFilter("!original:example.com", "cc")
	if err != nil {
		t.Fatalf("TranslateFilter: %v", err)
	}
	if got != "!url:example.com" {
		t.Errorf("got %q, want negation preserved", got)
	}
}

func TestNormalizeFields(t *testing.T) {
	fields := []string{"urlkey", "timestamp", "original", "statuscode"}
	rows := [][]string{
		{"com,example)/", "20200101000000", "http://example.com/", "200"},
	}
	got := NormalizeFields(fields, rows)
	want := []map[string]string{
		{"urlkey": "com,example)/", "timestamp": "20200101000000", "url": "http://example.com/", "status": "200"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
