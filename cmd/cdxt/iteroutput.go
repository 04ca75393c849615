package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sigman78/cdxt/internal/cdx"
)

// cdxFieldNames are the canonical lowercase CDX dialect field names, in
// the order -all-fields prints them.
var cdxFieldNames = []string{
	"urlkey", "timestamp", "url", "mime", "status", "digest", "length", "offset", "filename",
}

// captureField returns one Capture field by its lowercase CDX name.
func captureField(c cdx.Capture, name string) string {
	switch name {
	case "urlkey":
		return c.URLKey
	case "timestamp":
		return c.Timestamp
	case "url":
		return c.URL
	case "mime":
		return c.Mime
	case "status":
		return c.Status
	case "digest":
		return c.Digest
	case "length":
		return c.Length
	case "offset":
		return c.Offset
	case "filename":
		return c.Filename
	default:
		return ""
	}
}

// parseFields splits and validates a -fields value against cdxFieldNames.
func parseFields(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !validField(f) {
			return nil, fmt.Errorf("unknown field %q (want one of %s)", f, strings.Join(cdxFieldNames, ","))
		}
		out = append(out, f)
	}
	return out, nil
}

func validField(name string) bool {
	for _, f := range cdxFieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// captureEmitter writes a sequence of captures in one selected output
// format: whole-object JSON lines (the default), field-subset JSON lines,
// or CSV, matching cdx_to_json's/iter's shape.
type captureEmitter struct {
	fields []string // nil means whole-capture JSON
	csvw   *csv.Writer
	jsonw  *json.Encoder
}

func newCaptureEmitter(w io.Writer, fields []string, asCSV bool) *captureEmitter {
	e := &captureEmitter{fields: fields}
	if asCSV {
		e.csvw = csv.NewWriter(w)
	} else {
		e.jsonw = json.NewEncoder(w)
	}
	return e
}

func (e *captureEmitter) Emit(c cdx.Capture) error {
	if e.csvw != nil {
		return e.emitCSV(c)
	}
	return e.emitJSON(c)
}

func (e *captureEmitter) emitCSV(c cdx.Capture) error {
	fields := e.fields
	if fields == nil {
		fields = cdxFieldNames
	}
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = captureField(c, f)
	}
	return e.csvw.Write(row)
}

func (e *captureEmitter) emitJSON(c cdx.Capture) error {
	if e.fields == nil {
		return e.jsonw.Encode(c)
	}
	obj := make(map[string]string, len(e.fields))
	for _, f := range e.fields {
		obj[f] = captureField(c, f)
	}
	return e.jsonw.Encode(obj)
}

// Close flushes any buffered output; only the CSV writer buffers.
func (e *captureEmitter) Close() error {
	if e.csvw != nil {
		e.csvw.Flush()
		return e.csvw.Error()
	}
	return nil
}
