// Package compat irons out the field-name and filter-expression
// differences between IA's java-wayback CDX dialect and pywb's dialect,
// grounded on cdx_toolkit's compat.py.
package compat

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldsToPywb maps IA (java-wayback) field names to pywb field names.
var FieldsToPywb = map[string]string{
	"statuscode": "status",
	"original":   "url",
	"mimetype":   "mime",
}

// FieldsToIA is the inverse of FieldsToPywb.
var FieldsToIA = invert(FieldsToPywb)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var unsupportedIAOperators = []string{"!=", "!~", "=", "~"}

// TranslateFilter rewrites one filter expression between dialects.
// For source == "ia", unsupported operators are rejected first, then pywb
// field names are rewritten to IA names. For any other source (cc, or a raw
// endpoint), IA field names are rewritten to pywb names. A leading '!'
// negation is preserved; only the first occurrence of the field token is
// rewritten, matching re.sub(..., count=1).
func TranslateFilter(expr, source string) (string, error) {
	if source == "ia" {
		body := expr
		if strings.HasPrefix(body, "!") {
			body = body[1:]
		}
		for _, op := range unsupportedIAOperators {
			if strings.HasPrefix(body, op) {
				return "", fmt.Errorf("compat: ia does not support the filter operator %q in %q", op, expr)
			}
		}
		return rewriteFirstField(expr, FieldsToIA), nil
	}
	return rewriteFirstField(expr, FieldsToPywb), nil
}

// rewriteFirstField replaces the first occurrence of any key in table
// (matched as a whole field token followed by ':') with its mapped value.
func rewriteFirstField(expr string, table map[string]string) string {
	for from, to := range table {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `:`)
		if loc := re.FindStringIndex(expr); loc != nil {
			return expr[:loc[0]] + to + ":" + expr[loc[1]:]
		}
	}
	return expr
}

// NormalizeFields turns IA's "first row is field names, remaining rows are
// value lists" wire shape into a slice of pywb-keyed maps.
func NormalizeFields(fields []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(fields))
		for i, f := range fields {
			if i >= len(row) {
				break
			}
			if pywb, ok := FieldsToPywb[f]; ok {
				obj[pywb] = row[i]
			} else {
				obj[f] = row[i]
			}
		}
		out = append(out, obj)
	}
	return out
}
