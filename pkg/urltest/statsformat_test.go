// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatTable, true},
		{"table", FormatTable, true},
		{"CSV", FormatCSV, true},
		{"tsv", FormatTSV, true},
		{"xml", FormatTable, false},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.in)
		if (err == nil) != c.ok {
			t.Errorf("ParseFormat(%q) err = %v, want ok=%v", c.in, err, c.ok)
		}
		if err == nil && got != c.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMergeByMethod_FoldsWholeForest(t *testing.T) {
	mask := NewEnableMask()
	root := newEntity(KindDirectory, "/r", "r", 0, mask)
	child := newEntity(KindFile, "/r/a", "a", 1, mask)
	root.Children = []*Entity{child}
	list := NewEntityList(root, "/r")

	root.StatsByMethod[MethodGET].Update(Timings{TotalTime: 0.1}, 200)
	child.StatsByMethod[MethodGET].Update(Timings{TotalTime: 0.2}, 200)

	merged := MergeByMethod(list)
	if got := merged[MethodGET].Count(BucketAll); got != 2 {
		t.Errorf("merged GET count = %d, want 2", got)
	}
	if got := merged[MethodPUT].Count(BucketAll); got != 0 {
		t.Errorf("merged PUT count = %d, want 0", got)
	}
}

func TestWriteReport_TableSkipsEmptyBucketsByDefault(t *testing.T) {
	s := NewStats()
	s.Update(Timings{TotalTime: 0.1}, 200)

	var buf bytes.Buffer
	if err := WriteReport(&buf, MethodGET, s, FormatTable, false); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "All requests") {
		t.Error("expected the All requests row")
	}
	if strings.Contains(out, "4XX") {
		t.Error("expected the empty 4XX bucket to be skipped")
	}
}

func TestWriteReport_ShowAllIncludesEmptyBuckets(t *testing.T) {
	s := NewStats()
	s.Update(Timings{TotalTime: 0.1}, 200)

	var buf bytes.Buffer
	if err := WriteReport(&buf, MethodGET, s, FormatTable, true); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), "4XX") {
		t.Error("expected the empty 4XX bucket to be included with showAll")
	}
}

func TestWriteReport_TableHasMinMaxAvgStddevColumns(t *testing.T) {
	s := NewStats()
	s.Update(Timings{TotalTime: 0.1}, 200)
	s.Update(Timings{TotalTime: 0.3}, 200)

	var buf bytes.Buffer
	if err := WriteReport(&buf, MethodGET, s, FormatTable, false); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"total.min", "total.max", "total.avg", "total.stddev"} {
		if !strings.Contains(out, want) {
			t.Errorf("table header missing column %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var row string
	for _, l := range lines {
		if strings.HasPrefix(l, "All requests") {
			row = l
			break
		}
	}
	if row == "" {
		t.Fatal("expected an All requests row")
	}
	// Timings are recorded in milliseconds: 0.1s and 0.3s show as 100.00 and 300.00.
	if strings.Count(row, "100.00") == 0 && strings.Count(row, "300.00") == 0 {
		t.Errorf("expected min/max values to appear distinctly in row: %q", row)
	}
}

func TestWriteReport_CSVHasHeaderAndRow(t *testing.T) {
	s := NewStats()
	s.Update(Timings{TotalTime: 0.1}, 200)

	var buf bytes.Buffer
	if err := WriteReport(&buf, MethodGET, s, FormatCSV, false); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + one row)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "method,class,count,") {
		t.Errorf("unexpected CSV header: %q", lines[0])
	}
}

func TestWriteFullReport_SkipsMethodsWithNoSamples(t *testing.T) {
	merged := make(map[Method]*Stats, len(AllMethods))
	for _, m := range AllMethods {
		merged[m] = NewStats()
	}
	merged[MethodGET].Update(Timings{TotalTime: 0.1}, 200)

	var buf bytes.Buffer
	if err := WriteFullReport(&buf, merged, FormatTable, false); err != nil {
		t.Fatalf("WriteFullReport: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, string(MethodGET)) {
		t.Error("expected GET's report to be present")
	}
	if strings.Contains(out, string(MethodPUT)) {
		t.Error("expected PUT (no samples) to be skipped")
	}
}
