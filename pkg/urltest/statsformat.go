// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format selects one of the three stats report renderings §3/§6 describe.
type Format int

const (
	FormatTable Format = iota
	FormatCSV
	FormatTSV
)

// ParseFormat maps the format part of a -t/--show-timings value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	default:
		return FormatTable, fmt.Errorf("urltest: unknown format %q (want table, csv, or tsv)", s)
	}
}

// MergeByMethod walks the whole entity forest and folds every node's
// per-method accumulators into one combined Stats per method, the way the
// CLI's final report presents them: one table per HTTP method, not one per
// filesystem node.
func MergeByMethod(list *EntityList) map[Method]*Stats {
	merged := make(map[Method]*Stats, len(AllMethods))
	for _, m := range AllMethods {
		merged[m] = NewStats()
	}
	list.Root.Walk(func(e *Entity) {
		for _, m := range AllMethods {
			merged[m].Merge(e.StatsByMethod[m])
		}
	})
	return merged
}

// displayFields are the fields shown in a report, in column order; every
// field, content bytes included, gets its own min/max/avg/stddev columns.
var displayFields = []Field{
	FieldDNS, FieldTCPConnect, FieldTLSHandshake, FieldPreTransfer,
	FieldFirstResponseByte, FieldTotalTime, FieldContentBytes,
}

// WriteReport renders one method's Stats in the requested format. showAll
// controls whether buckets with a zero count are still printed (off by
// default, matching http_stats_fprint's behavior of skipping empty classes).
func WriteReport(w io.Writer, method Method, s *Stats, format Format, showAll bool) error {
	switch format {
	case FormatCSV:
		return writeDelimited(w, method, s, ",", showAll)
	case FormatTSV:
		return writeDelimited(w, method, s, "\t", showAll)
	default:
		return writeTable(w, method, s, showAll)
	}
}

func bucketsToShow(s *Stats, showAll bool) []Bucket {
	var out []Bucket
	for b := Bucket(0); b < bucketMax; b++ {
		if showAll || s.Count(b) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func writeTable(w io.Writer, method Method, s *Stats, showAll bool) error {
	buckets := bucketsToShow(s, showAll)
	if len(buckets) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%s\n", method)
	header := fmt.Sprintf("%-12s %8s", "class", "count")
	for _, f := range displayFields {
		label := shortFieldLabel(f)
		header += fmt.Sprintf(" %12s %12s %12s %12s", label+".min", label+".max", label+".avg", label+".stddev")
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, b := range buckets {
		row := fmt.Sprintf("%-12s %8d", b, s.Count(b))
		for _, f := range displayFields {
			snap := s.Snapshot(b, f)
			row += fmt.Sprintf(" %12.2f %12.2f %12.2f %12.2f", snap.Min, snap.Max, snap.Mean, snap.StdDev)
		}
		fmt.Fprintln(w, row)
	}
	fmt.Fprintln(w)
	return nil
}

func writeDelimited(w io.Writer, method Method, s *Stats, sep string, showAll bool) error {
	buckets := bucketsToShow(s, showAll)
	cols := []string{"method", "class", "count"}
	for _, f := range displayFields {
		cols = append(cols,
			shortFieldLabel(f)+".min", shortFieldLabel(f)+".max",
			shortFieldLabel(f)+".mean", shortFieldLabel(f)+".stddev")
	}
	fmt.Fprintln(w, strings.Join(cols, sep))

	for _, b := range buckets {
		row := []string{string(method), b.String(), strconv.FormatUint(s.Count(b), 10)}
		for _, f := range displayFields {
			snap := s.Snapshot(b, f)
			row = append(row,
				formatFloat(snap.Min), formatFloat(snap.Max),
				formatFloat(snap.Mean), formatFloat(snap.StdDev))
		}
		fmt.Fprintln(w, strings.Join(row, sep))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func shortFieldLabel(f Field) string {
	switch f {
	case FieldDNS:
		return "dns"
	case FieldTCPConnect:
		return "connect"
	case FieldTLSHandshake:
		return "tls"
	case FieldPreTransfer:
		return "pretransfer"
	case FieldFirstResponseByte:
		return "firstbyte"
	case FieldTotalTime:
		return "total"
	case FieldContentBytes:
		return "bytes"
	default:
		return f.String()
	}
}

// WriteFullReport renders every method that recorded at least one sample
// (or all of them, when showAll is set), in AllMethods order.
func WriteFullReport(w io.Writer, merged map[Method]*Stats, format Format, showAll bool) error {
	for _, m := range AllMethods {
		s := merged[m]
		if s == nil {
			continue
		}
		if !showAll && s.Count(BucketAll) == 0 {
			continue
		}
		if err := WriteReport(w, m, s, format, showAll); err != nil {
			return err
		}
	}
	return nil
}
