// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"

	"github.com/jtfrey/urltest/pkg/urltest"
)

// BarRenderer drives a single cheggaaa/pb progress bar over the run's total
// expected step count (entity count times lifecycle-visits-per-generation),
// the way the teacher's LiveRenderer drives one bar per file but collapsed
// to the single bar a driver-loop run actually has a use for.
type BarRenderer struct {
	bar *pb.ProgressBar
}

// NewBarRenderer creates a bar templated for step counts rather than byte
// counts: "Steps: <n> / <total>", then the bar, percentage and elapsed time.
func NewBarRenderer(total int) *BarRenderer {
	tmpl := `{{ "Steps:" }} {{counters . }} {{ bar . }} {{percent . }} {{etime . }}`
	bar := pb.ProgressBarTemplate(tmpl).Start(total)
	return &BarRenderer{bar: bar}
}

// Handler returns a urltest.TraceFunc that increments the bar once per
// event. It never finishes the bar; the caller does that with Finish.
func (r *BarRenderer) Handler() urltest.TraceFunc {
	return func(urltest.TraceEvent) {
		r.bar.Increment()
	}
}

// Finish stops the bar and restores the cursor.
func (r *BarRenderer) Finish() {
	r.bar.Finish()
}

// WriteTraceLine prints one verbose trace line for ev to w, colorizing the
// method token the way the original C tool's --verbose-curl output
// distinguishes request/response lines, adapted here to urltest's
// TraceEvent shape.
func WriteTraceLine(w io.Writer, ev urltest.TraceEvent, useColor bool) {
	methodStr := string(ev.Method)
	if useColor {
		methodStr = colorForMethod(ev.Method).Sprint(methodStr)
	}
	if ev.DryRun {
		fmt.Fprintf(w, "<- %-8s %s  (%s -> %s)\n", methodStr, ev.URL, ev.FromState, ev.ToState)
		return
	}
	fmt.Fprintf(w, "%-8s %3d %s  (%s -> %s)\n", methodStr, ev.Status, ev.URL, ev.FromState, ev.ToState)
}

func colorForMethod(m urltest.Method) *color.Color {
	switch m {
	case urltest.MethodDELETE:
		return color.New(color.FgRed)
	case urltest.MethodGET:
		return color.New(color.FgCyan)
	case urltest.MethodPUT, urltest.MethodMKCOL:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}
