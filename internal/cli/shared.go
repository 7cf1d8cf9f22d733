// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jtfrey/urltest/pkg/urltest"
)

// parseShowTimings parses a -t/--show-timings value of the form
// "<format>{:<path>}" into a Format and an optional output file. An empty
// spec disables the stats report entirely (format is meaningless then, so
// FormatTable/false/nil are returned).
func parseShowTimings(spec string) (urltest.Format, *os.File, bool, error) {
	if spec == "" {
		return urltest.FormatTable, nil, false, nil
	}
	formatPart, path, _ := strings.Cut(spec, ":")
	format, err := urltest.ParseFormat(formatPart)
	if err != nil {
		return urltest.FormatTable, nil, false, err
	}
	if path == "" {
		return format, nil, false, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return urltest.FormatTable, nil, false, fmt.Errorf("urltest: unable to open timing output %q: %w", path, err)
	}
	return format, f, false, nil
}
