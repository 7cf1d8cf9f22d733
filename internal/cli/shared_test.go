// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jtfrey/urltest/pkg/urltest"
)

func TestParseShowTimings_Empty(t *testing.T) {
	format, sink, showAll, err := parseShowTimings("")
	if err != nil {
		t.Fatalf("parseShowTimings: %v", err)
	}
	if format != urltest.FormatTable || sink != nil || showAll {
		t.Errorf("got (%v, %v, %v), want (table, nil, false)", format, sink, showAll)
	}
}

func TestParseShowTimings_FormatOnly(t *testing.T) {
	format, sink, _, err := parseShowTimings("csv")
	if err != nil {
		t.Fatalf("parseShowTimings: %v", err)
	}
	if format != urltest.FormatCSV {
		t.Errorf("format = %v, want csv", format)
	}
	if sink != nil {
		t.Error("expected no sink file without a path portion")
	}
}

func TestParseShowTimings_FormatAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	format, sink, _, err := parseShowTimings("csv:" + path)
	if err != nil {
		t.Fatalf("parseShowTimings: %v", err)
	}
	defer sink.Close()
	if format != urltest.FormatCSV {
		t.Errorf("format = %v, want csv", format)
	}
	if sink == nil {
		t.Fatal("expected a sink file to be opened")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func TestParseShowTimings_InvalidFormat(t *testing.T) {
	if _, _, _, err := parseShowTimings("xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
