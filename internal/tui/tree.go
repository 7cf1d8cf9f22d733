// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package tui renders the discovered entity forest and live progress for
// the urltest-webdav CLI, adapted from the teacher's hfclient tree printer
// and tui progress renderer.
package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/jtfrey/urltest/pkg/urltest"
)

// Listing selects how much detail PrintTree shows.
type Listing int

const (
	ListingNone Listing = iota
	ListingShort
	ListingLong
)

var asciiKindTokens = [...]string{urltest.KindDirectory: "D", urltest.KindFile: "F"}
var utf8KindTokens = [...]string{urltest.KindDirectory: "📁", urltest.KindFile: "📄"}

var asciiStateTokens = [...]string{
	urltest.StateUpload:         "U",
	urltest.StateUploadSub:      "u",
	urltest.StateOptions:        "O",
	urltest.StateGetInfo:        "I",
	urltest.StateDownloadSub:    "d",
	urltest.StateDownloadRange:  "R",
	urltest.StateDownload:       "D",
	urltest.StateDeleteSub:      "x",
	urltest.StateDelete:         "X",
}

var utf8StateTokens = [...]string{
	urltest.StateUpload:        "↑",
	urltest.StateUploadSub:     "⇡",
	urltest.StateOptions:       "⚙",
	urltest.StateGetInfo:       "ℹ",
	urltest.StateDownloadSub:   "⇣",
	urltest.StateDownloadRange: "⤓",
	urltest.StateDownload:      "↓",
	urltest.StateDeleteSub:     "✕",
	urltest.StateDelete:        "✖︎",
}

// kindToken returns the glyph for kind, ASCII when ascii is set.
func kindToken(kind urltest.Kind, ascii bool) string {
	if ascii {
		return asciiKindTokens[kind]
	}
	return utf8KindTokens[kind]
}

// stateToken returns the glyph for state, ASCII when ascii is set.
func stateToken(state urltest.State, ascii bool) string {
	if ascii {
		return asciiStateTokens[state]
	}
	return utf8StateTokens[state]
}

// PrintTree renders list's entity forest to w per the selected Listing
// level, adapted from hfclient.PrintFileTree's box-drawing walk: here the
// entities already form the tree, so no path-splitting/rebuild step is
// needed before printing.
func PrintTree(w io.Writer, list *urltest.EntityList, listing Listing, ascii, useColor bool) {
	if listing == ListingNone {
		return
	}
	width := terminalWidth(w)
	printNode(w, list.Root, "", true, listing, ascii, useColor, width)
}

// terminalWidth returns w's column width when it's an interactive terminal,
// or 0 (meaning "don't truncate") otherwise.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

func printNode(w io.Writer, e *urltest.Entity, prefix string, isLast bool, listing Listing, ascii, useColor bool, width int) {
	marker := "├── "
	if isLast {
		marker = "└── "
	}

	line := fmt.Sprintf("%s%s%s %s", prefix, marker, kindToken(e.Kind, ascii), e.Name)
	if listing == ListingLong {
		token := stateToken(e.State, ascii)
		if useColor {
			token = colorForState(e.State).Sprint(token)
		}
		extra := fmt.Sprintf(" [gen %d, %s]", e.Generation, token)
		if e.Kind == urltest.KindFile {
			extra += fmt.Sprintf(" (%d bytes)", e.Size)
		}
		line += extra
	}
	fmt.Fprintln(w, truncateLine(line, width))

	children := make([]*urltest.Entity, len(e.Children))
	copy(children, e.Children)
	sort.Slice(children, func(i, j int) bool {
		if (children[i].Kind == urltest.KindDirectory) != (children[j].Kind == urltest.KindDirectory) {
			return children[i].Kind == urltest.KindDirectory
		}
		return children[i].Name < children[j].Name
	})

	childPrefix := prefix
	if isLast {
		childPrefix += "    "
	} else {
		childPrefix += "│   "
	}
	for i, c := range children {
		printNode(w, c, childPrefix, i == len(children)-1, listing, ascii, useColor, width)
	}
}

// truncateLine shortens line to fit width columns, appending an ellipsis,
// when width is positive and the line exceeds it. A width of 0 disables
// truncation (the non-interactive / redirected-output case).
func truncateLine(line string, width int) string {
	if width <= 0 {
		return line
	}
	if utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func colorForState(s urltest.State) *color.Color {
	switch s {
	case urltest.StateDelete, urltest.StateDeleteSub:
		return color.New(color.FgRed)
	case urltest.StateDownload, urltest.StateDownloadRange, urltest.StateDownloadSub:
		return color.New(color.FgCyan)
	case urltest.StateUpload, urltest.StateUploadSub:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgYellow)
	}
}
