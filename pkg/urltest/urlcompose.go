// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import "strings"

// ComposeURL joins base with e's path relative to list.BasePath, inserting
// (or trimming) exactly one slash at the join point and appending a
// trailing slash for directories, per §4.6. It is pure and allocates once.
func ComposeURL(base string, list *EntityList, e *Entity) string {
	rel := strings.TrimPrefix(e.Path, list.BasePath)

	relHasLeadingSlash := strings.HasPrefix(rel, "/")
	baseHasTrailingSlash := strings.HasSuffix(base, "/")

	trailing := ""
	if e.Kind == KindDirectory && !(rel == "" && baseHasTrailingSlash) {
		trailing = "/"
	}

	var b strings.Builder
	b.Grow(len(base) + len(rel) + 2)

	switch {
	case relHasLeadingSlash && baseHasTrailingSlash:
		b.WriteString(base)
		b.WriteString(rel[1:])
	case relHasLeadingSlash && !baseHasTrailingSlash:
		b.WriteString(base)
		b.WriteString(rel)
	case baseHasTrailingSlash:
		b.WriteString(base)
		b.WriteString(rel)
	case len(rel) > 0:
		b.WriteString(base)
		b.WriteByte('/')
		b.WriteString(rel)
	default:
		b.WriteString(base)
	}
	b.WriteString(trailing)
	return b.String()
}
