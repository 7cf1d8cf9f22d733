// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

// Entity is one node of the discovered file-system tree: a directory or a
// file, carrying its own lifecycle state, generation counter, enable mask,
// and per-method stats accumulators. Entities are created once at tree
// construction and never restructured afterward — only State, Generation,
// and EnableMask mutate.
type Entity struct {
	Kind Kind
	Path string // absolute local filesystem path
	Name string // final path component
	Size int64  // file size in bytes; 0 for directories

	Generation int
	State      State
	EnableMask EnableMask

	StatsByMethod map[Method]*Stats

	Children []*Entity
}

// newEntity allocates an entity with a fresh stats handle per method and the
// list's default enable mask.
func newEntity(kind Kind, path, name string, size int64, mask EnableMask) *Entity {
	e := &Entity{
		Kind:          kind,
		Path:          path,
		Name:          name,
		Size:          size,
		State:         StateUpload,
		EnableMask:    mask.Clone(),
		StatsByMethod: make(map[Method]*Stats, len(AllMethods)),
	}
	for _, m := range AllMethods {
		e.StatsByMethod[m] = NewStats()
	}
	return e
}

// IsTerminalAt reports whether this entity has nothing left to do in order
// to reach generation target — i.e. it has already reached it.
func (e *Entity) IsTerminalAt(target int) bool {
	return e.Generation >= target
}

// Walk visits e and every descendant, depth-first, pre-order.
func (e *Entity) Walk(fn func(*Entity)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Advance moves e to the next lifecycle state, honoring its enable mask:
//
//   - A directory landing in a *_sub state stays there; the selector, not
//     Advance, waits for descendants and then moves it on (see selector.go).
//   - Advance does not elide download_sub itself; the selector calls
//     elideEmptyDownloadSub for that.
//   - Advancing past delete rolls the generation and returns to upload.
func (e *Entity) Advance() {
	next, rolledOver := advance(e.Kind, e.State, e.EnableMask)
	e.State = next
	if rolledOver {
		e.Generation++
	}
}

// elideEmptyDownloadSub advances a directory once more out of download_sub
// when it has just landed there but has no children still below the target
// generation for download. Called by the selector after it determines the
// *_sub wait is satisfied; kept here because it shares Advance's transition
// table.
func (e *Entity) elideEmptyDownloadSub() {
	if e.State == StateDownloadSub {
		e.Advance()
	}
}

// EntityList is the forest: a single rooted tree plus list-wide state.
type EntityList struct {
	Root           *Entity
	BasePath       string
	Generation     int
	ListEnableMask EnableMask
}

// NewEntityList wires a root entity into a fresh forest with the given base
// path and a copy of the default enable mask.
func NewEntityList(root *Entity, basePath string) *EntityList {
	mask := NewEnableMask()
	return &EntityList{
		Root:           root,
		BasePath:       basePath,
		Generation:     0,
		ListEnableMask: mask,
	}
}

// Count returns the total number of entities in the forest.
func (l *EntityList) Count() int {
	n := 0
	l.Root.Walk(func(*Entity) { n++ })
	return n
}

// SetStateEnabled disables or enables a state across every entity in the
// forest and updates the list-wide default mask used for any future
// construction. Used by the OPTIONS-pruning rule in §4.5 when the Allow
// header is missing a method for the root entity.
func (l *EntityList) SetStateEnabled(s State, enabled bool) {
	l.ListEnableMask[s] = enabled
	l.Root.Walk(func(e *Entity) {
		e.EnableMask[s] = enabled
	})
}
