// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import "fmt"

// Kind distinguishes directory entities from file entities.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// State is one position in an entity's lifecycle. Files skip the *_sub
// states entirely; directories visit all of them.
type State int

const (
	StateUpload State = iota
	StateUploadSub
	StateOptions
	StateGetInfo
	StateDownloadSub
	StateDownloadRange
	StateDownload
	StateDeleteSub
	StateDelete
	stateMax
)

var stateLabels = [...]string{
	StateUpload:         "upload",
	StateUploadSub:       "upload_sub",
	StateOptions:         "options",
	StateGetInfo:         "getinfo",
	StateDownloadSub:     "download_sub",
	StateDownloadRange:   "download_range",
	StateDownload:        "download",
	StateDeleteSub:       "delete_sub",
	StateDelete:          "delete",
}

func (s State) String() string { return stateLabels[s] }

// isSub reports whether s is one of the directory-only waiting states.
func (s State) isSub() bool {
	return s == StateUploadSub || s == StateDownloadSub || s == StateDeleteSub
}

// fileSequence and dirSequence are the fixed ring of states each kind
// advances through. download_range sits right before download (after
// getinfo for files, after download_sub for directories) so that disabling it (the common case — it's off by default) is a single
// enableMask bit, matching spec.md's §4.3 method table and the -r flag in §6.
var fileSequence = []State{
	StateUpload, StateOptions, StateGetInfo, StateDownloadRange, StateDownload, StateDelete,
}

var dirSequence = []State{
	StateUpload, StateUploadSub, StateOptions, StateGetInfo, StateDownloadSub,
	StateDownloadRange, StateDownload, StateDeleteSub, StateDelete,
}

func sequenceFor(k Kind) []State {
	if k == KindDirectory {
		return dirSequence
	}
	return fileSequence
}

// Method is the HTTP verb a non-sub state maps to.
type Method string

const (
	MethodMKCOL    Method = "MKCOL"
	MethodPUT      Method = "PUT"
	MethodOPTIONS  Method = "OPTIONS"
	MethodPROPFIND Method = "PROPFIND"
	MethodGET      Method = "GET"
	MethodDELETE   Method = "DELETE"
)

// AllMethods lists every method the stats accumulator keys on, per §3.
var AllMethods = []Method{MethodGET, MethodMKCOL, MethodPUT, MethodDELETE, MethodPROPFIND, MethodOPTIONS}

// MethodFor returns the HTTP method bound to a (kind, state) pair. Sub
// states have no bound method; ok is false for them.
func MethodFor(kind Kind, state State) (Method, bool) {
	switch state {
	case StateUpload:
		if kind == KindDirectory {
			return MethodMKCOL, true
		}
		return MethodPUT, true
	case StateOptions:
		return MethodOPTIONS, true
	case StateGetInfo:
		return MethodPROPFIND, true
	case StateDownloadRange, StateDownload:
		return MethodGET, true
	case StateDelete:
		return MethodDELETE, true
	default:
		return "", false
	}
}

// EnableMask is the set of permitted states for an entity or, forest-wide,
// the default mask copied into every new entity.
type EnableMask map[State]bool

// NewEnableMask returns a mask with every state enabled except
// download_range (off by default per §6's -r flag).
func NewEnableMask() EnableMask {
	m := make(EnableMask, int(stateMax))
	for s := State(0); s < stateMax; s++ {
		m[s] = true
	}
	m[StateDownloadRange] = false
	return m
}

// Clone returns an independent copy of the mask.
func (m EnableMask) Clone() EnableMask {
	out := make(EnableMask, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m EnableMask) enabled(s State) bool {
	if m == nil {
		return true
	}
	v, ok := m[s]
	return !ok || v
}

// advance moves (kind, state, generation) to the next lifecycle position,
// skipping disabled states, per §4.3's advance(entity) rules. It reports
// whether generation rolled over (the *_sub elision rule is handled by the
// caller, which has access to child state the lifecycle table alone does
// not).
func advance(kind Kind, state State, mask EnableMask) (next State, rolledOver bool) {
	seq := sequenceFor(kind)
	idx := indexOf(seq, state)
	for {
		idx = (idx + 1) % len(seq)
		next = seq[idx]
		rolledOver = idx == 0
		if mask.enabled(next) {
			return next, rolledOver
		}
		// Invariant 3: skipping disabled states always reaches either the
		// next enabled state or back to upload+1 generation. Since upload
		// itself can never be validly disabled for more than one full lap
		// (that would strand the entity forever), a full lap without an
		// enabled landing state is an internal inconsistency.
		if idx == indexOf(seq, state) {
			panic(fmt.Sprintf("urltest: no enabled state reachable from %s for kind %s", state, kind))
		}
	}
}

func indexOf(seq []State, s State) int {
	for i, v := range seq {
		if v == s {
			return i
		}
	}
	return 0
}
