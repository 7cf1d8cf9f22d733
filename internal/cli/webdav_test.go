// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import "testing"

func TestResolveEntityPairs_BaseURLMirrorsEveryPath(t *testing.T) {
	pairs, err := resolveEntityPairs("http://host/dav", []string{"/a", "/b", "/c"})
	if err != nil {
		t.Fatalf("resolveEntityPairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(pairs))
	}
	for _, p := range pairs {
		if p.url != "http://host/dav" {
			t.Errorf("pair %+v has wrong url", p)
		}
	}
}

func TestResolveEntityPairs_ExplicitPairsWithoutBaseURL(t *testing.T) {
	pairs, err := resolveEntityPairs("", []string{"/a", "http://host/a", "/b", "http://host/b"})
	if err != nil {
		t.Fatalf("resolveEntityPairs: %v", err)
	}
	want := []entityPair{{path: "/a", url: "http://host/a"}, {path: "/b", url: "http://host/b"}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestResolveEntityPairs_OddArgsWithoutBaseURLIsAnError(t *testing.T) {
	if _, err := resolveEntityPairs("", []string{"/a", "http://host/a", "/b"}); err == nil {
		t.Error("expected an error for an odd number of path/url arguments")
	}
}

func TestParseHostMappings(t *testing.T) {
	m, err := parseHostMappings([]string{"example.com:443:127.0.0.1", "api.test:80:10.0.0.1"})
	if err != nil {
		t.Fatalf("parseHostMappings: %v", err)
	}
	if m["example.com:443"] != "127.0.0.1" {
		t.Errorf("mapping for example.com:443 = %q, want 127.0.0.1", m["example.com:443"])
	}
	if m["api.test:80"] != "10.0.0.1" {
		t.Errorf("mapping for api.test:80 = %q, want 10.0.0.1", m["api.test:80"])
	}
}

func TestParseHostMappings_RejectsMalformedSpec(t *testing.T) {
	if _, err := parseHostMappings([]string{"bad-spec"}); err == nil {
		t.Error("expected an error for a malformed host mapping")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "", "c", "d"); got != "c" {
		t.Errorf("firstNonEmpty = %q, want %q", got, "c")
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty = %q, want empty", got)
	}
}

func TestCliError_ImplementsExitCoder(t *testing.T) {
	var err error = &cliError{code: 22, err: errTest{"bad input"}}
	ec, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatal("cliError must implement ExitCode() int")
	}
	if ec.ExitCode() != 22 {
		t.Errorf("ExitCode() = %d, want 22", ec.ExitCode())
	}
	if err.Error() != "bad input" {
		t.Errorf("Error() = %q, want %q", err.Error(), "bad input")
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
