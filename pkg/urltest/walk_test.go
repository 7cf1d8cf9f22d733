// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildEntityList_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := BuildEntityList(path)
	if err != nil {
		t.Fatalf("BuildEntityList: %v", err)
	}
	if list.Root.Kind != KindFile {
		t.Errorf("root kind = %s, want file", list.Root.Kind)
	}
	if list.Count() != 1 {
		t.Errorf("Count = %d, want 1", list.Count())
	}
}

func TestBuildEntityList_DirectoryTree(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "b")
	if err := os.Mkdir(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	list, err := BuildEntityList(dir)
	if err != nil {
		t.Fatalf("BuildEntityList: %v", err)
	}
	if list.Root.Kind != KindDirectory {
		t.Fatalf("root kind = %s, want directory", list.Root.Kind)
	}
	// root + a.txt + sub + sub/b.txt + empty = 5
	if got := list.Count(); got != 5 {
		t.Errorf("Count = %d, want 5", got)
	}
}

func TestBuildEntityList_HiddenFilesExcludedExceptHtaccess(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, ".hidden"), "x")
	mustWrite(t, filepath.Join(dir, ".htaccess"), "x")
	mustWrite(t, filepath.Join(dir, "visible.txt"), "x")

	list, err := BuildEntityList(dir)
	if err != nil {
		t.Fatalf("BuildEntityList: %v", err)
	}
	names := map[string]bool{}
	list.Root.Walk(func(e *Entity) { names[e.Name] = true })

	if names[".hidden"] {
		t.Error(".hidden should have been excluded")
	}
	if !names[".htaccess"] {
		t.Error(".htaccess should have been included")
	}
	if !names["visible.txt"] {
		t.Error("visible.txt should have been included")
	}
}

func TestBuildEntityList_DirectoryCycleSkipped(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	loop := filepath.Join(sub, "loop")
	if err := os.Symlink(dir, loop); err != nil {
		t.Skipf("symlinks unavailable in this environment: %v", err)
	}

	list, err := BuildEntityList(dir)
	if err != nil {
		t.Fatalf("BuildEntityList: %v", err)
	}
	// root + sub; the cycle-forming symlink must not recurse back to root.
	if got := list.Count(); got != 2 {
		t.Errorf("Count = %d, want 2 (cycle should be skipped)", got)
	}
}

func TestEntityList_SetStateEnabledAppliesForestWide(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "b")

	list, err := BuildEntityList(dir)
	if err != nil {
		t.Fatalf("BuildEntityList: %v", err)
	}
	list.SetStateEnabled(StateDelete, false)

	list.Root.Walk(func(e *Entity) {
		if e.EnableMask.enabled(StateDelete) {
			t.Errorf("entity %s still has delete enabled", e.Path)
		}
	})
	if list.ListEnableMask.enabled(StateDelete) {
		t.Error("list-wide mask still has delete enabled")
	}
}

func mustWrite(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
