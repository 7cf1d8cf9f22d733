// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package urltest implements the entity-lifecycle WebDAV exerciser and the
companion getlist fetcher: discover a local directory tree, mirror its
shape onto a remote WebDAV collection, and drive every discovered entity
through a bounded sequence of upload/verify/download/delete HTTP requests
while accumulating per-method timing statistics.

# Quick Start

Build an entity forest from a local directory, then drive it to completion
against a WebDAV collection:

	list, err := urltest.BuildEntityList("./fixtures")
	if err != nil {
		log.Fatal(err)
	}

	transport := urltest.NewHTTPTransport(urltest.TransportConfig{
		Username: "alice",
		Password: "hunter2",
	})

	rng := rand.New(rand.NewSource(1))
	sel := urltest.NewRandomSelector(rng)

	cfg := urltest.RunConfig{
		MaxGeneration: 1,
		Retries:       4,
		Backoff:       urltest.NewBackoff(rng, 0, 0),
	}
	err = urltest.Run(context.Background(), list, sel, transport, rng, "https://dav.example.org/exerciser/", cfg)

# Lifecycle

Every discovered entity (directory or file) advances through a fixed ring
of states — upload, options, getinfo, download, delete for files, with
upload_sub/download_sub/delete_sub coupling states interleaved for
directories that gate on their children reaching the same point. See
State and Entity.Advance.

# Selection

A Selector picks the next entity to drive forward. RandomSelector performs
a randomized, fairness-preserving walk of the forest (bounded to 20 forced
passes so no eligible entity starves); DepthFirstSelector performs a
deterministic left-to-right walk for reproducible test fixtures.

# Statistics

Stats accumulates per-(status-class, field) online min/max/mean/variance
using Welford's algorithm, and Merge combines two accumulators using
Chan et al.'s parallel-variance formula without replaying samples. Render
a report with WriteReport or WriteFullReport.

# getlist mode

RunGetList drives a flat list of absolute URLs (ReadURLList parses the
list-file format) through repeated GETs instead of a full lifecycle,
feeding the same Stats accumulator.
*/
package urltest
