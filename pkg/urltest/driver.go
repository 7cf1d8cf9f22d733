// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"context"
	"fmt"
	"math/rand"
)

// TraceEvent is emitted once per successful step for verbose trace
// rendering, following the teacher's progress-callback pattern.
type TraceEvent struct {
	Method    Method
	Status    int
	FromState State
	ToState   State
	URL       string
	Entity    *Entity
	DryRun    bool
}

// TraceFunc receives one TraceEvent per driver step.
type TraceFunc func(TraceEvent)

// RunConfig configures one driver-loop run.
type RunConfig struct {
	MaxGeneration int
	DryRun        bool
	Retries       int
	Backoff       *Backoff
	Trace         TraceFunc
}

// Run drives list to completion (every entity reaches MaxGeneration, or the
// selector otherwise returns none), per §4.5's pseudocode. base is the
// remote base URL. rng feeds both the selector (if it's a RandomSelector)
// and the download_range state's random byte-range choice.
func Run(ctx context.Context, list *EntityList, sel Selector, transport Transport, rng *rand.Rand, base string, cfg RunConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e := sel.Select(list, cfg.MaxGeneration)
		if e == nil {
			return nil
		}

		method, ok := MethodFor(e.Kind, e.State)
		if !ok {
			return &FatalError{Outcome: Outcome{
				Class:    ClassFatal,
				ExitCode: ExitEINVAL,
				Message:  fmt.Sprintf("INTERNAL ERROR: selector returned %s in unreachable state %s", e.Path, e.State),
			}}
		}

		url := ComposeURL(base, list, e)

		if cfg.DryRun {
			fromState := e.State
			e.Advance()
			if cfg.Trace != nil {
				cfg.Trace(TraceEvent{Method: method, FromState: fromState, ToState: e.State, URL: url, Entity: e, DryRun: true})
			}
			continue
		}

		result, outcome, err := stepWithRetry(ctx, transport, method, e, url, rng, cfg)
		if err != nil {
			return err
		}
		if outcome.Class == ClassFatal {
			return &FatalError{Outcome: outcome, LastErr: transport.LastError()}
		}

		if result.Completed {
			e.StatsByMethod[method].Update(result.Timings, result.Status)
		}
		if method == MethodOPTIONS && result.Completed {
			applyOptionsPruning(list, e, result)
		}

		fromState := e.State
		e.Advance()
		if cfg.Trace != nil {
			cfg.Trace(TraceEvent{Method: method, Status: result.Status, FromState: fromState, ToState: e.State, URL: url})
		}
	}
}

// stepWithRetry executes one state's transport call, retrying 408 up to
// cfg.Retries times with cfg.Backoff between attempts before giving up.
// Transport-layer failures are classified fatal by Classify and are not
// retried.
func stepWithRetry(ctx context.Context, transport Transport, method Method, e *Entity, url string, rng *rand.Rand, cfg RunConfig) (Result, Outcome, error) {
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	var result Result
	var outcome Outcome
	for attempt := 0; ; attempt++ {
		result = execute(ctx, transport, e, url, rng)
		outcome = Classify(method, result, url)
		if outcome.Class != ClassRetry || attempt >= retries {
			break
		}
		if cfg.Backoff != nil {
			if !sleepCtx(ctx, cfg.Backoff.Next()) {
				return result, outcome, ctx.Err()
			}
		}
	}
	if outcome.Class == ClassRetry {
		// Retries exhausted: escalate to fatal so the caller aborts instead
		// of looping forever.
		outcome.Class = ClassFatal
		if outcome.ExitCode == 0 {
			outcome.ExitCode = ExitEPERM
		}
	}
	return result, outcome, nil
}

// execute dispatches to the Transport method bound to e's current state.
func execute(ctx context.Context, transport Transport, e *Entity, url string, rng *rand.Rand) Result {
	switch e.State {
	case StateUpload:
		if e.Kind == KindDirectory {
			return transport.Mkdir(ctx, url)
		}
		return transport.Upload(ctx, e.Path, url)
	case StateOptions:
		return transport.Options(ctx, url)
	case StateGetInfo:
		return transport.GetInfo(ctx, url)
	case StateDownloadRange:
		start, end := randomByteRange(rng, e.Size)
		return transport.DownloadRange(ctx, url, "", start, end)
	case StateDownload:
		return transport.Download(ctx, url, "")
	case StateDelete:
		return transport.Delete(ctx, url)
	default:
		return Result{Err: fmt.Errorf("urltest: no transport operation bound to state %s", e.State)}
	}
}

// randomByteRange picks S,E in [0,size] with S<=E, per §4.3's download_range
// method binding.
func randomByteRange(rng *rand.Rand, size int64) (int64, int64) {
	if size <= 0 {
		return 0, 0
	}
	s := rng.Int63n(size + 1)
	e := s + rng.Int63n(size-s+1)
	return s, e
}

// applyOptionsPruning implements §4.5's dynamic-pruning rule: when OPTIONS
// reports a method missing from Allow, disable the corresponding state(s)
// for this node, or forest-wide when the node is the root.
func applyOptionsPruning(list *EntityList, e *Entity, result Result) {
	isRoot := e == list.Root
	if !result.HasPropfind {
		if isRoot {
			list.SetStateEnabled(StateGetInfo, false)
		} else {
			e.EnableMask[StateGetInfo] = false
		}
	}
	if !result.HasDelete {
		if isRoot {
			list.SetStateEnabled(StateDelete, false)
			list.SetStateEnabled(StateDeleteSub, false)
		} else {
			e.EnableMask[StateDelete] = false
			e.EnableMask[StateDeleteSub] = false
		}
	}
}
