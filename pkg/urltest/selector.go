// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import (
	"math"
	"math/rand"
)

// Selector picks the next entity the driver loop should act on, or returns
// nil once the forest has converged (or hit maxGeneration).
type Selector interface {
	Select(list *EntityList, maxGeneration int) *Entity
}

// forcedSelectionPasses is the number of full passes over a sibling list
// before the random selector gives up on the coin flip and forces a
// selection, bounding the otherwise-unbounded random walk per §4.4.
const forcedSelectionPasses = 20

// RandomSelector implements the default, fairness-by-construction walk from
// §4.4: an approximately uniform choice among eligible siblings at each
// level, recursing into *_sub directories before considering them done.
type RandomSelector struct {
	Rng *rand.Rand
}

// NewRandomSelector wraps rng (which must not be nil) in a RandomSelector.
// The PRNG is threaded in by the caller rather than held in a package
// global, per spec.md §9's re-architecture note.
func NewRandomSelector(rng *rand.Rand) *RandomSelector {
	return &RandomSelector{Rng: rng}
}

// Select implements Selector.
func (s *RandomSelector) Select(list *EntityList, maxGeneration int) *Entity {
	if list.Generation >= maxGeneration {
		return nil
	}
	// No entity is ever driven past list.Generation+1, so the mean reaches
	// that value only once every entity has; only then does the floor move.
	if mean := generationMean(list.Root); int(math.Floor(mean)) >= list.Generation+1 {
		list.Generation++
		if list.Generation >= maxGeneration {
			return nil
		}
	}
	target := list.Generation + 1
	return pickFrom(s.Rng, []*Entity{list.Root}, target)
}

// generationMean computes the arithmetic mean of Generation across every
// entity in the forest using Welford's streaming recurrence, so it never
// needs to materialize the full entity list and never overflows on large
// trees.
func generationMean(root *Entity) float64 {
	mean := 0.0
	n := 0.0
	root.Walk(func(e *Entity) {
		n++
		mean += (float64(e.Generation) - mean) / n
	})
	return mean
}

// pickFrom chooses one entity from siblings that has not yet reached
// target, recursing into *_sub directories per §4.4. Returns nil when every
// sibling (and, transitively, every descendant) has already reached target.
func pickFrom(rng *rand.Rand, siblings []*Entity, target int) *Entity {
	n := len(siblings)
	if n == 0 {
		return nil
	}

	minGen := target
	for _, e := range siblings {
		if e.Generation < minGen {
			minGen = e.Generation
		}
	}
	if minGen == target {
		return nil
	}

	pass := 0
	i := 0
	for {
		e := siblings[i]
		if e.Generation < target {
			if pass == forcedSelectionPasses || rng.Intn(n) == 0 {
				return resolveSelection(rng, e, target)
			}
		}
		i++
		if i == n {
			i = 0
			pass++
		}
	}
}

// resolveSelection implements the directory-recursion branch of §4.4's
// selection step: a directory caught in a *_sub state defers to its
// children first, and only becomes the returned node once the child
// subtree has nothing left to do at this target generation.
func resolveSelection(rng *rand.Rand, e *Entity, target int) *Entity {
	if e.Kind == KindDirectory && e.State.isSub() {
		if node := pickFrom(rng, e.Children, target); node != nil {
			return node
		}
		e.Advance()
		e.elideEmptyDownloadSub()
		return e
	}
	return e
}

// DepthFirstSelector implements the deterministic in-order walk from §4.4,
// selected with the -W flag.
type DepthFirstSelector struct{}

// Select implements Selector.
func (s *DepthFirstSelector) Select(list *EntityList, maxGeneration int) *Entity {
	for {
		if list.Generation >= maxGeneration {
			return nil
		}
		target := list.Generation + 1
		if node := pickFromDF([]*Entity{list.Root}, target); node != nil {
			return node
		}
		list.Generation++
	}
}

func pickFromDF(siblings []*Entity, target int) *Entity {
	for _, e := range siblings {
		if e.Generation < target {
			if e.Kind == KindDirectory && e.State.isSub() {
				if node := pickFromDF(e.Children, target); node != nil {
					return node
				}
				e.Advance()
				e.elideEmptyDownloadSub()
				return e
			}
			return e
		}
	}
	return nil
}
