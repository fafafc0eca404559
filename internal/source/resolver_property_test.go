package source

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// graphFromEdges builds a reference graph of n nodes where node i quotes
// node edges[i] % n. No node carries a URL, so every walk must end in none.
// Self-cycles and longer cycles appear whenever the generator produces them.
func graphFromEdges(edges []int) *fakeGraph {
	g := newFakeGraph()
	n := len(edges)
	for i, e := range edges {
		if e < 0 {
			e = -e
		}
		g.add(fmt.Sprintf("n%d", i), "", fmt.Sprintf("n%d", e%n))
	}
	return g
}

// TestResolve_ChainTerminates checks that arbitrary (including cyclic)
// quote graphs resolve to none within the hop bound.
func TestResolve_ChainTerminates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("walk stays within the hop bound and yields none", prop.ForAll(
		func(edges []int, start int, depth int) bool {
			if len(edges) == 0 {
				return true
			}
			if start < 0 {
				start = -start
			}
			g := graphFromEdges(edges)
			cfg := DefaultConfig()
			cfg.MaxChainDepth = depth
			r := NewResolver(nil, g, nil, cfg, nil)

			src, err := r.Resolve(context.Background(), ActionDescriptor{
				QuotedReferenceID: fmt.Sprintf("n%d", start%len(edges)),
			})
			if err != nil {
				return false
			}
			return src.Kind == KindNone && g.lookups <= depth
		},
		gen.SliceOf(gen.IntRange(0, 40)),
		gen.IntRange(0, 40),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

// TestResolve_Deterministic checks that resolving the same graph twice
// yields the same source.
func TestResolve_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same graph, same source", prop.ForAll(
		func(edges []int, urlAt int) bool {
			if len(edges) == 0 {
				return true
			}
			g := graphFromEdges(edges)
			target := fmt.Sprintf("n%d", urlAt%len(edges))
			g.actions[target].DirectSourceURL = "https://example.com/" + target
			r := NewResolver(nil, g, nil, DefaultConfig(), nil)
			desc := ActionDescriptor{QuotedReferenceID: "n0"}

			a, errA := r.Resolve(context.Background(), desc)
			b, errB := r.Resolve(context.Background(), desc)
			return errA == nil && errB == nil && a == b
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}
