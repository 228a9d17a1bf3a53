package view

import "sync/atomic"

// Generation tags in-flight requests with the view state they were issued under.
// A response whose tag is no longer current is stale and must be dropped.
type Generation struct {
	n atomic.Uint64
}

type Tag uint64

func (g *Generation) Current() Tag {
	return Tag(g.n.Load())
}

// Advance invalidates every outstanding tag.
func (g *Generation) Advance() Tag {
	return Tag(g.n.Add(1))
}

func (g *Generation) Valid(t Tag) bool {
	return g.Current() == t
}
