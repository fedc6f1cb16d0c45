package keyrange

import (
	"context"

	"github.com/KevoDB/sai/pkg/common/closer"
	"github.com/KevoDB/sai/pkg/common/log"
	"github.com/KevoDB/sai/pkg/primarykey"
)

// IteratorTypeUnion names union iterators in metrics.
const IteratorTypeUnion = "union"

// Union merges ascending iterators into one ascending stream in which every
// ordering-equal key appears once. When ordering-equal keys differ in kind,
// the static key is the one produced.
type Union struct {
	Base

	ranges     []Iterator
	candidates []Iterator

	logger  log.Logger
	metrics Metrics
}

func newUnion(stats Statistics, ranges []Iterator, o options) *Union {
	u := &Union{
		ranges:     ranges,
		candidates: make([]Iterator, 0, len(ranges)),
		logger:     o.logger,
		metrics:    o.metrics,
	}
	u.init(stats.Min(), stats.Max(), stats.Count(), u)
	return u
}

func (u *Union) computeNext() (*primarykey.PrimaryKey, bool) {
	u.candidates = u.candidates[:0]
	var candidateKey *primarykey.PrimaryKey

	for _, r := range u.ranges {
		if !r.HasNext() {
			continue
		}

		peeked := r.Peek()
		if candidateKey == nil {
			candidateKey = peeked
			u.candidates = append(u.candidates, r)
			continue
		}

		cmp := primarykey.Compare(candidateKey, peeked)
		switch {
		case cmp == 0:
			if peeked.Kind() == primarykey.KindStatic {
				candidateKey = peeked
			}
			u.candidates = append(u.candidates, r)
		case cmp > 0:
			u.candidates = u.candidates[:0]
			candidateKey = peeked
			u.candidates = append(u.candidates, r)
		}
	}

	u.metrics.RecordMerge(context.Background(), len(u.candidates))

	if len(u.candidates) == 0 {
		return nil, false
	}

	// Consume every key equal to the candidate so it is not offered again.
	for _, c := range u.candidates {
		c.Next()
		for c.HasNext() && primarykey.Compare(c.Peek(), candidateKey) == 0 {
			c.Next()
		}
	}

	return candidateKey, true
}

func (u *Union) performSkipTo(target *primarykey.PrimaryKey) {
	fanout := 0
	for _, r := range u.ranges {
		if r.HasNext() {
			r.SkipTo(target)
			fanout++
		}
	}
	u.metrics.RecordSkip(context.Background(), fanout)
}

// Close closes every range exactly once. Ranges are not closed as they
// exhaust: keys may be materialized lazily, and a key taken from an exhausted
// range can still be under comparison. Close failures are logged and
// suppressed.
func (u *Union) Close() error {
	if !u.markClosed() {
		return nil
	}

	u.candidates = nil
	failures := closer.AllQuietly(u.ranges, u.logger, "key range")
	u.metrics.RecordClose(context.Background(), len(u.ranges), failures)
	return nil
}

// NumRanges returns the number of merged ranges
func (u *Union) NumRanges() int {
	return len(u.ranges)
}

// UnionBuilder collects the ranges of a union.
type UnionBuilder struct {
	ranges     []Iterator
	statistics *UnionStatistics
	opts       options
}

// NewUnionBuilder creates a builder expecting about expectedSize ranges.
func NewUnionBuilder(expectedSize int, opts ...Option) *UnionBuilder {
	if expectedSize < 0 {
		expectedSize = 0
	}
	return &UnionBuilder{
		ranges:     make([]Iterator, 0, expectedSize),
		statistics: NewUnionStatistics(),
		opts:       newOptions(opts),
	}
}

// BuildUnion merges its in one call.
func BuildUnion(its []Iterator, opts ...Option) Iterator {
	return NewUnionBuilder(len(its), opts...).AddAll(its).Build()
}

// Add retains it unless it is nil or empty. Empty iterators are closed at once.
func (b *UnionBuilder) Add(it Iterator) Builder {
	if it == nil {
		return b
	}

	if it.Count() > 0 {
		b.ranges = append(b.ranges, it)
		b.statistics.Update(it)
	} else {
		closer.Quietly(it, b.opts.logger, "empty key range")
		b.opts.metrics.RecordDropped(context.Background())
	}

	return b
}

// AddAll adds each of its in order
func (b *UnionBuilder) AddAll(its []Iterator) Builder {
	for _, it := range its {
		b.Add(it)
	}
	return b
}

// RangeCount returns the number of retained ranges
func (b *UnionBuilder) RangeCount() int {
	return len(b.ranges)
}

// Statistics returns the aggregated bounds of the retained ranges
func (b *UnionBuilder) Statistics() Statistics {
	return b.statistics
}

// Cleanup closes and forgets every retained range
func (b *UnionBuilder) Cleanup() {
	closer.AllQuietly(b.ranges, b.opts.logger, "key range")
	b.ranges = nil
}

// Build returns Empty for no ranges, the range itself for a single one, and a
// Union otherwise.
func (b *UnionBuilder) Build() Iterator {
	return build(b)
}

func (b *UnionBuilder) buildIterator() Iterator {
	var it Iterator
	degenerate := len(b.ranges) == 1
	if degenerate {
		it = b.ranges[0]
	} else {
		it = newUnion(b.statistics, b.ranges, b.opts)
	}
	b.opts.metrics.RecordBuild(context.Background(), IteratorTypeUnion, len(b.ranges), degenerate)

	// Ownership has moved to the result.
	b.ranges = nil
	return it
}
