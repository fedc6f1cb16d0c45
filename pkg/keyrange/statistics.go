package keyrange

import (
	"github.com/KevoDB/sai/pkg/primarykey"
)

// Statistics accumulates the bounds of the iterators a builder accepts.
type Statistics interface {
	// Update folds one non-empty iterator into the running bounds
	Update(it Iterator)

	// Min returns the aggregated lower bound, nil before any update
	Min() *primarykey.PrimaryKey

	// Max returns the aggregated upper bound, nil before any update
	Max() *primarykey.PrimaryKey

	// Count returns the aggregated count estimate
	Count() int64
}

type bounds struct {
	min   *primarykey.PrimaryKey
	max   *primarykey.PrimaryKey
	count int64
}

func (b *bounds) Min() *primarykey.PrimaryKey { return b.min }
func (b *bounds) Max() *primarykey.PrimaryKey { return b.max }
func (b *bounds) Count() int64                { return b.count }

// UnionStatistics aggregates with union semantics: min of mins, max of maxes
// and sum of counts. The count is an upper bound on the merged output since
// keys shared between iterators collapse.
type UnionStatistics struct {
	bounds
}

// NewUnionStatistics returns statistics in the "no data" state.
func NewUnionStatistics() *UnionStatistics {
	return &UnionStatistics{}
}

// Update folds it into the aggregate
func (s *UnionStatistics) Update(it Iterator) {
	s.min = primarykey.Min(s.min, it.Min())
	s.max = primarykey.Max(s.max, it.Max())
	s.count += it.Count()
}
