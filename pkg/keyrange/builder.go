package keyrange

// Builder assembles a set of iterators into a single iterator. A builder owns
// every iterator added to it until Build hands them on or Cleanup closes them.
type Builder interface {
	// Add takes ownership of it. A nil iterator is ignored.
	Add(it Iterator) Builder

	// AddAll adds each iterator in order
	AddAll(its []Iterator) Builder

	// RangeCount returns the number of iterators retained so far
	RangeCount() int

	// Statistics returns the bounds aggregated over the retained iterators
	Statistics() Statistics

	// Cleanup closes every retained iterator. Used when construction is
	// abandoned before Build.
	Cleanup()

	// Build returns the assembled iterator. The builder must not be reused.
	Build() Iterator
}

// iteratorBuilder is the hook a concrete builder exposes to build.
type iteratorBuilder interface {
	RangeCount() int
	Cleanup()
	buildIterator() Iterator
}

// build drives construction: with nothing retained it returns Empty, otherwise
// the concrete builder decides. If that panics the retained iterators are
// closed before the panic propagates.
func build(b iteratorBuilder) Iterator {
	if b.RangeCount() == 0 {
		return Empty()
	}

	succeeded := false
	defer func() {
		if !succeeded {
			b.Cleanup()
		}
	}()

	it := b.buildIterator()
	succeeded = true
	return it
}
