// Package keyrange composes sorted streams of primary keys produced by index
// range scans. Every stream, leaf or merged, implements Iterator so that
// merges can be nested freely.
package keyrange

import (
	"errors"

	"github.com/KevoDB/sai/pkg/primarykey"
)

// ErrIteratorFailed is the panic value raised when an iterator is used again
// after a previous key computation panicked.
var ErrIteratorFailed = errors.New("key range iterator failed during a previous advance")

// Iterator is a pull-based ascending stream of primary keys with bounds
// fixed at construction. Implementations are not safe for concurrent use.
type Iterator interface {
	// HasNext reports whether a key is available without consuming it
	HasNext() bool

	// Peek returns the next key without consuming it, or nil when exhausted
	Peek() *primarykey.PrimaryKey

	// Next consumes and returns the next key, or nil when exhausted
	Next() *primarykey.PrimaryKey

	// SkipTo advances to the first key >= target. It never moves backwards.
	SkipTo(target *primarykey.PrimaryKey)

	// Min returns the smallest key the iterator may produce
	Min() *primarykey.PrimaryKey

	// Max returns the largest key the iterator may produce
	Max() *primarykey.PrimaryKey

	// Count returns an upper bound on the number of keys produced
	Count() int64

	// Current returns the key most recently returned by Next
	Current() *primarykey.PrimaryKey

	// Close releases the iterator's resources. It is idempotent.
	Close() error
}

// Composite is an iterator merged from other iterators.
type Composite interface {
	Iterator

	// NumRanges returns the number of source iterators
	NumRanges() int
}

type state uint8

const (
	stateNotReady state = iota
	stateReady
	stateDone
	stateFailed
)

// computer is implemented by concrete iterators embedding Base.
type computer interface {
	// computeNext returns the next key, or false at end of data
	computeNext() (*primarykey.PrimaryKey, bool)

	// performSkipTo repositions the source at the first key >= target
	performSkipTo(target *primarykey.PrimaryKey)
}

// Base holds the compute-ahead state shared by all iterators: at most one key
// is computed ahead of consumption, and repeated HasNext or Peek calls never
// recompute it.
type Base struct {
	min   *primarykey.PrimaryKey
	max   *primarykey.PrimaryKey
	count int64

	current *primarykey.PrimaryKey
	next    *primarykey.PrimaryKey
	state   state
	closed  bool

	impl computer
}

func (b *Base) init(min, max *primarykey.PrimaryKey, count int64, impl computer) {
	b.min = min
	b.max = max
	b.count = count
	b.impl = impl
	b.state = stateNotReady
}

// HasNext reports whether another key is available
func (b *Base) HasNext() bool {
	if b.closed {
		return false
	}

	switch b.state {
	case stateReady:
		return true
	case stateDone:
		return false
	case stateFailed:
		panic(ErrIteratorFailed)
	}

	return b.tryToComputeNext()
}

func (b *Base) tryToComputeNext() bool {
	// Stays failed if computeNext panics.
	b.state = stateFailed

	next, ok := b.impl.computeNext()
	if !ok {
		b.endOfData()
		return false
	}

	b.next = next
	b.state = stateReady
	return true
}

func (b *Base) endOfData() {
	b.next = nil
	b.state = stateDone
}

// Peek returns the next key without consuming it
func (b *Base) Peek() *primarykey.PrimaryKey {
	if !b.HasNext() {
		return nil
	}
	return b.next
}

// Next consumes and returns the next key
func (b *Base) Next() *primarykey.PrimaryKey {
	if !b.HasNext() {
		return nil
	}

	b.current = b.next
	b.next = nil
	b.state = stateNotReady
	return b.current
}

// SkipTo advances the iterator to the first key >= target. A cached key that
// already satisfies the target is kept; a target beyond Max ends the stream.
func (b *Base) SkipTo(target *primarykey.PrimaryKey) {
	if target == nil || b.closed {
		return
	}

	switch b.state {
	case stateDone, stateFailed:
		return
	case stateReady:
		if primarykey.Compare(b.next, target) >= 0 {
			return
		}
	}

	if b.max != nil && primarykey.Compare(b.max, target) < 0 {
		b.endOfData()
		return
	}

	b.impl.performSkipTo(target)
	b.next = nil
	b.state = stateNotReady
}

// Min returns the lower bound established at construction
func (b *Base) Min() *primarykey.PrimaryKey {
	return b.min
}

// Max returns the upper bound established at construction
func (b *Base) Max() *primarykey.PrimaryKey {
	return b.max
}

// Count returns the key count estimate established at construction
func (b *Base) Count() int64 {
	return b.count
}

// Current returns the key most recently returned by Next
func (b *Base) Current() *primarykey.PrimaryKey {
	return b.current
}

// markClosed reports whether this call is the first close.
func (b *Base) markClosed() bool {
	if b.closed {
		return false
	}
	b.closed = true
	b.next = nil
	return true
}
