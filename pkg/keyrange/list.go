package keyrange

import (
	"sort"

	"github.com/KevoDB/sai/pkg/primarykey"
)

// ListIterator iterates an in-memory ascending slice of keys.
type ListIterator struct {
	Base
	keys []*primarykey.PrimaryKey
	pos  int
}

// NewListIterator creates an iterator over keys, which must be sorted
// ascending without ordering-equal neighbours. The slice is not copied.
func NewListIterator(keys []*primarykey.PrimaryKey) *ListIterator {
	it := &ListIterator{keys: keys}

	var min, max *primarykey.PrimaryKey
	if len(keys) > 0 {
		min, max = keys[0], keys[len(keys)-1]
	}
	it.init(min, max, int64(len(keys)), it)
	return it
}

func (it *ListIterator) computeNext() (*primarykey.PrimaryKey, bool) {
	if it.pos >= len(it.keys) {
		return nil, false
	}
	key := it.keys[it.pos]
	it.pos++
	return key, true
}

func (it *ListIterator) performSkipTo(target *primarykey.PrimaryKey) {
	remaining := it.keys[it.pos:]
	it.pos += sort.Search(len(remaining), func(i int) bool {
		return primarykey.Compare(remaining[i], target) >= 0
	})
}

// Close releases the key slice
func (it *ListIterator) Close() error {
	if it.markClosed() {
		it.keys = nil
		it.pos = 0
	}
	return nil
}

// SortKeys sorts keys ascending and drops ordering-equal duplicates, keeping
// the first occurrence. The result is suitable for NewListIterator.
func SortKeys(keys []*primarykey.PrimaryKey) []*primarykey.PrimaryKey {
	sort.SliceStable(keys, func(i, j int) bool {
		return primarykey.Compare(keys[i], keys[j]) < 0
	})

	out := keys[:0]
	for _, k := range keys {
		if len(out) > 0 && primarykey.Compare(out[len(out)-1], k) == 0 {
			continue
		}
		out = append(out, k)
	}
	return out
}

type emptyIterator struct {
	Base
}

// Empty returns an iterator with no keys, no bounds and a zero count.
func Empty() Iterator {
	it := &emptyIterator{}
	it.init(nil, nil, 0, it)
	return it
}

func (it *emptyIterator) computeNext() (*primarykey.PrimaryKey, bool) {
	return nil, false
}

func (it *emptyIterator) performSkipTo(target *primarykey.PrimaryKey) {}

func (it *emptyIterator) Close() error {
	it.markClosed()
	return nil
}
